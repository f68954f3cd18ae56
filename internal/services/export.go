package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

// ExportLongCSV renders one row per answered question, pending and verified
// registrations alike. Score columns are blank for pending rows.
func ExportLongCSV(regs []*Registration) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"registration_id", "name", "mobile", "question_id", "answer", "score", "status", "submitted_at"})
	for _, r := range regs {
		qids := make([]string, 0, len(r.Answers))
		for qid := range r.Answers {
			qids = append(qids, qid)
		}
		sort.Strings(qids)
		for _, qid := range qids {
			score := ""
			if r.VerificationStatus == StatusVerified {
				score = strconv.Itoa(r.VerificationScores[qid])
			}
			rec := []string{r.ID, r.Name, r.Mobile, qid, r.Answers[qid], score, string(r.VerificationStatus), r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders one row per registration: the reserved fixed fields,
// one answer column per question (in form order), and the verification
// aggregates with the display tier.
func ExportWideCSV(regs []*Registration, questions []*FormQuestion) ([]byte, error) {
	ordered := append([]*FormQuestion(nil), questions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	header := []string{"registration_id", "name", "mobile", "panchayath_id", "ward"}
	for _, q := range ordered {
		header = append(header, q.Label)
	}
	header = append(header, "status", "total_score", "max_score", "percentage", "tier")

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(header)
	for _, r := range regs {
		row := []string{r.ID, r.Name, r.Mobile, r.PanchayathID, r.Ward}
		for _, q := range ordered {
			row = append(row, r.Answers[q.ID])
		}
		if r.VerificationStatus == StatusVerified {
			row = append(row,
				string(r.VerificationStatus),
				strconv.Itoa(r.TotalScore),
				strconv.Itoa(r.MaxScore),
				strconv.FormatFloat(r.Percentage, 'f', 1, 64),
				string(Classify(r.Percentage)))
		} else {
			row = append(row, string(StatusPending), "", "", "", "")
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
