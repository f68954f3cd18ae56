package services

import (
	"fmt"
	"time"
)

// PointsPerQuestion is the fixed rubric ceiling: every question is scored 0..10.
const PointsPerQuestion = 10

// Tier buckets a verification percentage for display.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// InvalidScoreError reports a score that violates the verification contract,
// identifying the offending question.
type InvalidScoreError struct {
	QuestionID string
	Value      int
	Reason     string
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid score for question %s: %s", e.QuestionID, e.Reason)
}

// VerificationResult is the full outcome of one verification act. It replaces
// any previous result on the registration; nothing is accumulated.
type VerificationResult struct {
	Status     VerificationStatus `json:"status"`
	Scores     map[string]int     `json:"scores"`
	TotalScore int                `json:"total_score"`
	MaxScore   int                `json:"max_score"`
	Percentage float64            `json:"percentage"`
	VerifiedBy string             `json:"verified_by"`
	VerifiedAt time.Time          `json:"verified_at"`
}

// ScoreVerification computes a VerificationResult for one registration against
// its program's question set. Scores must be within [0, PointsPerQuestion] and
// may only reference questions in the set; a question missing from the map
// scores 0. The caller supplies actor and timestamp, so the function is pure.
func ScoreVerification(questions []*FormQuestion, scoresByQuestion map[string]int, actor string, now time.Time) (*VerificationResult, error) {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for qid, v := range scoresByQuestion {
		if _, ok := known[qid]; !ok {
			return nil, &InvalidScoreError{QuestionID: qid, Value: v, Reason: "question not in program form"}
		}
		if v < 0 || v > PointsPerQuestion {
			return nil, &InvalidScoreError{QuestionID: qid, Value: v, Reason: fmt.Sprintf("score %d out of range [0,%d]", v, PointsPerQuestion)}
		}
	}

	scores := make(map[string]int, len(questions))
	total := 0
	for _, q := range questions {
		v := scoresByQuestion[q.ID] // unscored questions default to 0
		scores[q.ID] = v
		total += v
	}
	max := PointsPerQuestion * len(questions)
	pct := 0.0
	if max > 0 {
		pct = 100 * float64(total) / float64(max)
	}
	return &VerificationResult{
		Status:     StatusVerified,
		Scores:     scores,
		TotalScore: total,
		MaxScore:   max,
		Percentage: pct,
		VerifiedBy: actor,
		VerifiedAt: now,
	}, nil
}

// Classify maps a verification percentage to its display tier. Every screen
// that shows a verified registration routes through this one rule.
func Classify(percentage float64) Tier {
	switch {
	case percentage >= 70:
		return TierHigh
	case percentage >= 40:
		return TierMedium
	default:
		return TierLow
	}
}
