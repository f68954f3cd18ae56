package services

import (
	"errors"
	"testing"
	"time"
)

func rubric(ids ...string) []*FormQuestion {
	out := make([]*FormQuestion, 0, len(ids))
	for i, id := range ids {
		out = append(out, &FormQuestion{ID: id, ProgramID: "P1", Label: "Q " + id, Position: i})
	}
	return out
}

func TestScoreVerificationAggregates(t *testing.T) {
	now := time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)
	questions := rubric("q1", "q2", "q3")

	res, err := ScoreVerification(questions, map[string]int{"q1": 10, "q2": 5, "q3": 0}, "admin@elife", now)
	if err != nil {
		t.Fatalf("ScoreVerification returned error: %v", err)
	}
	if res.Status != StatusVerified {
		t.Fatalf("status = %s, want verified", res.Status)
	}
	if res.TotalScore != 15 || res.MaxScore != 30 {
		t.Fatalf("total/max = %d/%d, want 15/30", res.TotalScore, res.MaxScore)
	}
	if res.Percentage != 50 {
		t.Fatalf("percentage = %v, want 50", res.Percentage)
	}
	if res.VerifiedBy != "admin@elife" || !res.VerifiedAt.Equal(now) {
		t.Fatalf("verifier fields not carried: %+v", res)
	}
}

func TestScoreVerificationBounds(t *testing.T) {
	questions := rubric("q1", "q2")
	now := time.Unix(0, 0)

	res, err := ScoreVerification(questions, map[string]int{"q1": 0, "q2": 0}, "a", now)
	if err != nil {
		t.Fatalf("all-zero returned error: %v", err)
	}
	if res.Percentage != 0 {
		t.Fatalf("all-zero percentage = %v, want 0", res.Percentage)
	}

	res, err = ScoreVerification(questions, map[string]int{"q1": 10, "q2": 10}, "a", now)
	if err != nil {
		t.Fatalf("all-ten returned error: %v", err)
	}
	if res.Percentage != 100 {
		t.Fatalf("all-ten percentage = %v, want 100", res.Percentage)
	}
}

func TestScoreVerificationEmptyRubric(t *testing.T) {
	res, err := ScoreVerification(nil, nil, "a", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("empty rubric returned error: %v", err)
	}
	if res.MaxScore != 0 || res.Percentage != 0 {
		t.Fatalf("empty rubric aggregates = %+v, want zeroes", res)
	}
}

func TestScoreVerificationUnscoredDefaultsToZero(t *testing.T) {
	questions := rubric("q1", "q2")
	res, err := ScoreVerification(questions, map[string]int{"q1": 10}, "a", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("ScoreVerification returned error: %v", err)
	}
	if res.Scores["q2"] != 0 {
		t.Fatalf("unscored question score = %d, want 0", res.Scores["q2"])
	}
	if res.TotalScore != 10 || res.MaxScore != 20 || res.Percentage != 50 {
		t.Fatalf("aggregates = %d/%d/%v, want 10/20/50", res.TotalScore, res.MaxScore, res.Percentage)
	}
}

func TestScoreVerificationRejectsOutOfRange(t *testing.T) {
	questions := rubric("q1", "q2")
	for _, bad := range []int{-1, 11} {
		_, err := ScoreVerification(questions, map[string]int{"q1": bad}, "a", time.Unix(0, 0))
		var ise *InvalidScoreError
		if !errors.As(err, &ise) {
			t.Fatalf("score %d: expected InvalidScoreError, got %v", bad, err)
		}
		if ise.QuestionID != "q1" {
			t.Fatalf("score %d: offending question = %s, want q1", bad, ise.QuestionID)
		}
	}
}

func TestScoreVerificationRejectsUnknownQuestion(t *testing.T) {
	questions := rubric("q1")
	_, err := ScoreVerification(questions, map[string]int{"ghost": 5}, "a", time.Unix(0, 0))
	var ise *InvalidScoreError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidScoreError, got %v", err)
	}
	if ise.QuestionID != "ghost" {
		t.Fatalf("offending question = %s, want ghost", ise.QuestionID)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want Tier
	}{
		{0, TierLow},
		{39.9, TierLow},
		{40.0, TierMedium},
		{69.9, TierMedium},
		{70.0, TierHigh},
		{100, TierHigh},
	}
	for _, c := range cases {
		if got := Classify(c.pct); got != c.want {
			t.Fatalf("Classify(%v)=%s, want %s", c.pct, got, c.want)
		}
	}
}
