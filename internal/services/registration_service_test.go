package services

import (
	"errors"
	"testing"
	"time"
)

type stubRegistrationStore struct {
	program       *Program
	questions     []*FormQuestion
	registrations map[string]*Registration
	audits        []AuditEntry
}

func newStubRegistrationStore() *stubRegistrationStore {
	return &stubRegistrationStore{registrations: map[string]*Registration{}}
}

func (s *stubRegistrationStore) GetProgram(id string) (*Program, error) {
	if s.program != nil && s.program.ID == id {
		cp := *s.program
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRegistrationStore) ListQuestions(programID string) ([]*FormQuestion, error) {
	out := []*FormQuestion{}
	for _, q := range s.questions {
		if q.ProgramID == programID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubRegistrationStore) GetRegistration(id string) (*Registration, error) {
	if r, ok := s.registrations[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRegistrationStore) ListRegistrations(programID string) ([]*Registration, error) {
	out := []*Registration{}
	for _, r := range s.registrations {
		if r.ProgramID == programID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubRegistrationStore) InsertRegistration(r *Registration) (*Registration, error) {
	cp := *r
	s.registrations[r.ID] = &cp
	return &cp, nil
}

func (s *stubRegistrationStore) UpdateRegistrationVerification(id string, res *VerificationResult) (bool, error) {
	r, ok := s.registrations[id]
	if !ok {
		return false, nil
	}
	r.VerificationStatus = res.Status
	r.VerificationScores = res.Scores
	r.TotalScore = res.TotalScore
	r.MaxScore = res.MaxScore
	r.Percentage = res.Percentage
	r.VerifiedBy = res.VerifiedBy
	at := res.VerifiedAt
	r.VerifiedAt = &at
	return true, nil
}

func (s *stubRegistrationStore) DeleteRegistration(id string) error {
	if _, ok := s.registrations[id]; !ok {
		return NewNotFoundError("registration not found")
	}
	delete(s.registrations, id)
	return nil
}

func (s *stubRegistrationStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}

func verificationFixture() *stubRegistrationStore {
	store := newStubRegistrationStore()
	store.program = &Program{ID: "P1", Name: "Prog", VerificationEnabled: true}
	store.questions = []*FormQuestion{
		{ID: "q1", ProgramID: "P1", Label: "Q1", Position: 1},
		{ID: "q2", ProgramID: "P1", Label: "Q2", Position: 2},
	}
	return store
}

func TestSubmitDropsUnknownAnswers(t *testing.T) {
	store := verificationFixture()
	svc := NewRegistrationService(store)
	svc.now = func() time.Time { return time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC) }

	reg, err := svc.Submit(SubmitRegistrationRequest{
		ProgramID: "P1",
		Name:      "Anu",
		Mobile:    "9876543210",
		Ward:      "4",
		Answers:   map[string]string{"q1": "yes", "stale": "x"},
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if reg.VerificationStatus != StatusPending {
		t.Fatalf("status = %s, want pending", reg.VerificationStatus)
	}
	if _, ok := reg.Answers["stale"]; ok {
		t.Fatalf("answer for removed question should be dropped")
	}
	if reg.Answers["q1"] != "yes" {
		t.Fatalf("answers not carried: %+v", reg.Answers)
	}
}

func TestSubmitValidation(t *testing.T) {
	store := verificationFixture()
	svc := NewRegistrationService(store)

	if _, err := svc.Submit(SubmitRegistrationRequest{ProgramID: "P1", Mobile: "1"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := svc.Submit(SubmitRegistrationRequest{ProgramID: "P1", Name: "A"}); err == nil {
		t.Fatalf("expected error for missing mobile")
	}
	if _, err := svc.Submit(SubmitRegistrationRequest{ProgramID: "missing", Name: "A", Mobile: "1"}); err == nil {
		t.Fatalf("expected not found for unknown program")
	}
}

func TestVerifySetsAggregatesAndTier(t *testing.T) {
	store := verificationFixture()
	store.registrations["R1"] = &Registration{ID: "R1", ProgramID: "P1", Name: "Anu", Mobile: "1", VerificationStatus: StatusPending}
	svc := NewRegistrationService(store)
	now := time.Date(2025, 9, 18, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	view, err := svc.Verify("R1", map[string]int{"q1": 10, "q2": 6}, "admin@elife")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if view.VerificationStatus != StatusVerified {
		t.Fatalf("status = %s, want verified", view.VerificationStatus)
	}
	if view.TotalScore != 16 || view.MaxScore != 20 || view.Percentage != 80 {
		t.Fatalf("aggregates = %d/%d/%v", view.TotalScore, view.MaxScore, view.Percentage)
	}
	if view.Tier != TierHigh {
		t.Fatalf("tier = %s, want high", view.Tier)
	}
	if view.VerifiedBy != "admin@elife" || view.VerifiedAt == nil || !view.VerifiedAt.Equal(now) {
		t.Fatalf("verifier fields missing: %+v", view)
	}
	if len(store.audits) != 1 || store.audits[0].Action != "verify_registration" {
		t.Fatalf("expected verify audit, got %+v", store.audits)
	}
}

func TestReVerifyReplacesResult(t *testing.T) {
	store := verificationFixture()
	store.registrations["R1"] = &Registration{ID: "R1", ProgramID: "P1", Name: "Anu", Mobile: "1", VerificationStatus: StatusPending}
	svc := NewRegistrationService(store)

	if _, err := svc.Verify("R1", map[string]int{"q1": 10, "q2": 10}, "a"); err != nil {
		t.Fatalf("first Verify returned error: %v", err)
	}
	view, err := svc.Verify("R1", map[string]int{"q1": 2, "q2": 2}, "a")
	if err != nil {
		t.Fatalf("second Verify returned error: %v", err)
	}
	if view.TotalScore != 4 || view.Percentage != 20 {
		t.Fatalf("re-verify did not replace aggregates: %d/%v", view.TotalScore, view.Percentage)
	}
	if view.Tier != TierLow {
		t.Fatalf("tier = %s, want low", view.Tier)
	}
}

func TestVerifyRejectsBadScoreLeavingPending(t *testing.T) {
	store := verificationFixture()
	store.registrations["R1"] = &Registration{ID: "R1", ProgramID: "P1", Name: "Anu", Mobile: "1", VerificationStatus: StatusPending}
	svc := NewRegistrationService(store)

	_, err := svc.Verify("R1", map[string]int{"q1": 11}, "a")
	var ise *InvalidScoreError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidScoreError, got %v", err)
	}
	if ise.QuestionID != "q1" {
		t.Fatalf("offending question = %s, want q1", ise.QuestionID)
	}
	if store.registrations["R1"].VerificationStatus != StatusPending {
		t.Fatalf("registration must remain pending after rejected scores")
	}
}

func TestVerifyRequiresVerificationEnabled(t *testing.T) {
	store := verificationFixture()
	store.program.VerificationEnabled = false
	store.registrations["R1"] = &Registration{ID: "R1", ProgramID: "P1", Name: "Anu", Mobile: "1", VerificationStatus: StatusPending}
	svc := NewRegistrationService(store)

	_, err := svc.Verify("R1", map[string]int{"q1": 5}, "a")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestListDecoratesTier(t *testing.T) {
	store := verificationFixture()
	store.registrations["R1"] = &Registration{ID: "R1", ProgramID: "P1", VerificationStatus: StatusVerified, Percentage: 45}
	store.registrations["R2"] = &Registration{ID: "R2", ProgramID: "P1", VerificationStatus: StatusPending}
	svc := NewRegistrationService(store)

	views, err := svc.List("P1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}
	for _, v := range views {
		switch v.ID {
		case "R1":
			if v.Tier != TierMedium {
				t.Fatalf("R1 tier = %s, want medium", v.Tier)
			}
		case "R2":
			if v.Tier != "" {
				t.Fatalf("pending registration must carry no tier, got %s", v.Tier)
			}
		}
	}
}
