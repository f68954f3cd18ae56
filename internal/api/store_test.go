package api

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/evamarketing/elife/internal/services"
)

func TestMemoryStoreSnapshotRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	st, err := NewMemoryStoreFromPath(path)
	if err != nil {
		t.Fatalf("NewMemoryStoreFromPath: %v", err)
	}

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	st.AddPanchayath(&services.Panchayath{ID: "pan1", Name: "Thrikkakara", District: "Ernakulam"})
	st.AddProgram(&services.Program{ID: "pr1", Name: "Pension", PanchayathID: "pan1", VerificationEnabled: true, CreatedAt: now})
	st.AddQuestion(&services.FormQuestion{ID: "q1", ProgramID: "pr1", Label: "Income proof?", Position: 1})
	st.AddRegistration(&services.Registration{
		ID: "r1", ProgramID: "pr1", Name: "Lakshmi", Mobile: "9876543210",
		VerificationStatus: services.StatusPending, CreatedAt: now,
	})
	st.AddAgent(&services.Agent{ID: "a1", Name: "Lead", Role: services.RoleTeamLeader})
	if err := st.AddAdmin(&services.Admin{ID: "ad1", Email: "admin@example.com", PassHash: []byte("x"), CreatedAt: now}); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	st.AddAudit(services.AuditEntry{Time: now, Actor: "admin@example.com", Action: "create_program", Target: "pr1"})

	st.UpdateRegistrationVerification("r1", &services.VerificationResult{
		Status: services.StatusVerified, Scores: map[string]int{"q1": 8},
		TotalScore: 8, MaxScore: 10, Percentage: 80,
		VerifiedBy: "admin@example.com", VerifiedAt: now,
	})

	reloaded, err := NewMemoryStoreFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p := reloaded.GetProgram("pr1")
	if p == nil || !p.VerificationEnabled {
		t.Fatalf("reloaded program = %+v", p)
	}
	r := reloaded.GetRegistration("r1")
	if r == nil || r.VerificationStatus != services.StatusVerified || r.TotalScore != 8 {
		t.Fatalf("reloaded registration = %+v", r)
	}
	if r.VerifiedAt == nil || !r.VerifiedAt.Equal(now) {
		t.Fatalf("reloaded VerifiedAt = %v", r.VerifiedAt)
	}
	if a := reloaded.FindAdminByEmail("Admin@Example.com"); a == nil {
		t.Fatal("admin lookup should be case-insensitive after reload")
	}
	if got := len(reloaded.ListAudit()); got != 1 {
		t.Fatalf("reloaded audit entries = %d, want 1", got)
	}
}

func TestListQuestionsOrdersByPosition(t *testing.T) {
	st := NewMemoryStore()
	st.AddQuestion(&services.FormQuestion{ID: "q2", ProgramID: "pr1", Label: "B", Position: 2})
	st.AddQuestion(&services.FormQuestion{ID: "q1", ProgramID: "pr1", Label: "A", Position: 1})
	st.AddQuestion(&services.FormQuestion{ID: "q9", ProgramID: "other", Label: "X", Position: 1})

	qs := st.ListQuestions("pr1")
	if len(qs) != 2 || qs[0].ID != "q1" || qs[1].ID != "q2" {
		t.Fatalf("ListQuestions = %+v", qs)
	}
}

func TestReorderQuestionsRejectsForeignQuestion(t *testing.T) {
	st := NewMemoryStore()
	st.AddQuestion(&services.FormQuestion{ID: "q1", ProgramID: "pr1", Label: "A", Position: 1})
	st.AddQuestion(&services.FormQuestion{ID: "q2", ProgramID: "other", Label: "B", Position: 1})

	if st.ReorderQuestions("pr1", []string{"q2", "q1"}) {
		t.Fatal("reorder with a foreign question should fail")
	}
	if st.ReorderQuestions("pr1", []string{"q1", "missing"}) {
		t.Fatal("reorder with an unknown question should fail")
	}
	if !st.ReorderQuestions("pr1", []string{"q1"}) {
		t.Fatal("valid reorder should succeed")
	}
}

func TestAddAdminDuplicateEmail(t *testing.T) {
	st := NewMemoryStore()
	if err := st.AddAdmin(&services.Admin{ID: "ad1", Email: "admin@example.com"}); err != nil {
		t.Fatalf("first AddAdmin: %v", err)
	}
	err := st.AddAdmin(&services.Admin{ID: "ad2", Email: "ADMIN@example.com"})
	se, ok := services.AsServiceError(err)
	if !ok || se.Code != services.ErrorConflict {
		t.Fatalf("duplicate AddAdmin err = %v, want conflict", err)
	}
}

func TestDeleteProgramRemovesQuestions(t *testing.T) {
	st := NewMemoryStore()
	st.AddProgram(&services.Program{ID: "pr1", Name: "P"})
	st.AddQuestion(&services.FormQuestion{ID: "q1", ProgramID: "pr1", Label: "A", Position: 1})
	st.AddQuestion(&services.FormQuestion{ID: "q2", ProgramID: "pr2", Label: "B", Position: 1})

	if !st.DeleteProgram("pr1") {
		t.Fatal("DeleteProgram should succeed")
	}
	if st.GetQuestion("q1") != nil {
		t.Fatal("questions of a deleted program should be removed")
	}
	if st.GetQuestion("q2") == nil {
		t.Fatal("questions of other programs should survive")
	}
}
