package services

import (
	"testing"
	"time"
)

type stubProgramStore struct {
	panchayaths map[string]*Panchayath
	programs    map[string]*Program
	questions   map[string]*FormQuestion
	order       map[string][]string
	audits      []AuditEntry

	reorderOK bool
}

func newStubProgramStore() *stubProgramStore {
	return &stubProgramStore{
		panchayaths: map[string]*Panchayath{},
		programs:    map[string]*Program{},
		questions:   map[string]*FormQuestion{},
		order:       map[string][]string{},
		reorderOK:   true,
	}
}

func (s *stubProgramStore) InsertPanchayath(p *Panchayath) (*Panchayath, error) {
	cp := *p
	s.panchayaths[p.ID] = &cp
	return &cp, nil
}

func (s *stubProgramStore) GetPanchayath(id string) (*Panchayath, error) {
	if p, ok := s.panchayaths[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *stubProgramStore) ListPanchayaths() ([]*Panchayath, error) {
	out := []*Panchayath{}
	for _, p := range s.panchayaths {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubProgramStore) DeletePanchayath(id string) error {
	if _, ok := s.panchayaths[id]; !ok {
		return NewNotFoundError("panchayath not found")
	}
	delete(s.panchayaths, id)
	return nil
}

func (s *stubProgramStore) InsertProgram(p *Program) (*Program, error) {
	cp := *p
	s.programs[p.ID] = &cp
	return &cp, nil
}

func (s *stubProgramStore) GetProgram(id string) (*Program, error) {
	if p, ok := s.programs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *stubProgramStore) UpdateProgram(p *Program) error {
	if _, ok := s.programs[p.ID]; !ok {
		return NewNotFoundError("program not found")
	}
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *stubProgramStore) DeleteProgram(id string) error {
	if _, ok := s.programs[id]; !ok {
		return NewNotFoundError("program not found")
	}
	delete(s.programs, id)
	return nil
}

func (s *stubProgramStore) ListPrograms() ([]*Program, error) {
	out := []*Program{}
	for _, p := range s.programs {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubProgramStore) InsertQuestion(q *FormQuestion) (*FormQuestion, error) {
	cp := *q
	s.questions[q.ID] = &cp
	s.order[q.ProgramID] = append(s.order[q.ProgramID], q.ID)
	return &cp, nil
}

func (s *stubProgramStore) GetQuestion(id string) (*FormQuestion, error) {
	return s.questions[id], nil
}

func (s *stubProgramStore) UpdateQuestion(q *FormQuestion) error {
	if _, ok := s.questions[q.ID]; !ok {
		return NewNotFoundError("question not found")
	}
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *stubProgramStore) DeleteQuestion(id string) error {
	if _, ok := s.questions[id]; !ok {
		return NewNotFoundError("question not found")
	}
	delete(s.questions, id)
	return nil
}

func (s *stubProgramStore) ListQuestions(programID string) ([]*FormQuestion, error) {
	out := []*FormQuestion{}
	for _, q := range s.questions {
		if q.ProgramID == programID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubProgramStore) ReorderQuestions(programID string, order []string) (bool, error) {
	if !s.reorderOK {
		return false, nil
	}
	s.order[programID] = append([]string{}, order...)
	return true, nil
}

func (s *stubProgramStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}

func TestCreateProgramDefaults(t *testing.T) {
	store := newStubProgramStore()
	svc := NewProgramService(store)
	svc.now = func() time.Time { return time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC) }

	pr, err := svc.CreateProgram("Haritha Karma Sena", "", false, "admin")
	if err != nil {
		t.Fatalf("CreateProgram returned error: %v", err)
	}
	if pr.ID == "" {
		t.Fatalf("expected generated id")
	}
	if pr.VerificationEnabled {
		t.Fatalf("verification should default to disabled")
	}
	if len(store.audits) != 1 || store.audits[0].Action != "create_program" {
		t.Fatalf("expected create_program audit, got %+v", store.audits)
	}

	if _, err := svc.CreateProgram("  ", "", false, "admin"); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := svc.CreateProgram("X", "nope", false, "admin"); err == nil {
		t.Fatalf("expected error for unknown panchayath")
	}
}

func TestCreateQuestionAssignsPosition(t *testing.T) {
	store := newStubProgramStore()
	store.programs["P1"] = &Program{ID: "P1", Name: "Prog"}
	svc := NewProgramService(store)

	q1, err := svc.CreateQuestion(&FormQuestion{ProgramID: "P1", Label: "Own house?"}, "admin")
	if err != nil {
		t.Fatalf("CreateQuestion returned error: %v", err)
	}
	if q1.ID == "" || q1.Position != 1 {
		t.Fatalf("unexpected question %+v", q1)
	}
	q2, err := svc.CreateQuestion(&FormQuestion{ProgramID: "P1", Label: "Income proof?"}, "admin")
	if err != nil {
		t.Fatalf("CreateQuestion returned error: %v", err)
	}
	if q2.Position != 2 {
		t.Fatalf("position = %d, want 2", q2.Position)
	}

	if _, err := svc.CreateQuestion(&FormQuestion{ProgramID: "P1"}, "admin"); err == nil {
		t.Fatalf("expected error for missing label")
	}
	if _, err := svc.CreateQuestion(&FormQuestion{ProgramID: "missing", Label: "X"}, "admin"); err == nil {
		t.Fatalf("expected not found for unknown program")
	}
}

func TestUpdateProgramTogglesVerification(t *testing.T) {
	store := newStubProgramStore()
	store.programs["P1"] = &Program{ID: "P1", Name: "Prog"}
	svc := NewProgramService(store)
	svc.now = func() time.Time { return time.Unix(0, 0) }

	if err := svc.UpdateProgram("P1", map[string]any{"verification_enabled": true}, "admin"); err != nil {
		t.Fatalf("UpdateProgram returned error: %v", err)
	}
	if !store.programs["P1"].VerificationEnabled {
		t.Fatalf("verification flag not persisted")
	}
	if len(store.audits) != 1 || store.audits[0].Action != "toggle_verification" {
		t.Fatalf("expected toggle_verification audit, got %+v", store.audits)
	}

	if err := svc.UpdateProgram("missing", map[string]any{}, "admin"); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestReorderQuestions(t *testing.T) {
	store := newStubProgramStore()
	store.programs["P1"] = &Program{ID: "P1", Name: "Prog"}
	svc := NewProgramService(store)

	if _, err := svc.ReorderQuestions("P1", nil, "admin"); err == nil {
		t.Fatalf("expected invalid error for empty order")
	}
	if _, err := svc.ReorderQuestions("missing", []string{"a"}, "admin"); err == nil {
		t.Fatalf("expected not found")
	}
	n, err := svc.ReorderQuestions("P1", []string{"a", "b"}, "admin")
	if err != nil {
		t.Fatalf("ReorderQuestions returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
