package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProgramStore interface {
	InsertPanchayath(p *Panchayath) (*Panchayath, error)
	GetPanchayath(id string) (*Panchayath, error)
	ListPanchayaths() ([]*Panchayath, error)
	DeletePanchayath(id string) error

	InsertProgram(p *Program) (*Program, error)
	GetProgram(id string) (*Program, error)
	UpdateProgram(p *Program) error
	DeleteProgram(id string) error
	ListPrograms() ([]*Program, error)

	InsertQuestion(q *FormQuestion) (*FormQuestion, error)
	GetQuestion(id string) (*FormQuestion, error)
	UpdateQuestion(q *FormQuestion) error
	DeleteQuestion(id string) error
	ListQuestions(programID string) ([]*FormQuestion, error)
	ReorderQuestions(programID string, order []string) (bool, error)

	AddAudit(entry AuditEntry)
}

type ProgramService struct {
	store ProgramStore
	now   func() time.Time
	idGen func(n int) string
}

func NewProgramService(store ProgramStore) *ProgramService {
	return &ProgramService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *ProgramService) CreatePanchayath(name, district, actor string) (*Panchayath, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidError("name required")
	}
	p := &Panchayath{ID: s.idGen(8), Name: strings.TrimSpace(name), District: strings.TrimSpace(district)}
	created, err := s.store.InsertPanchayath(p)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_panchayath", Target: p.ID, Note: p.Name})
	if created == nil {
		return p, nil
	}
	return created, nil
}

func (s *ProgramService) ListPanchayaths() ([]*Panchayath, error) {
	return s.store.ListPanchayaths()
}

func (s *ProgramService) DeletePanchayath(id, actor string) error {
	if err := s.store.DeletePanchayath(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_panchayath", Target: id})
	return nil
}

func (s *ProgramService) CreateProgram(name, panchayathID string, verificationEnabled bool, actor string) (*Program, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidError("name required")
	}
	if panchayathID != "" {
		p, err := s.store.GetPanchayath(panchayathID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, NewNotFoundError("panchayath not found")
		}
	}
	pr := &Program{
		ID:                  s.idGen(8),
		Name:                strings.TrimSpace(name),
		PanchayathID:        panchayathID,
		VerificationEnabled: verificationEnabled,
		CreatedAt:           s.now(),
	}
	created, err := s.store.InsertProgram(pr)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_program", Target: pr.ID, Note: pr.Name})
	if created == nil {
		return pr, nil
	}
	return created, nil
}

func (s *ProgramService) GetProgram(id string) (*Program, error) {
	p, err := s.store.GetProgram(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("program not found")
	}
	return p, nil
}

func (s *ProgramService) ListPrograms() ([]*Program, error) {
	return s.store.ListPrograms()
}

// UpdateProgram applies a partial update from raw JSON-decoded fields, the same
// shape the admin screens send.
func (s *ProgramService) UpdateProgram(id string, raw map[string]any, actor string) error {
	old, err := s.store.GetProgram(id)
	if err != nil {
		return err
	}
	if old == nil {
		return NewNotFoundError("program not found")
	}
	updated := *old
	if v, ok := raw["name"].(string); ok && strings.TrimSpace(v) != "" {
		updated.Name = strings.TrimSpace(v)
	}
	if v, ok := raw["panchayath_id"].(string); ok {
		updated.PanchayathID = v
	}
	if v, ok := raw["verification_enabled"].(bool); ok {
		updated.VerificationEnabled = v
	}
	if err := s.store.UpdateProgram(&updated); err != nil {
		return err
	}
	if updated.VerificationEnabled != old.VerificationEnabled {
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "toggle_verification", Target: id, Note: strconv.FormatBool(updated.VerificationEnabled)})
	}
	return nil
}

func (s *ProgramService) DeleteProgram(id, actor string) error {
	if err := s.store.DeleteProgram(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_program", Target: id})
	return nil
}

func (s *ProgramService) CreateQuestion(q *FormQuestion, actor string) (*FormQuestion, error) {
	if q == nil {
		return nil, NewInvalidError("question required")
	}
	if strings.TrimSpace(q.ProgramID) == "" {
		return nil, NewInvalidError("program_id required")
	}
	if strings.TrimSpace(q.Label) == "" {
		return nil, NewInvalidError("label required")
	}
	pr, err := s.store.GetProgram(q.ProgramID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, NewNotFoundError("program not found")
	}
	if q.ID == "" {
		q.ID = s.idGen(8)
	}
	if q.Position == 0 {
		existing, err := s.store.ListQuestions(q.ProgramID)
		if err != nil {
			return nil, err
		}
		q.Position = len(existing) + 1
	}
	created, err := s.store.InsertQuestion(q)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_question", Target: q.ID, Note: q.ProgramID})
	if created == nil {
		return q, nil
	}
	return created, nil
}

// UpdateQuestion rewrites label and position; the program linkage never moves.
func (s *ProgramService) UpdateQuestion(q *FormQuestion) error {
	if q == nil {
		return NewInvalidError("question required")
	}
	old, err := s.store.GetQuestion(q.ID)
	if err != nil {
		return err
	}
	if old == nil {
		return NewNotFoundError("question not found")
	}
	updated := *old
	if strings.TrimSpace(q.Label) != "" {
		updated.Label = strings.TrimSpace(q.Label)
	}
	if q.Position > 0 {
		updated.Position = q.Position
	}
	return s.store.UpdateQuestion(&updated)
}

func (s *ProgramService) DeleteQuestion(id, actor string) error {
	if err := s.store.DeleteQuestion(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_question", Target: id})
	return nil
}

func (s *ProgramService) ListQuestions(programID string) ([]*FormQuestion, error) {
	return s.store.ListQuestions(programID)
}

func (s *ProgramService) ReorderQuestions(programID string, order []string, actor string) (int, error) {
	if len(order) == 0 {
		return 0, NewInvalidError("order required")
	}
	pr, err := s.store.GetProgram(programID)
	if err != nil {
		return 0, err
	}
	if pr == nil {
		return 0, NewNotFoundError("program not found")
	}
	ok, err := s.store.ReorderQuestions(programID, order)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NewInvalidError("reorder failed")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "reorder_questions", Target: programID, Note: strconv.Itoa(len(order))})
	return len(order), nil
}
