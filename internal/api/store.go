package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/evamarketing/elife/internal/services"
)

type memoryStore struct {
	mu            sync.RWMutex
	panchayaths   map[string]*services.Panchayath
	programs      map[string]*services.Program
	questions     map[string]*services.FormQuestion
	registrations map[string]*services.Registration
	agents        map[string]*services.Agent
	adminsByEmail map[string]*services.Admin
	audit         []services.AuditEntry

	snapshotPath string // best-effort JSON persistence when non-empty
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		panchayaths:   map[string]*services.Panchayath{},
		programs:      map[string]*services.Program{},
		questions:     map[string]*services.FormQuestion{},
		registrations: map[string]*services.Registration{},
		agents:        map[string]*services.Agent{},
		adminsByEmail: map[string]*services.Admin{},
		audit:         []services.AuditEntry{},
	}
}

func (s *memoryStore) AddPanchayath(p *services.Panchayath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panchayaths[p.ID] = p
	s.persistLocked()
}

func (s *memoryStore) GetPanchayath(id string) *services.Panchayath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panchayaths[id]
}

func (s *memoryStore) ListPanchayaths() []*services.Panchayath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Panchayath, 0, len(s.panchayaths))
	for _, p := range s.panchayaths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *memoryStore) DeletePanchayath(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.panchayaths[id]; !ok {
		return false
	}
	delete(s.panchayaths, id)
	s.persistLocked()
	return true
}

func (s *memoryStore) AddProgram(p *services.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ID] = p
	s.persistLocked()
}

func (s *memoryStore) GetProgram(id string) *services.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.programs[id]
}

func (s *memoryStore) UpdateProgram(p *services.Program) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[p.ID]; !ok {
		return false
	}
	s.programs[p.ID] = p
	s.persistLocked()
	return true
}

func (s *memoryStore) DeleteProgram(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[id]; !ok {
		return false
	}
	delete(s.programs, id)
	for qid, q := range s.questions {
		if q.ProgramID == id {
			delete(s.questions, qid)
		}
	}
	s.persistLocked()
	return true
}

func (s *memoryStore) ListPrograms() []*services.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Program, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddQuestion(q *services.FormQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	s.persistLocked()
}

func (s *memoryStore) GetQuestion(id string) *services.FormQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[id]
}

func (s *memoryStore) UpdateQuestion(q *services.FormQuestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return false
	}
	s.questions[q.ID] = q
	s.persistLocked()
	return true
}

func (s *memoryStore) DeleteQuestion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return false
	}
	delete(s.questions, id)
	s.persistLocked()
	return true
}

func (s *memoryStore) ListQuestions(programID string) []*services.FormQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.FormQuestion{}
	for _, q := range s.questions {
		if q.ProgramID == programID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memoryStore) ReorderQuestions(programID string, order []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := 1
	for _, id := range order {
		q, ok := s.questions[id]
		if !ok || q.ProgramID != programID {
			return false
		}
		q.Position = pos
		pos++
	}
	s.persistLocked()
	return true
}

func (s *memoryStore) AddRegistration(r *services.Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[r.ID] = r
	s.persistLocked()
}

func (s *memoryStore) GetRegistration(id string) *services.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registrations[id]
}

func (s *memoryStore) ListRegistrations(programID string) []*services.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Registration{}
	for _, r := range s.registrations {
		if r.ProgramID == programID {
			out = append(out, r)
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memoryStore) UpdateRegistrationVerification(id string, res *services.VerificationResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return false
	}
	r.VerificationStatus = res.Status
	r.VerificationScores = res.Scores
	r.TotalScore = res.TotalScore
	r.MaxScore = res.MaxScore
	r.Percentage = res.Percentage
	r.VerifiedBy = res.VerifiedBy
	at := res.VerifiedAt
	r.VerifiedAt = &at
	s.persistLocked()
	return true
}

func (s *memoryStore) DeleteRegistration(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		return false
	}
	delete(s.registrations, id)
	s.persistLocked()
	return true
}

func (s *memoryStore) AddAgent(a *services.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
	s.persistLocked()
}

func (s *memoryStore) GetAgent(id string) *services.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agents[id]
}

func (s *memoryStore) UpdateAgent(a *services.Agent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[a.ID]; !ok {
		return false
	}
	s.agents[a.ID] = a
	s.persistLocked()
	return true
}

func (s *memoryStore) DeleteAgent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return false
	}
	delete(s.agents, id)
	s.persistLocked()
	return true
}

func (s *memoryStore) ListAgents() []*services.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddAdmin(a *services.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := s.adminsByEmail[key]; ok {
		return services.NewConflictError("email exists")
	}
	s.adminsByEmail[key] = a
	s.persistLocked()
	return nil
}

func (s *memoryStore) FindAdminByEmail(email string) *services.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminsByEmail[strings.ToLower(email)]
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.persistLocked()
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
