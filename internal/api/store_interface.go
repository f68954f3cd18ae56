package api

import "github.com/evamarketing/elife/internal/services"

// Store is the persistence surface shared by the in-memory and sqlite
// backends. Mutations report success with a bool; the service adapters turn
// those into typed errors.
type Store interface {
	AddPanchayath(p *services.Panchayath)
	GetPanchayath(id string) *services.Panchayath
	ListPanchayaths() []*services.Panchayath
	DeletePanchayath(id string) bool

	AddProgram(p *services.Program)
	GetProgram(id string) *services.Program
	UpdateProgram(p *services.Program) bool
	DeleteProgram(id string) bool
	ListPrograms() []*services.Program

	AddQuestion(q *services.FormQuestion)
	GetQuestion(id string) *services.FormQuestion
	UpdateQuestion(q *services.FormQuestion) bool
	DeleteQuestion(id string) bool
	ListQuestions(programID string) []*services.FormQuestion
	ReorderQuestions(programID string, order []string) bool

	AddRegistration(r *services.Registration)
	GetRegistration(id string) *services.Registration
	ListRegistrations(programID string) []*services.Registration
	UpdateRegistrationVerification(id string, res *services.VerificationResult) bool
	DeleteRegistration(id string) bool

	AddAgent(a *services.Agent)
	GetAgent(id string) *services.Agent
	UpdateAgent(a *services.Agent) bool
	DeleteAgent(id string) bool
	ListAgents() []*services.Agent

	AddAdmin(a *services.Admin) error
	FindAdminByEmail(email string) *services.Admin

	AddAudit(e services.AuditEntry)
	ListAudit() []services.AuditEntry
}

var _ Store = (*memoryStore)(nil)
