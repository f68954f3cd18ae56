package api

import "github.com/evamarketing/elife/internal/services"

type programStoreAdapter struct {
	store Store
}

func newProgramStoreAdapter(store Store) services.ProgramStore {
	return &programStoreAdapter{store: store}
}

func (a *programStoreAdapter) InsertPanchayath(p *services.Panchayath) (*services.Panchayath, error) {
	a.store.AddPanchayath(p)
	return a.store.GetPanchayath(p.ID), nil
}

func (a *programStoreAdapter) GetPanchayath(id string) (*services.Panchayath, error) {
	return a.store.GetPanchayath(id), nil
}

func (a *programStoreAdapter) ListPanchayaths() ([]*services.Panchayath, error) {
	return a.store.ListPanchayaths(), nil
}

func (a *programStoreAdapter) DeletePanchayath(id string) error {
	if ok := a.store.DeletePanchayath(id); !ok {
		return services.NewNotFoundError("panchayath not found")
	}
	return nil
}

func (a *programStoreAdapter) InsertProgram(p *services.Program) (*services.Program, error) {
	a.store.AddProgram(p)
	return a.store.GetProgram(p.ID), nil
}

func (a *programStoreAdapter) GetProgram(id string) (*services.Program, error) {
	return a.store.GetProgram(id), nil
}

func (a *programStoreAdapter) UpdateProgram(p *services.Program) error {
	if p == nil {
		return services.NewInvalidError("program required")
	}
	if ok := a.store.UpdateProgram(p); !ok {
		return services.NewNotFoundError("program not found")
	}
	return nil
}

func (a *programStoreAdapter) DeleteProgram(id string) error {
	if ok := a.store.DeleteProgram(id); !ok {
		return services.NewNotFoundError("program not found")
	}
	return nil
}

func (a *programStoreAdapter) ListPrograms() ([]*services.Program, error) {
	return a.store.ListPrograms(), nil
}

func (a *programStoreAdapter) InsertQuestion(q *services.FormQuestion) (*services.FormQuestion, error) {
	a.store.AddQuestion(q)
	return a.store.GetQuestion(q.ID), nil
}

func (a *programStoreAdapter) GetQuestion(id string) (*services.FormQuestion, error) {
	return a.store.GetQuestion(id), nil
}

func (a *programStoreAdapter) UpdateQuestion(q *services.FormQuestion) error {
	if q == nil {
		return services.NewInvalidError("question required")
	}
	if ok := a.store.UpdateQuestion(q); !ok {
		return services.NewNotFoundError("question not found")
	}
	return nil
}

func (a *programStoreAdapter) DeleteQuestion(id string) error {
	if ok := a.store.DeleteQuestion(id); !ok {
		return services.NewNotFoundError("question not found")
	}
	return nil
}

func (a *programStoreAdapter) ListQuestions(programID string) ([]*services.FormQuestion, error) {
	return a.store.ListQuestions(programID), nil
}

func (a *programStoreAdapter) ReorderQuestions(programID string, order []string) (bool, error) {
	return a.store.ReorderQuestions(programID, order), nil
}

func (a *programStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(entry)
}

var _ services.ProgramStore = (*programStoreAdapter)(nil)
