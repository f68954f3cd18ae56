package api

import "github.com/evamarketing/elife/internal/services"

type registrationStoreAdapter struct {
	store Store
}

func newRegistrationStoreAdapter(store Store) services.RegistrationStore {
	return &registrationStoreAdapter{store: store}
}

func (a *registrationStoreAdapter) GetProgram(id string) (*services.Program, error) {
	return a.store.GetProgram(id), nil
}

func (a *registrationStoreAdapter) ListQuestions(programID string) ([]*services.FormQuestion, error) {
	return a.store.ListQuestions(programID), nil
}

func (a *registrationStoreAdapter) GetRegistration(id string) (*services.Registration, error) {
	return a.store.GetRegistration(id), nil
}

func (a *registrationStoreAdapter) ListRegistrations(programID string) ([]*services.Registration, error) {
	return a.store.ListRegistrations(programID), nil
}

func (a *registrationStoreAdapter) InsertRegistration(r *services.Registration) (*services.Registration, error) {
	a.store.AddRegistration(r)
	return a.store.GetRegistration(r.ID), nil
}

func (a *registrationStoreAdapter) UpdateRegistrationVerification(id string, res *services.VerificationResult) (bool, error) {
	return a.store.UpdateRegistrationVerification(id, res), nil
}

func (a *registrationStoreAdapter) DeleteRegistration(id string) error {
	if ok := a.store.DeleteRegistration(id); !ok {
		return services.NewNotFoundError("registration not found")
	}
	return nil
}

func (a *registrationStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(entry)
}

var _ services.RegistrationStore = (*registrationStoreAdapter)(nil)
