package api

import "github.com/evamarketing/elife/internal/services"

type dashboardStoreAdapter struct {
	store Store
}

func newDashboardStoreAdapter(store Store) services.DashboardStore {
	return &dashboardStoreAdapter{store: store}
}

func (a *dashboardStoreAdapter) GetProgram(id string) (*services.Program, error) {
	return a.store.GetProgram(id), nil
}

func (a *dashboardStoreAdapter) ListRegistrations(programID string) ([]*services.Registration, error) {
	return a.store.ListRegistrations(programID), nil
}

func (a *dashboardStoreAdapter) ListAgents() ([]*services.Agent, error) {
	return a.store.ListAgents(), nil
}

var _ services.DashboardStore = (*dashboardStoreAdapter)(nil)
