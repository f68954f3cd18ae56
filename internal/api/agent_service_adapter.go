package api

import "github.com/evamarketing/elife/internal/services"

type agentStoreAdapter struct {
	store Store
}

func newAgentStoreAdapter(store Store) services.AgentStore {
	return &agentStoreAdapter{store: store}
}

func (a *agentStoreAdapter) GetAgent(id string) (*services.Agent, error) {
	return a.store.GetAgent(id), nil
}

func (a *agentStoreAdapter) ListAgents() ([]*services.Agent, error) {
	return a.store.ListAgents(), nil
}

func (a *agentStoreAdapter) InsertAgent(ag *services.Agent) (*services.Agent, error) {
	a.store.AddAgent(ag)
	return a.store.GetAgent(ag.ID), nil
}

func (a *agentStoreAdapter) UpdateAgent(ag *services.Agent) error {
	if ag == nil {
		return services.NewInvalidError("agent required")
	}
	if ok := a.store.UpdateAgent(ag); !ok {
		return services.NewNotFoundError("agent not found")
	}
	return nil
}

func (a *agentStoreAdapter) DeleteAgent(id string) error {
	if ok := a.store.DeleteAgent(id); !ok {
		return services.NewNotFoundError("agent not found")
	}
	return nil
}

func (a *agentStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(entry)
}

var _ services.AgentStore = (*agentStoreAdapter)(nil)
