package services

import (
	"strconv"
	"strings"
	"time"
)

type AgentStore interface {
	GetAgent(id string) (*Agent, error)
	ListAgents() ([]*Agent, error)
	InsertAgent(a *Agent) (*Agent, error)
	UpdateAgent(a *Agent) error
	DeleteAgent(id string) error
	AddAudit(entry AuditEntry)
}

// DeleteMode is the explicit policy for deleting an agent that has reports.
type DeleteMode string

const (
	// DeleteRefuse rejects deletion when direct reports exist.
	DeleteRefuse DeleteMode = ""
	// DeleteCascade removes the agent together with its whole subtree.
	DeleteCascade DeleteMode = "cascade"
)

// AgentRollup is an agent decorated with its computed subtree aggregates.
type AgentRollup struct {
	Agent          Agent `json:"agent"`
	DirectReports  int   `json:"direct_reports"`
	TotalCustomers int   `json:"total_customers"`
}

type AgentService struct {
	store AgentStore
	now   func() time.Time
	idGen func(n int) string
}

func NewAgentService(store AgentStore) *AgentService {
	return &AgentService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

// Create validates the placement invariant before persisting a new agent.
func (s *AgentService) Create(a *Agent, actor string) (*Agent, error) {
	if a == nil {
		return nil, NewInvalidError("agent required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, NewInvalidError("name required")
	}
	parent, err := s.resolveParent(a.ParentAgentID)
	if err != nil {
		return nil, err
	}
	if err := ValidatePlacement(parent, a.Role); err != nil {
		return nil, err
	}
	if a.Role != RolePro {
		a.CustomerCount = 0
	}
	if a.ID == "" {
		a.ID = s.idGen(8)
	}
	created, err := s.store.InsertAgent(a)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_agent", Target: a.ID, Note: string(a.Role)})
	if created == nil {
		return a, nil
	}
	return created, nil
}

// Update applies edits to an existing agent. A parent change re-runs placement
// validation; the role level itself is fixed at creation.
func (s *AgentService) Update(id string, raw map[string]any, actor string) (*Agent, error) {
	old, err := s.store.GetAgent(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("agent not found")
	}
	updated := *old
	if v, ok := raw["name"].(string); ok && strings.TrimSpace(v) != "" {
		updated.Name = strings.TrimSpace(v)
	}
	if v, ok := raw["mobile"].(string); ok {
		updated.Mobile = strings.TrimSpace(v)
	}
	if v, ok := raw["panchayath_id"].(string); ok {
		updated.PanchayathID = v
	}
	if v, ok := raw["ward"].(string); ok {
		updated.Ward = strings.TrimSpace(v)
	}
	if v, ok := raw["role"].(string); ok && AgentRole(v) != old.Role {
		return nil, NewInvalidError("role cannot be changed after creation")
	}
	if v, ok := raw["customer_count"].(float64); ok {
		if old.Role != RolePro {
			return nil, NewInvalidError("customer_count is only tracked for pro agents")
		}
		if v < 0 {
			return nil, NewInvalidError("customer_count cannot be negative")
		}
		updated.CustomerCount = int(v)
	}
	if v, ok := raw["parent_agent_id"].(string); ok && v != old.ParentAgentID {
		parent, err := s.resolveParent(v)
		if err != nil {
			return nil, err
		}
		if err := ValidatePlacement(parent, old.Role); err != nil {
			return nil, err
		}
		updated.ParentAgentID = v
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "move_agent", Target: id, Note: v})
	}
	if err := s.store.UpdateAgent(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an agent. With no mode it refuses when direct reports exist;
// cascade removes the whole subtree. Either way no dangling parent reference
// survives the operation.
func (s *AgentService) Delete(id string, mode DeleteMode, actor string) (int, error) {
	a, err := s.store.GetAgent(id)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, NewNotFoundError("agent not found")
	}
	agents, err := s.store.ListAgents()
	if err != nil {
		return 0, err
	}
	index := NewChildIndex(agents)
	reports := DirectReportCount(a, index)

	switch mode {
	case DeleteRefuse:
		if reports > 0 {
			return 0, NewConflictError("agent has " + strconv.Itoa(reports) + " direct reports; delete them first or use cascade")
		}
		if err := s.store.DeleteAgent(id); err != nil {
			return 0, err
		}
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_agent", Target: id})
		return 1, nil
	case DeleteCascade:
		ids, err := subtreeIDs(a, index)
		if err != nil {
			return 0, err
		}
		// Children first so a failure mid-way never leaves an orphan.
		for i := len(ids) - 1; i >= 0; i-- {
			if err := s.store.DeleteAgent(ids[i]); err != nil {
				return 0, err
			}
		}
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_agent_cascade", Target: id, Note: strconv.Itoa(len(ids))})
		return len(ids), nil
	default:
		return 0, NewInvalidError("unknown delete mode " + string(mode))
	}
}

func (s *AgentService) Get(id string) (*Agent, error) {
	a, err := s.store.GetAgent(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("agent not found")
	}
	return a, nil
}

func (s *AgentService) List() ([]*Agent, error) {
	return s.store.ListAgents()
}

// Rollup computes the subtree aggregates for one agent.
func (s *AgentService) Rollup(id string) (*AgentRollup, error) {
	a, err := s.store.GetAgent(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("agent not found")
	}
	agents, err := s.store.ListAgents()
	if err != nil {
		return nil, err
	}
	index := NewChildIndex(agents)
	total, err := TotalDescendantCustomers(a, index)
	if err != nil {
		return nil, err
	}
	return &AgentRollup{Agent: *a, DirectReports: DirectReportCount(a, index), TotalCustomers: total}, nil
}

func (s *AgentService) resolveParent(parentID string) (*Agent, error) {
	if parentID == "" {
		return nil, nil
	}
	parent, err := s.store.GetAgent(parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, NewNotFoundError("parent agent not found")
	}
	return parent, nil
}

// subtreeIDs lists the subtree top-down, parents before children. Depth is
// bounded like the rollup so cyclic data fails instead of looping.
func subtreeIDs(root *Agent, index ChildIndex) ([]string, error) {
	var walk func(a *Agent, depth int) ([]string, error)
	walk = func(a *Agent, depth int) ([]string, error) {
		if depth <= 0 {
			return nil, &CycleDetectedError{AgentID: a.ID}
		}
		out := []string{a.ID}
		for _, child := range index[a.ID] {
			ids, err := walk(child, depth-1)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	}
	return walk(root, len(roleOrder))
}
