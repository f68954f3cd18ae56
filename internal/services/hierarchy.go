package services

import "fmt"

// AgentRole is one level of the fixed role tree. The order is strict: each
// level's children must be exactly the next level down.
type AgentRole string

const (
	RoleTeamLeader  AgentRole = "team_leader"
	RoleCoordinator AgentRole = "coordinator"
	RoleGroupLeader AgentRole = "group_leader"
	RolePro         AgentRole = "pro"
)

// roleOrder lists the levels top-down.
var roleOrder = []AgentRole{RoleTeamLeader, RoleCoordinator, RoleGroupLeader, RolePro}

// ValidRole reports whether r names one of the four levels.
func ValidRole(r AgentRole) bool {
	for _, lvl := range roleOrder {
		if lvl == r {
			return true
		}
	}
	return false
}

// ChildRole returns the level directly below r, or "" for the leaf level.
func ChildRole(r AgentRole) AgentRole {
	for i, lvl := range roleOrder {
		if lvl == r && i+1 < len(roleOrder) {
			return roleOrder[i+1]
		}
	}
	return ""
}

// CycleDetectedError signals corrupted agent data: the rollup descended deeper
// than the role tree allows, which is only possible with a parent cycle.
type CycleDetectedError struct {
	AgentID string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in agent hierarchy at %s", e.AgentID)
}

// RoleOrderViolationError reports a parent/child pairing that skips levels.
type RoleOrderViolationError struct {
	ParentRole AgentRole
	ChildRole  AgentRole
}

func (e *RoleOrderViolationError) Error() string {
	return fmt.Sprintf("role %s cannot report to %s", e.ChildRole, e.ParentRole)
}

// MissingParentError reports a non-root role created without a parent.
type MissingParentError struct {
	Role AgentRole
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("role %s requires a parent agent", e.Role)
}

// ChildIndex maps parent agent id to direct children. Build it once per query
// batch so each rollup walks only its subtree instead of rescanning all agents.
type ChildIndex map[string][]*Agent

func NewChildIndex(agents []*Agent) ChildIndex {
	idx := make(ChildIndex, len(agents))
	for _, a := range agents {
		if a.ParentAgentID != "" {
			idx[a.ParentAgentID] = append(idx[a.ParentAgentID], a)
		}
	}
	return idx
}

// TotalDescendantCustomers sums customer counts over the subtree rooted at
// agent. A pro node contributes its own count; every other node contributes the
// recursive sum over its direct children. Recursion is bounded by the number of
// role levels, so corrupted data with a parent cycle fails with
// CycleDetectedError instead of looping.
func TotalDescendantCustomers(agent *Agent, index ChildIndex) (int, error) {
	return descendantCustomers(agent, index, len(roleOrder))
}

func descendantCustomers(agent *Agent, index ChildIndex, depth int) (int, error) {
	if depth <= 0 {
		return 0, &CycleDetectedError{AgentID: agent.ID}
	}
	if agent.Role == RolePro {
		return agent.CustomerCount, nil
	}
	total := 0
	for _, child := range index[agent.ID] {
		n, err := descendantCustomers(child, index, depth-1)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// DirectReportCount counts an agent's immediate children.
func DirectReportCount(agent *Agent, index ChildIndex) int {
	return len(index[agent.ID])
}

// ValidatePlacement enforces the level-order adjacency invariant before an
// agent create or move is persisted. A team_leader takes no parent; every
// other role requires a parent exactly one level up.
func ValidatePlacement(parent *Agent, role AgentRole) error {
	if !ValidRole(role) {
		return NewInvalidError(fmt.Sprintf("unknown role %q", role))
	}
	if role == RoleTeamLeader {
		if parent != nil {
			return &RoleOrderViolationError{ParentRole: parent.Role, ChildRole: role}
		}
		return nil
	}
	if parent == nil {
		return &MissingParentError{Role: role}
	}
	if ChildRole(parent.Role) != role {
		return &RoleOrderViolationError{ParentRole: parent.Role, ChildRole: role}
	}
	return nil
}
