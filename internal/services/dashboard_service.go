package services

import "sort"

type DashboardStore interface {
	GetProgram(id string) (*Program, error)
	ListRegistrations(programID string) ([]*Registration, error)
	ListAgents() ([]*Agent, error)
}

type DashboardService struct {
	store DashboardStore
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store}
}

type DashboardTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ProgramSummary aggregates one program's registrations for the admin
// dashboard. Tier counts come from Classify so the dashboard can never
// disagree with the list screens.
type ProgramSummary struct {
	ProgramID  string                `json:"program_id"`
	Total      int                   `json:"total"`
	Pending    int                   `json:"pending"`
	Verified   int                   `json:"verified"`
	Tiers      map[Tier]int          `json:"tiers"`
	Timeseries []DashboardTimeseries `json:"timeseries"`
}

func (s *DashboardService) ProgramSummary(programID string) (*ProgramSummary, error) {
	pr, err := s.store.GetProgram(programID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, NewNotFoundError("program not found")
	}
	regs, err := s.store.ListRegistrations(programID)
	if err != nil {
		return nil, err
	}
	summary := &ProgramSummary{
		ProgramID: programID,
		Tiers:     map[Tier]int{TierHigh: 0, TierMedium: 0, TierLow: 0},
	}
	countsByDay := map[string]int{}
	for _, r := range regs {
		summary.Total++
		switch r.VerificationStatus {
		case StatusVerified:
			summary.Verified++
			summary.Tiers[Classify(r.Percentage)]++
		default:
			summary.Pending++
		}
		day := r.CreatedAt.UTC().Format("2006-01-02")
		countsByDay[day]++
	}
	summary.Timeseries = buildTimeseries(countsByDay)
	return summary, nil
}

// AgentTreeSummary lists every team leader with its computed subtree totals.
type AgentTreeSummary struct {
	Teams          []AgentRollup `json:"teams"`
	TotalAgents    int           `json:"total_agents"`
	TotalCustomers int           `json:"total_customers"`
}

func (s *DashboardService) AgentTreeSummary() (*AgentTreeSummary, error) {
	agents, err := s.store.ListAgents()
	if err != nil {
		return nil, err
	}
	index := NewChildIndex(agents)
	summary := &AgentTreeSummary{TotalAgents: len(agents)}
	for _, a := range agents {
		if a.Role != RoleTeamLeader {
			continue
		}
		total, err := TotalDescendantCustomers(a, index)
		if err != nil {
			return nil, err
		}
		summary.Teams = append(summary.Teams, AgentRollup{Agent: *a, DirectReports: DirectReportCount(a, index), TotalCustomers: total})
		summary.TotalCustomers += total
	}
	sort.Slice(summary.Teams, func(i, j int) bool { return summary.Teams[i].Agent.ID < summary.Teams[j].Agent.ID })
	return summary, nil
}

func buildTimeseries(counts map[string]int) []DashboardTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DashboardTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, DashboardTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
