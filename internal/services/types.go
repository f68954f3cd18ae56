package services

import (
	"errors"
	"time"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Panchayath is a local administrative division scoping programs and agents.
type Panchayath struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	District string `json:"district,omitempty"`
}

// Program is a community program that collects registrations. Verification
// scoring only applies when VerificationEnabled is set.
type Program struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	PanchayathID        string    `json:"panchayath_id,omitempty"`
	VerificationEnabled bool      `json:"verification_enabled"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// FormQuestion is one rubric dimension of a program's registration form.
type FormQuestion struct {
	ID        string `json:"id"`
	ProgramID string `json:"program_id"`
	Label     string `json:"label"`
	Position  int    `json:"position"`
}

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
)

// Registration is one public submission against a program. The reserved fixed
// fields (name, mobile, panchayath, ward) live in named struct fields; Answers
// carries only rubric-question responses. Verification fields are written only
// by the verification workflow and are replaced wholesale on re-verification.
type Registration struct {
	ID           string            `json:"id"`
	ProgramID    string            `json:"program_id"`
	Name         string            `json:"name"`
	Mobile       string            `json:"mobile"`
	PanchayathID string            `json:"panchayath_id,omitempty"`
	Ward         string            `json:"ward,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	VerificationScores map[string]int     `json:"verification_scores,omitempty"`
	TotalScore         int                `json:"total_score,omitempty"`
	MaxScore           int                `json:"max_score,omitempty"`
	Percentage         float64            `json:"percentage,omitempty"`
	VerifiedBy         string             `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Agent is a node in the 4-level role tree. CustomerCount is authoritative
// only at pro nodes; ancestor totals are computed, never stored.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile,omitempty"`
	PanchayathID  string    `json:"panchayath_id,omitempty"`
	Ward          string    `json:"ward,omitempty"`
	Role          AgentRole `json:"role"`
	ParentAgentID string    `json:"parent_agent_id,omitempty"`
	CustomerCount int       `json:"customer_count,omitempty"`
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	Note   string    `json:"note,omitempty"`
}
