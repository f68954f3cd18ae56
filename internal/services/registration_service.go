package services

import (
	"strings"
	"time"
)

// RegistrationStore abstracts persistence operations required by RegistrationService.
type RegistrationStore interface {
	GetProgram(id string) (*Program, error)
	ListQuestions(programID string) ([]*FormQuestion, error)
	GetRegistration(id string) (*Registration, error)
	ListRegistrations(programID string) ([]*Registration, error)
	InsertRegistration(r *Registration) (*Registration, error)
	UpdateRegistrationVerification(id string, res *VerificationResult) (bool, error)
	DeleteRegistration(id string) error
	AddAudit(entry AuditEntry)
}

// SubmitRegistrationRequest transports the sanitized public submission payload.
type SubmitRegistrationRequest struct {
	ProgramID    string
	Name         string
	Mobile       string
	PanchayathID string
	Ward         string
	Answers      map[string]string
}

// RegistrationView is a registration decorated with its display tier. All list
// and detail screens receive the tier from here so the classification rule
// cannot drift between call sites.
type RegistrationView struct {
	Registration
	Tier Tier `json:"tier,omitempty"`
}

type RegistrationService struct {
	store RegistrationStore
	now   func() time.Time
	idGen func(n int) string
}

func NewRegistrationService(store RegistrationStore) *RegistrationService {
	return &RegistrationService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

// Submit handles the public registration workflow. Answers keyed by unknown
// question ids are dropped rather than rejected: stale public forms may still
// carry questions an admin has since removed.
func (s *RegistrationService) Submit(req SubmitRegistrationRequest) (*Registration, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewInvalidError("name required")
	}
	if strings.TrimSpace(req.Mobile) == "" {
		return nil, NewInvalidError("mobile required")
	}
	pr, err := s.store.GetProgram(req.ProgramID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, NewNotFoundError("program not found")
	}
	questions, err := s.store.ListQuestions(req.ProgramID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	answers := make(map[string]string, len(req.Answers))
	for qid, v := range req.Answers {
		if _, ok := known[qid]; ok {
			answers[qid] = v
		}
	}
	reg := &Registration{
		ID:                 s.idGen(12),
		ProgramID:          req.ProgramID,
		Name:               strings.TrimSpace(req.Name),
		Mobile:             strings.TrimSpace(req.Mobile),
		PanchayathID:       req.PanchayathID,
		Ward:               strings.TrimSpace(req.Ward),
		Answers:            answers,
		VerificationStatus: StatusPending,
		CreatedAt:          s.now(),
	}
	created, err := s.store.InsertRegistration(reg)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return reg, nil
	}
	return created, nil
}

// Verify runs the scoring engine against the registration's program rubric and
// persists the result. Re-verifying replaces the previous result wholesale; the
// registration stays pending whenever scoring rejects the input.
func (s *RegistrationService) Verify(registrationID string, scores map[string]int, actor string) (*RegistrationView, error) {
	reg, err := s.store.GetRegistration(registrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewNotFoundError("registration not found")
	}
	pr, err := s.store.GetProgram(reg.ProgramID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, NewNotFoundError("program not found")
	}
	if !pr.VerificationEnabled {
		return nil, NewInvalidError("verification is not enabled for this program")
	}
	questions, err := s.store.ListQuestions(reg.ProgramID)
	if err != nil {
		return nil, err
	}
	res, err := ScoreVerification(questions, scores, actor, s.now())
	if err != nil {
		return nil, err
	}
	ok, err := s.store.UpdateRegistrationVerification(registrationID, res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewNotFoundError("registration not found")
	}
	s.store.AddAudit(AuditEntry{Time: res.VerifiedAt, Actor: actor, Action: "verify_registration", Target: registrationID, Note: string(Classify(res.Percentage))})

	updated := *reg
	updated.VerificationStatus = res.Status
	updated.VerificationScores = res.Scores
	updated.TotalScore = res.TotalScore
	updated.MaxScore = res.MaxScore
	updated.Percentage = res.Percentage
	updated.VerifiedBy = res.VerifiedBy
	at := res.VerifiedAt
	updated.VerifiedAt = &at
	return decorate(&updated), nil
}

func (s *RegistrationService) Get(id string) (*RegistrationView, error) {
	reg, err := s.store.GetRegistration(id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewNotFoundError("registration not found")
	}
	return decorate(reg), nil
}

// List returns a program's registrations, newest first, each carrying its tier.
func (s *RegistrationService) List(programID string) ([]*RegistrationView, error) {
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
	out := make([]*RegistrationView, 0, len(regs))
	for _, r := range regs {
		out = append(out, decorate(r))
	}
	return out, nil
}

func (s *RegistrationService) Delete(id, actor string) error {
	if err := s.store.DeleteRegistration(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_registration", Target: id})
	return nil
}

func decorate(reg *Registration) *RegistrationView {
	v := &RegistrationView{Registration: *reg}
	if reg.VerificationStatus == StatusVerified {
		v.Tier = Classify(reg.Percentage)
	}
	return v
}
