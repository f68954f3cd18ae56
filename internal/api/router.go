package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/evamarketing/elife/internal/middleware"
	"github.com/evamarketing/elife/internal/services"
)

// Router wires the HTTP surface to the service layer. Handlers stay thin:
// decode, delegate, encode. All policy lives in the services.
type Router struct {
	store    Store
	programs *services.ProgramService
	regs     *services.RegistrationService
	agents   *services.AgentService
	dash     *services.DashboardService
	auth     *services.AuthService
}

func NewRouter(store Store, signer services.TokenSigner) *Router {
	return &Router{
		store:    store,
		programs: services.NewProgramService(newProgramStoreAdapter(store)),
		regs:     services.NewRegistrationService(newRegistrationStoreAdapter(store)),
		agents:   services.NewAgentService(newAgentStoreAdapter(store)),
		dash:     services.NewDashboardService(newDashboardStoreAdapter(store)),
		auth:     services.NewAuthService(newAuthStoreAdapter(store), signer),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", rt.handleAuthLogin)

	mux.Handle("/api/panchayaths", middleware.RequireAuth(http.HandlerFunc(rt.handlePanchayaths)))
	mux.Handle("/api/panchayaths/", middleware.RequireAuth(http.HandlerFunc(rt.handlePanchayathByID)))

	mux.HandleFunc("/api/programs", rt.handlePrograms)
	mux.HandleFunc("/api/programs/", rt.handleProgramSubtree)

	mux.Handle("/api/questions/", middleware.RequireAuth(http.HandlerFunc(rt.handleQuestionByID)))

	mux.HandleFunc("/api/registrations", rt.handleRegistrations)
	mux.HandleFunc("/api/registrations/", rt.handleRegistrationSubtree)

	mux.Handle("/api/agents", middleware.RequireAuth(http.HandlerFunc(rt.handleAgents)))
	mux.Handle("/api/agents/", middleware.RequireAuth(http.HandlerFunc(rt.handleAgentSubtree)))

	mux.Handle("/api/dashboard/agents", middleware.RequireAuth(http.HandlerFunc(rt.handleAgentDashboard)))
	mux.Handle("/api/audit", middleware.RequireAuth(http.HandlerFunc(rt.handleAudit)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, errBody{Error: se.Message, Code: string(se.Code)})
		return
	}
	var scoreErr *services.InvalidScoreError
	var roleErr *services.RoleOrderViolationError
	var parentErr *services.MissingParentError
	if errors.As(err, &scoreErr) || errors.As(err, &roleErr) || errors.As(err, &parentErr) {
		writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
		return
	}
	var cycleErr *services.CycleDetectedError
	if errors.As(err, &cycleErr) {
		// Cycles indicate corrupted stored data, not a bad request.
		log.Printf("api: %v", err)
		writeJSON(w, http.StatusInternalServerError, errBody{Error: err.Error()})
		return
	}
	log.Printf("api: internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errBody{Error: "internal error"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid JSON body"})
		return false
	}
	return true
}

// actor returns the authenticated admin for handlers on mixed public/admin
// subtrees, writing a 401 when the request carries no valid token.
func (rt *Router) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody{Error: "authentication required"})
		return "", false
	}
	return actor, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errBody{Error: "method not allowed"})
}

// --- auth ---

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string `json:"token"`
	AdminID string `json:"admin_id"`
}

func (rt *Router) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req authRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, AdminID: res.AdminID})
}

func (rt *Router) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req authRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, AdminID: res.AdminID})
}

// --- panchayaths ---

func (rt *Router) handlePanchayaths(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		list, err := rt.programs.ListPanchayaths()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req struct {
			Name     string `json:"name"`
			District string `json:"district"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := rt.programs.CreatePanchayath(req.Name, req.District, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handlePanchayathByID(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	id := strings.TrimPrefix(r.URL.Path, "/api/panchayaths/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := rt.programs.DeletePanchayath(id, actor); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- programs ---

func (rt *Router) handlePrograms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := rt.programs.ListPrograms()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		actor, ok := rt.actor(w, r)
		if !ok {
			return
		}
		var req struct {
			Name                string `json:"name"`
			PanchayathID        string `json:"panchayath_id"`
			VerificationEnabled bool   `json:"verification_enabled"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := rt.programs.CreateProgram(req.Name, req.PanchayathID, req.VerificationEnabled, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w)
	}
}

// handleProgramSubtree dispatches /api/programs/{id} and its nested resources.
// Question listing stays public so the registration form can render without a
// token; everything else needs an authenticated admin.
func (rt *Router) handleProgramSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/programs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			p, err := rt.programs.GetProgram(id)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
		case http.MethodPatch:
			actor, ok := rt.actor(w, r)
			if !ok {
				return
			}
			var raw map[string]any
			if !decodeBody(w, r, &raw) {
				return
			}
			if err := rt.programs.UpdateProgram(id, raw, actor); err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		case http.MethodDelete:
			actor, ok := rt.actor(w, r)
			if !ok {
				return
			}
			if err := rt.programs.DeleteProgram(id, actor); err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "questions":
		rt.handleProgramQuestions(w, r, id)
	case "reorder":
		rt.handleReorderQuestions(w, r, id)
	case "registrations":
		rt.handleProgramRegistrations(w, r, id)
	case "summary":
		rt.handleProgramSummary(w, r, id)
	case "export":
		rt.handleProgramExport(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleProgramQuestions(w http.ResponseWriter, r *http.Request, programID string) {
	switch r.Method {
	case http.MethodGet:
		qs, err := rt.programs.ListQuestions(programID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	case http.MethodPost:
		actor, ok := rt.actor(w, r)
		if !ok {
			return
		}
		var req struct {
			Label    string `json:"label"`
			Position int    `json:"position"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		q := &services.FormQuestion{ProgramID: programID, Label: req.Label, Position: req.Position}
		created, err := rt.programs.CreateQuestion(q, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleReorderQuestions(w http.ResponseWriter, r *http.Request, programID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Order []string `json:"order"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := rt.programs.ReorderQuestions(programID, req.Order, actor)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reordered": n})
}

func (rt *Router) handleProgramRegistrations(w http.ResponseWriter, r *http.Request, programID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	list, err := rt.regs.List(programID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleProgramSummary(w http.ResponseWriter, r *http.Request, programID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	sum, err := rt.dash.ProgramSummary(programID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (rt *Router) handleProgramExport(w http.ResponseWriter, r *http.Request, programID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	views, err := rt.regs.List(programID)
	if err != nil {
		writeErr(w, err)
		return
	}
	regs := make([]*services.Registration, 0, len(views))
	for _, v := range views {
		regs = append(regs, &v.Registration)
	}

	var data []byte
	switch format := r.URL.Query().Get("format"); format {
	case "", "long":
		data, err = services.ExportLongCSV(regs)
	case "wide":
		var questions []*services.FormQuestion
		questions, err = rt.programs.ListQuestions(programID)
		if err == nil {
			data, err = services.ExportWideCSV(regs, questions)
		}
	default:
		writeJSON(w, http.StatusBadRequest, errBody{Error: "unknown export format: " + format})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="registrations-`+programID+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("api: write export: %v", err)
	}
}

// --- questions ---

func (rt *Router) handleQuestionByID(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	id := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req struct {
			ProgramID string `json:"program_id"`
			Label     string `json:"label"`
			Position  int    `json:"position"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		q := &services.FormQuestion{ID: id, ProgramID: req.ProgramID, Label: req.Label, Position: req.Position}
		if err := rt.programs.UpdateQuestion(q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := rt.programs.DeleteQuestion(id, actor); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// --- registrations ---

func (rt *Router) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ProgramID    string            `json:"program_id"`
		Name         string            `json:"name"`
		Mobile       string            `json:"mobile"`
		PanchayathID string            `json:"panchayath_id"`
		Ward         string            `json:"ward"`
		Answers      map[string]string `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	reg, err := rt.regs.Submit(services.SubmitRegistrationRequest{
		ProgramID:    req.ProgramID,
		Name:         req.Name,
		Mobile:       req.Mobile,
		PanchayathID: req.PanchayathID,
		Ward:         req.Ward,
		Answers:      req.Answers,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (rt *Router) handleRegistrationSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/registrations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}

	if len(parts) == 2 && parts[1] == "verify" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Scores map[string]int `json:"scores"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		view, err := rt.regs.Verify(id, req.Scores, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := rt.regs.Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		if err := rt.regs.Delete(id, actor); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// --- agents ---

func (rt *Router) handleAgents(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		list, err := rt.agents.List()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req services.Agent
		if !decodeBody(w, r, &req) {
			return
		}
		created, err := rt.agents.Create(&req, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleAgentSubtree(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	rest := strings.TrimPrefix(r.URL.Path, "/api/agents/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "rollup" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		rollup, err := rt.agents.Rollup(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rollup)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := rt.agents.Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodPatch:
		var raw map[string]any
		if !decodeBody(w, r, &raw) {
			return
		}
		updated, err := rt.agents.Update(id, raw, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		mode := services.DeleteRefuse
		if r.URL.Query().Get("mode") == "cascade" {
			mode = services.DeleteCascade
		}
		removed, err := rt.agents.Delete(id, mode, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleAgentDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sum, err := rt.dash.AgentTreeSummary()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- audit ---

func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, rt.store.ListAudit())
}
