package db

import (
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/evamarketing/elife/internal/api"
	"github.com/evamarketing/elife/internal/services"
)

var _ api.Store = (*SQLiteStore)(nil)

// SQLiteStore is the durable backend. It satisfies the same Store surface as
// the in-memory map store; query errors are logged and reported as absent
// rows or failed mutations, matching the bool-based contract.
type SQLiteStore struct {
	conn *sql.DB
}

// Open opens (or creates) the sqlite database at path, applies migrations and
// returns a ready store. migrationsDir overrides the embedded migrations when
// non-empty.
func Open(path, migrationsDir string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := RunMigrations(conn, migrationsDir); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error { return s.conn.Close() }

func logErr(op string, err error) {
	if err != nil && err != sql.ErrNoRows {
		log.Printf("sqlite: %s: %v", op, err)
	}
}

func encodeJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		logErr("encode json", err)
		return ""
	}
	return string(data)
}

func decodeStringMap(raw string) map[string]string {
	if raw == "" || raw == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logErr("decode json", err)
		return nil
	}
	return m
}

func decodeIntMap(raw string) map[string]int {
	if raw == "" || raw == "{}" {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logErr("decode json", err)
		return nil
	}
	return m
}

// --- panchayaths ---

func (s *SQLiteStore) AddPanchayath(p *services.Panchayath) {
	_, err := s.conn.Exec(`INSERT INTO panchayaths (id, name, district) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.District)
	logErr("add panchayath", err)
}

func (s *SQLiteStore) GetPanchayath(id string) *services.Panchayath {
	var p services.Panchayath
	err := s.conn.QueryRow(`SELECT id, name, district FROM panchayaths WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.District)
	if err != nil {
		logErr("get panchayath", err)
		return nil
	}
	return &p
}

func (s *SQLiteStore) ListPanchayaths() []*services.Panchayath {
	rows, err := s.conn.Query(`SELECT id, name, district FROM panchayaths ORDER BY name, id`)
	if err != nil {
		logErr("list panchayaths", err)
		return nil
	}
	defer rows.Close()
	var out []*services.Panchayath
	for rows.Next() {
		var p services.Panchayath
		if err := rows.Scan(&p.ID, &p.Name, &p.District); err != nil {
			logErr("scan panchayath", err)
			continue
		}
		out = append(out, &p)
	}
	logErr("list panchayaths", rows.Err())
	return out
}

func (s *SQLiteStore) DeletePanchayath(id string) bool {
	res, err := s.conn.Exec(`DELETE FROM panchayaths WHERE id = ?`, id)
	if err != nil {
		logErr("delete panchayath", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// --- programs ---

func (s *SQLiteStore) AddProgram(p *services.Program) {
	_, err := s.conn.Exec(`INSERT INTO programs (id, name, panchayath_id, verification_enabled, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PanchayathID, p.VerificationEnabled, p.CreatedAt)
	logErr("add program", err)
}

func (s *SQLiteStore) GetProgram(id string) *services.Program {
	var p services.Program
	err := s.conn.QueryRow(`SELECT id, name, panchayath_id, verification_enabled, created_at
		FROM programs WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.PanchayathID, &p.VerificationEnabled, &p.CreatedAt)
	if err != nil {
		logErr("get program", err)
		return nil
	}
	return &p
}

func (s *SQLiteStore) UpdateProgram(p *services.Program) bool {
	res, err := s.conn.Exec(`UPDATE programs SET name = ?, panchayath_id = ?, verification_enabled = ?
		WHERE id = ?`,
		p.Name, p.PanchayathID, p.VerificationEnabled, p.ID)
	if err != nil {
		logErr("update program", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteProgram(id string) bool {
	tx, err := s.conn.Begin()
	if err != nil {
		logErr("delete program", err)
		return false
	}
	res, err := tx.Exec(`DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		logErr("delete program", err)
		return false
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		tx.Rollback()
		return false
	}
	if _, err := tx.Exec(`DELETE FROM questions WHERE program_id = ?`, id); err != nil {
		tx.Rollback()
		logErr("delete program questions", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		logErr("delete program", err)
		return false
	}
	return true
}

func (s *SQLiteStore) ListPrograms() []*services.Program {
	rows, err := s.conn.Query(`SELECT id, name, panchayath_id, verification_enabled, created_at
		FROM programs ORDER BY id`)
	if err != nil {
		logErr("list programs", err)
		return nil
	}
	defer rows.Close()
	var out []*services.Program
	for rows.Next() {
		var p services.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.PanchayathID, &p.VerificationEnabled, &p.CreatedAt); err != nil {
			logErr("scan program", err)
			continue
		}
		out = append(out, &p)
	}
	logErr("list programs", rows.Err())
	return out
}

// --- questions ---

func (s *SQLiteStore) AddQuestion(q *services.FormQuestion) {
	_, err := s.conn.Exec(`INSERT INTO questions (id, program_id, label, position) VALUES (?, ?, ?, ?)`,
		q.ID, q.ProgramID, q.Label, q.Position)
	logErr("add question", err)
}

func (s *SQLiteStore) GetQuestion(id string) *services.FormQuestion {
	var q services.FormQuestion
	err := s.conn.QueryRow(`SELECT id, program_id, label, position FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.ProgramID, &q.Label, &q.Position)
	if err != nil {
		logErr("get question", err)
		return nil
	}
	return &q
}

func (s *SQLiteStore) UpdateQuestion(q *services.FormQuestion) bool {
	res, err := s.conn.Exec(`UPDATE questions SET label = ?, position = ? WHERE id = ?`,
		q.Label, q.Position, q.ID)
	if err != nil {
		logErr("update question", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteQuestion(id string) bool {
	res, err := s.conn.Exec(`DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		logErr("delete question", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListQuestions(programID string) []*services.FormQuestion {
	rows, err := s.conn.Query(`SELECT id, program_id, label, position FROM questions
		WHERE program_id = ? ORDER BY position, id`, programID)
	if err != nil {
		logErr("list questions", err)
		return nil
	}
	defer rows.Close()
	var out []*services.FormQuestion
	for rows.Next() {
		var q services.FormQuestion
		if err := rows.Scan(&q.ID, &q.ProgramID, &q.Label, &q.Position); err != nil {
			logErr("scan question", err)
			continue
		}
		out = append(out, &q)
	}
	logErr("list questions", rows.Err())
	return out
}

func (s *SQLiteStore) ReorderQuestions(programID string, order []string) bool {
	tx, err := s.conn.Begin()
	if err != nil {
		logErr("reorder questions", err)
		return false
	}
	for pos, id := range order {
		res, err := tx.Exec(`UPDATE questions SET position = ? WHERE id = ? AND program_id = ?`,
			pos+1, id, programID)
		if err != nil {
			tx.Rollback()
			logErr("reorder questions", err)
			return false
		}
		if n, _ := res.RowsAffected(); n == 0 {
			tx.Rollback()
			return false
		}
	}
	if err := tx.Commit(); err != nil {
		logErr("reorder questions", err)
		return false
	}
	return true
}

// --- registrations ---

func (s *SQLiteStore) AddRegistration(r *services.Registration) {
	_, err := s.conn.Exec(`INSERT INTO registrations
		(id, program_id, name, mobile, panchayath_id, ward, answers, verification_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProgramID, r.Name, r.Mobile, r.PanchayathID, r.Ward,
		encodeJSON(r.Answers), string(r.VerificationStatus), r.CreatedAt)
	logErr("add registration", err)
}

func (s *SQLiteStore) scanRegistration(row interface{ Scan(...any) error }) *services.Registration {
	var (
		r          services.Registration
		status     string
		answers    string
		scores     sql.NullString
		verifiedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.ProgramID, &r.Name, &r.Mobile, &r.PanchayathID, &r.Ward,
		&answers, &status, &scores, &r.TotalScore, &r.MaxScore, &r.Percentage,
		&r.VerifiedBy, &verifiedAt, &r.CreatedAt)
	if err != nil {
		logErr("scan registration", err)
		return nil
	}
	r.VerificationStatus = services.VerificationStatus(status)
	r.Answers = decodeStringMap(answers)
	if scores.Valid {
		r.VerificationScores = decodeIntMap(scores.String)
	}
	if verifiedAt.Valid {
		at := verifiedAt.Time
		r.VerifiedAt = &at
	}
	return &r
}

const registrationColumns = `id, program_id, name, mobile, panchayath_id, ward, answers,
	verification_status, verification_scores, total_score, max_score, percentage,
	verified_by, verified_at, created_at`

func (s *SQLiteStore) GetRegistration(id string) *services.Registration {
	row := s.conn.QueryRow(`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
	return s.scanRegistration(row)
}

func (s *SQLiteStore) ListRegistrations(programID string) []*services.Registration {
	rows, err := s.conn.Query(`SELECT `+registrationColumns+` FROM registrations
		WHERE program_id = ? ORDER BY created_at DESC, id`, programID)
	if err != nil {
		logErr("list registrations", err)
		return nil
	}
	defer rows.Close()
	out := []*services.Registration{}
	for rows.Next() {
		if r := s.scanRegistration(rows); r != nil {
			out = append(out, r)
		}
	}
	logErr("list registrations", rows.Err())
	return out
}

func (s *SQLiteStore) UpdateRegistrationVerification(id string, res *services.VerificationResult) bool {
	r, err := s.conn.Exec(`UPDATE registrations SET
		verification_status = ?, verification_scores = ?, total_score = ?, max_score = ?,
		percentage = ?, verified_by = ?, verified_at = ?
		WHERE id = ?`,
		string(res.Status), encodeJSON(res.Scores), res.TotalScore, res.MaxScore,
		res.Percentage, res.VerifiedBy, res.VerifiedAt, id)
	if err != nil {
		logErr("update registration verification", err)
		return false
	}
	n, _ := r.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteRegistration(id string) bool {
	res, err := s.conn.Exec(`DELETE FROM registrations WHERE id = ?`, id)
	if err != nil {
		logErr("delete registration", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// --- agents ---

func (s *SQLiteStore) AddAgent(a *services.Agent) {
	_, err := s.conn.Exec(`INSERT INTO agents
		(id, name, mobile, panchayath_id, ward, role, parent_agent_id, customer_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Mobile, a.PanchayathID, a.Ward, string(a.Role), a.ParentAgentID, a.CustomerCount)
	logErr("add agent", err)
}

func (s *SQLiteStore) GetAgent(id string) *services.Agent {
	var (
		a    services.Agent
		role string
	)
	err := s.conn.QueryRow(`SELECT id, name, mobile, panchayath_id, ward, role, parent_agent_id, customer_count
		FROM agents WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Mobile, &a.PanchayathID, &a.Ward, &role, &a.ParentAgentID, &a.CustomerCount)
	if err != nil {
		logErr("get agent", err)
		return nil
	}
	a.Role = services.AgentRole(role)
	return &a
}

func (s *SQLiteStore) UpdateAgent(a *services.Agent) bool {
	res, err := s.conn.Exec(`UPDATE agents SET name = ?, mobile = ?, panchayath_id = ?, ward = ?,
		role = ?, parent_agent_id = ?, customer_count = ?
		WHERE id = ?`,
		a.Name, a.Mobile, a.PanchayathID, a.Ward, string(a.Role), a.ParentAgentID, a.CustomerCount, a.ID)
	if err != nil {
		logErr("update agent", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteAgent(id string) bool {
	res, err := s.conn.Exec(`DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		logErr("delete agent", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListAgents() []*services.Agent {
	rows, err := s.conn.Query(`SELECT id, name, mobile, panchayath_id, ward, role, parent_agent_id, customer_count
		FROM agents ORDER BY name, id`)
	if err != nil {
		logErr("list agents", err)
		return nil
	}
	defer rows.Close()
	var out []*services.Agent
	for rows.Next() {
		var (
			a    services.Agent
			role string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Mobile, &a.PanchayathID, &a.Ward, &role, &a.ParentAgentID, &a.CustomerCount); err != nil {
			logErr("scan agent", err)
			continue
		}
		a.Role = services.AgentRole(role)
		out = append(out, &a)
	}
	logErr("list agents", rows.Err())
	return out
}

// --- admins ---

func (s *SQLiteStore) AddAdmin(a *services.Admin) error {
	_, err := s.conn.Exec(`INSERT INTO admins (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, strings.ToLower(a.Email), a.PassHash, a.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return services.NewConflictError("email exists")
		}
		logErr("add admin", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) FindAdminByEmail(email string) *services.Admin {
	var (
		a         services.Admin
		createdAt time.Time
	)
	err := s.conn.QueryRow(`SELECT id, email, pass_hash, created_at FROM admins WHERE email = ?`,
		strings.ToLower(email)).
		Scan(&a.ID, &a.Email, &a.PassHash, &createdAt)
	if err != nil {
		logErr("find admin", err)
		return nil
	}
	a.CreatedAt = createdAt
	return &a
}

// --- audit ---

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.conn.Exec(`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Actor, e.Action, e.Target, e.Note)
	logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.conn.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		if err := rows.Scan(&e.Time, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			logErr("scan audit", err)
			continue
		}
		out = append(out, e)
	}
	logErr("list audit", rows.Err())
	return out
}
