package api

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/evamarketing/elife/internal/services"
)

// Snapshot is the JSON on-disk form of the in-memory store, used for dev mode
// persistence and for the one-time import into sqlite.
type Snapshot struct {
	Panchayaths   []*services.Panchayath   `json:"panchayaths,omitempty"`
	Programs      []*services.Program      `json:"programs,omitempty"`
	Questions     []*services.FormQuestion `json:"questions,omitempty"`
	Registrations []*services.Registration `json:"registrations,omitempty"`
	Agents        []*services.Agent        `json:"agents,omitempty"`
	Admins        []*services.Admin        `json:"admins,omitempty"`
	Audit         []services.AuditEntry    `json:"audit,omitempty"`
}

// NewMemoryStore returns an empty volatile store.
func NewMemoryStore() Store { return newMemoryStore() }

// NewMemoryStoreFromPath loads a snapshot from path (if it exists) and keeps
// writing snapshots back to the same path after every mutation.
func NewMemoryStoreFromPath(path string) (Store, error) {
	s := newMemoryStore()
	s.snapshotPath = path
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	s.applySnapshot(&snap)
	return s, nil
}

// MemoryStoreSnapshot captures the current contents of a memory-backed store;
// it returns nil for other backends.
func MemoryStoreSnapshot(st Store) *Snapshot {
	s, ok := st.(*memoryStore)
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *memoryStore) applySnapshot(snap *Snapshot) {
	for _, p := range snap.Panchayaths {
		s.panchayaths[p.ID] = p
	}
	for _, p := range snap.Programs {
		s.programs[p.ID] = p
	}
	for _, q := range snap.Questions {
		s.questions[q.ID] = q
	}
	for _, r := range snap.Registrations {
		s.registrations[r.ID] = r
	}
	for _, a := range snap.Agents {
		s.agents[a.ID] = a
	}
	for _, a := range snap.Admins {
		s.adminsByEmail[strings.ToLower(a.Email)] = a
	}
	s.audit = append(s.audit, snap.Audit...)
}

func (s *memoryStore) snapshotLocked() *Snapshot {
	snap := &Snapshot{Audit: append([]services.AuditEntry(nil), s.audit...)}
	for _, p := range s.panchayaths {
		snap.Panchayaths = append(snap.Panchayaths, p)
	}
	for _, p := range s.programs {
		snap.Programs = append(snap.Programs, p)
	}
	for _, q := range s.questions {
		snap.Questions = append(snap.Questions, q)
	}
	for _, r := range s.registrations {
		snap.Registrations = append(snap.Registrations, r)
	}
	for _, a := range s.agents {
		snap.Agents = append(snap.Agents, a)
	}
	for _, a := range s.adminsByEmail {
		snap.Admins = append(snap.Admins, a)
	}
	return snap
}

// persistLocked writes a snapshot when a path is configured. Failures are
// logged, not returned: the in-memory state stays authoritative in dev mode.
func (s *memoryStore) persistLocked() {
	if s.snapshotPath == "" {
		return
	}
	b, err := json.MarshalIndent(s.snapshotLocked(), "", "  ")
	if err != nil {
		log.Printf("memory store: encode snapshot: %v", err)
		return
	}
	tmp := s.snapshotPath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o755); err != nil {
		log.Printf("memory store: create snapshot dir: %v", err)
		return
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		log.Printf("memory store: write snapshot: %v", err)
		return
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		log.Printf("memory store: replace snapshot: %v", err)
	}
}
