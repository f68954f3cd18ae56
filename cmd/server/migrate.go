package main

import (
	"github.com/evamarketing/elife/internal/api"
	"github.com/evamarketing/elife/internal/db"
	"github.com/evamarketing/elife/internal/services"
)

// importFromSnapshot copies a JSON snapshot produced by the memory store into
// the sqlite database. Used once when switching a deployment from snapshot
// files to sqlite; existing rows with the same ids will fail to insert and be
// logged, not overwritten.
func importFromSnapshot(st *db.SQLiteStore, path string) (int, error) {
	mem, err := api.NewMemoryStoreFromPath(path)
	if err != nil {
		return 0, err
	}
	snap := api.MemoryStoreSnapshot(mem)
	if snap == nil {
		return 0, nil
	}

	n := 0
	for _, p := range snap.Panchayaths {
		st.AddPanchayath(p)
		n++
	}
	for _, p := range snap.Programs {
		st.AddProgram(p)
		n++
	}
	for _, q := range snap.Questions {
		st.AddQuestion(q)
		n++
	}
	for _, r := range snap.Registrations {
		st.AddRegistration(r)
		// AddRegistration writes only the submission fields; restore any
		// verification outcome separately.
		if r.VerificationStatus == services.StatusVerified && r.VerifiedAt != nil {
			st.UpdateRegistrationVerification(r.ID, &services.VerificationResult{
				Status:     r.VerificationStatus,
				Scores:     r.VerificationScores,
				TotalScore: r.TotalScore,
				MaxScore:   r.MaxScore,
				Percentage: r.Percentage,
				VerifiedBy: r.VerifiedBy,
				VerifiedAt: *r.VerifiedAt,
			})
		}
		n++
	}
	for _, a := range snap.Agents {
		st.AddAgent(a)
		n++
	}
	for _, a := range snap.Admins {
		if err := st.AddAdmin(a); err == nil {
			n++
		}
	}
	for _, e := range snap.Audit {
		st.AddAudit(e)
		n++
	}
	return n, nil
}
