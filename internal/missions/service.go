// Package missions tracks units of work and gates their completion behind a
// verification request backed by proof.
package missions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"github.com/tuma-app/tuma/backend/pkg/metrics"
)

const requestVerificationField = "requestVerification"

type Service struct {
	*crud.Service[*models.Mission]
}

func NewService(repo store.Repository[*models.Mission]) *Service {
	s := &Service{}
	s.Service = crud.NewService(repo, "mission", func() *models.Mission { return &models.Mission{} }, crud.Hooks[*models.Mission]{
		Protected: []string{
			"quoteId", "verificationStatus", "verificationMessage",
			"verificationRequestedAt", "verifiedAt",
		},
		Transient:    []string{requestVerificationField},
		BeforeCreate: s.beforeCreate,
		BeforeUpdate: s.beforeUpdate,
		Stats:        missionStats,
	})
	return s
}

func (s *Service) beforeCreate(_ context.Context, _ string, m *models.Mission) error {
	if m.Status == models.MissionDone {
		return &domain.ValidationError{
			Message: "a mission is completed through a verification request",
			Fields:  map[string]string{"status": "must be To-do or En cours"},
		}
	}
	m.QuoteID = ""
	m.VerificationStatus = models.VerificationNone
	m.VerificationMessage = ""
	m.VerificationRequestedAt, m.VerifiedAt = nil, nil
	normalize(m)
	return nil
}

func (s *Service) beforeUpdate(_ context.Context, prev, next *models.Mission, p crud.Patch) error {
	normalize(next)
	outcome, err := ApplyUpdate(prev, next, Request{
		RequestVerification: p.Bool(requestVerificationField),
		StatusSent:          p.Has("status"),
	}, s.Now())
	if err != nil {
		return err
	}
	if outcome != OutcomeNone {
		metrics.Verifications.WithLabelValues(string(outcome)).Inc()
		logger.With("missionId", next.ID, "userId", next.UserID).Infow("mission verification", "outcome", outcome)
	}
	return nil
}

// normalize trims evidence URLs and gives every checklist item an id.
func normalize(m *models.Mission) {
	evidence := make([]string, 0, len(m.Evidence))
	for _, e := range m.Evidence {
		if e = strings.TrimSpace(e); e != "" {
			evidence = append(evidence, e)
		}
	}
	m.Evidence = evidence
	for i := range m.Checklist {
		if m.Checklist[i].ID == "" {
			m.Checklist[i].ID = uuid.NewString()
		}
		m.Checklist[i].Label = strings.TrimSpace(m.Checklist[i].Label)
	}
	if m.Checklist == nil {
		m.Checklist = []models.ChecklistItem{}
	}
}

func missionStats(all []*models.Mission, _ time.Time) map[string]interface{} {
	var budget float64
	byVerification := map[string]int{}
	awaitingProof := 0
	for _, m := range all {
		budget += m.Budget
		byVerification[string(m.VerificationStatus)]++
		if m.Status != models.MissionDone && !hasProof(m) {
			awaitingProof++
		}
	}
	return map[string]interface{}{
		"totalBudget":      budget,
		"byVerification":   byVerification,
		"awaitingEvidence": awaitingProof,
	}
}
