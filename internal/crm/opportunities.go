package crm

import (
	"context"
	"errors"
	"time"

	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

type OpportunityService struct {
	*crud.Service[*models.Opportunity]
	clients store.Repository[*models.Client]
}

func NewOpportunityService(opps store.Repository[*models.Opportunity], clients store.Repository[*models.Client]) *OpportunityService {
	s := &OpportunityService{clients: clients}
	s.Service = crud.NewService(opps, "opportunity", func() *models.Opportunity { return &models.Opportunity{} }, crud.Hooks[*models.Opportunity]{
		BeforeCreate: s.checkClient,
		BeforeUpdate: func(ctx context.Context, prev, next *models.Opportunity, _ crud.Patch) error {
			settleProbability(next)
			if next.ClientID == prev.ClientID {
				return nil
			}
			return s.checkClient(ctx, next.UserID, next)
		},
		Stats: pipelineStats,
	})
	return s
}

func (s *OpportunityService) checkClient(ctx context.Context, owner string, o *models.Opportunity) error {
	settleProbability(o)
	if o.ClientID == "" {
		return nil
	}
	if _, err := s.clients.Get(ctx, owner, o.ClientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Message: "unknown client", Fields: map[string]string{"clientId": "client not found"}}
		}
		return err
	}
	return nil
}

// settleProbability pins closed deals to 100 or 0.
func settleProbability(o *models.Opportunity) {
	switch o.Stage {
	case models.StageWon:
		o.Probability = 100
	case models.StageLost:
		o.Probability = 0
	}
}

// pipelineStats reports open pipeline value, its probability-weighted value and won value.
func pipelineStats(all []*models.Opportunity, _ time.Time) map[string]interface{} {
	var pipeline, weighted, won float64
	for _, o := range all {
		switch o.Stage {
		case models.StageWon:
			won += o.Value
		case models.StageLost:
		default:
			pipeline += o.Value
			weighted += o.WeightedValue()
		}
	}
	return map[string]interface{}{
		"pipelineValue": pipeline,
		"weightedValue": weighted,
		"wonValue":      won,
	}
}
