// Package crm manages clients and the sales pipeline.
package crm

import (
	"context"
	"strings"

	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

// ClientService serves clients with rollups computed from the owner's quotes, missions
// and invoices at read time.
type ClientService struct {
	*crud.Service[*models.Client]
	quotes   store.Repository[*models.Quote]
	missions store.Repository[*models.Mission]
	invoices store.Repository[*models.Invoice]
}

func NewClientService(
	clients store.Repository[*models.Client],
	quotes store.Repository[*models.Quote],
	missions store.Repository[*models.Mission],
	invoices store.Repository[*models.Invoice],
) *ClientService {
	s := &ClientService{quotes: quotes, missions: missions, invoices: invoices}
	s.Service = crud.NewService(clients, "client", func() *models.Client { return &models.Client{} }, crud.Hooks[*models.Client]{
		Protected:    []string{"quotesCount", "missionsCount", "totalInvoiced", "totalPaid"},
		BeforeCreate: normalizeClient,
		BeforeUpdate: func(ctx context.Context, _, next *models.Client, _ crud.Patch) error {
			return normalizeClient(ctx, next.UserID, next)
		},
		Decorate: s.rollups,
	})
	return s
}

func normalizeClient(_ context.Context, _ string, c *models.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	tags := make([]string, 0, len(c.Tags))
	seen := map[string]bool{}
	for _, t := range c.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}
	c.Tags = tags
	return nil
}

type rollup struct {
	quotes, missions int
	invoiced, paid   float64
}

// rollups rescans the owner's quotes, missions and invoices once per call.
func (s *ClientService) rollups(ctx context.Context, owner string, clients []*models.Client) error {
	if owner == "" {
		owner = clients[0].UserID
	}
	by := make(map[string]*rollup, len(clients))
	for _, c := range clients {
		by[c.ID] = &rollup{}
	}
	quotes, err := s.quotes.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	for _, q := range quotes {
		if r := by[q.ClientID]; r != nil {
			r.quotes++
		}
	}
	missions, err := s.missions.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	for _, m := range missions {
		if r := by[m.ClientID]; r != nil {
			r.missions++
		}
	}
	invoices, err := s.invoices.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		r := by[inv.ClientID]
		if r == nil || inv.Status == models.InvoiceCancelled || inv.Status == models.InvoiceDraft {
			continue
		}
		r.invoiced += inv.Total
		if inv.Status == models.InvoicePaid {
			r.paid += inv.Total
		}
	}
	for _, c := range clients {
		r := by[c.ID]
		c.QuotesCount, c.MissionsCount = r.quotes, r.missions
		c.TotalInvoiced, c.TotalPaid = r.invoiced, r.paid
	}
	return nil
}
