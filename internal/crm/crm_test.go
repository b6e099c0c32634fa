package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

type repos struct {
	clients  *store.MemoryRepository[*models.Client]
	quotes   *store.MemoryRepository[*models.Quote]
	missions *store.MemoryRepository[*models.Mission]
	invoices *store.MemoryRepository[*models.Invoice]
}

func newRepos() repos {
	return repos{
		clients:  store.NewMemoryRepository("client", func() *models.Client { return &models.Client{} }),
		quotes:   store.NewMemoryRepository("quote", func() *models.Quote { return &models.Quote{} }),
		missions: store.NewMemoryRepository("mission", func() *models.Mission { return &models.Mission{} }),
		invoices: store.NewMemoryRepository("invoice", func() *models.Invoice { return &models.Invoice{} }),
	}
}

func TestClientCreateNormalizes(t *testing.T) {
	r := newRepos()
	svc := NewClientService(r.clients, r.quotes, r.missions, r.invoices)
	c, err := svc.Create(context.Background(), "u1", &models.Client{
		Name:  "  Studio Nord ",
		Email: " Contact@Studio-Nord.FR ",
		Tags:  []string{"web", " Web", "", "print"},
	})
	require.NoError(t, err)
	require.Equal(t, "Studio Nord", c.Name)
	require.Equal(t, "contact@studio-nord.fr", c.Email)
	require.Equal(t, []string{"web", "print"}, c.Tags)
	require.Equal(t, models.ClientProspect, c.Status)

	_, err = svc.Create(context.Background(), "u1", &models.Client{Name: "x", Email: "not-an-email"})
	require.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.Create(context.Background(), "u1", &models.Client{Name: "x", Status: "Gold"})
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestClientRollups(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	svc := NewClientService(r.clients, r.quotes, r.missions, r.invoices)
	c, err := svc.Create(ctx, "u1", &models.Client{Name: "ACME", Status: models.ClientActive})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		q := &models.Quote{Title: "q", ClientID: c.ID, Status: models.QuoteSent}
		q.UserID = "u1"
		require.NoError(t, r.quotes.Insert(ctx, q))
	}
	m := &models.Mission{Title: "m", ClientID: c.ID}
	m.UserID = "u1"
	require.NoError(t, r.missions.Insert(ctx, m))
	for _, inv := range []*models.Invoice{
		{Title: "a", ClientID: c.ID, Status: models.InvoicePaid, Total: 300},
		{Title: "b", ClientID: c.ID, Status: models.InvoiceSent, Total: 200},
		{Title: "c", ClientID: c.ID, Status: models.InvoiceCancelled, Total: 999},
	} {
		inv.UserID = "u1"
		require.NoError(t, r.invoices.Insert(ctx, inv))
	}
	// another owner's data never leaks into the rollup
	foreign := &models.Quote{Title: "q", ClientID: c.ID}
	foreign.UserID = "u2"
	require.NoError(t, r.quotes.Insert(ctx, foreign))

	got, err := svc.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.QuotesCount)
	require.Equal(t, 1, got.MissionsCount)
	require.Equal(t, 500.0, got.TotalInvoiced)
	require.Equal(t, 300.0, got.TotalPaid)

	page, err := svc.List(ctx, "u1", crud.Query[*models.Client]{Search: "acme"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 2, page.Items[0].QuotesCount)
	require.Equal(t, map[string]int{"Actif": 1}, page.Stats["byStatus"])

	// rollups are not writable
	upd, err := svc.Update(ctx, "u1", c.ID, []byte(`{"quotesCount":40,"phone":"0102030405"}`))
	require.NoError(t, err)
	require.Equal(t, 2, upd.QuotesCount)
	require.Equal(t, "0102030405", upd.Phone)
}

func TestOpportunityPipeline(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	opps := store.NewMemoryRepository("opportunity", func() *models.Opportunity { return &models.Opportunity{} })
	svc := NewOpportunityService(opps, r.clients)

	_, err := svc.Create(ctx, "u1", &models.Opportunity{Title: "Refonte", Value: 10000, Probability: 40, Stage: models.StageProposal})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", &models.Opportunity{Title: "App", Value: 5000, Probability: 10})
	require.NoError(t, err)
	won, err := svc.Create(ctx, "u1", &models.Opportunity{Title: "SEO", Value: 2000, Probability: 50, Stage: models.StageWon})
	require.NoError(t, err)
	require.Equal(t, 100, won.Probability)

	_, err = svc.Create(ctx, "u1", &models.Opportunity{Title: "x", Probability: 120})
	require.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.Create(ctx, "u1", &models.Opportunity{Title: "x", ClientID: "ghost"})
	require.True(t, errors.Is(err, domain.ErrValidation))

	page, err := svc.List(ctx, "u1", crud.Query[*models.Opportunity]{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 15000.0, page.Stats["pipelineValue"])
	require.Equal(t, 4500.0, page.Stats["weightedValue"])
	require.Equal(t, 2000.0, page.Stats["wonValue"])

	lost, err := svc.Update(ctx, "u1", won.ID, []byte(`{"stage":"Perdu"}`))
	require.NoError(t, err)
	require.Equal(t, 0, lost.Probability)
}
