package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/invoices"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	missions *store.MemoryRepository[*models.Mission]
	clients  *store.MemoryRepository[*models.Client]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clients := store.NewMemoryRepository("client", func() *models.Client { return &models.Client{} })
	missions := store.NewMemoryRepository("mission", func() *models.Mission { return &models.Mission{} }).
		WithUnique("userId", "quoteId")
	quotes := store.NewMemoryRepository("quote", func() *models.Quote { return &models.Quote{} }).
		WithUnique("userId", "quoteNumber").
		WithUnique("shareToken")
	inv := invoices.NewService(
		store.NewMemoryRepository("invoice", func() *models.Invoice { return &models.Invoice{} }).WithUnique("userId", "invoiceNumber"),
		clients,
	)
	inv.SetClock(func() time.Time { return fixedNow })
	svc := NewService(quotes, missions, clients, inv)
	svc.SetClock(func() time.Time { return fixedNow })
	return &fixture{svc: svc, missions: missions, clients: clients}
}

func (f *fixture) quote(t *testing.T, q *models.Quote) *models.Quote {
	t.Helper()
	out, err := f.svc.Create(context.Background(), "u1", q)
	require.NoError(t, err)
	return out
}

func (f *fixture) missionsOf(t *testing.T, owner string) []*models.Mission {
	t.Helper()
	list, err := f.missions.List(context.Background(), owner, nil)
	require.NoError(t, err)
	return list
}

func sampleQuote() *models.Quote {
	return &models.Quote{
		Title:   "Site vitrine",
		TaxRate: 20,
		Items: []models.LineItem{
			{Description: "Design\nDev\nDéploiement", Quantity: 1, UnitPrice: 1500},
			{Description: "Pages", Quantity: 4, UnitPrice: 100},
		},
	}
}

func TestCreateNumbersAndTotals(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, sampleQuote())
	require.Equal(t, "DEV-2025-001", q.QuoteNumber)
	require.Equal(t, models.QuoteDraft, q.Status)
	require.Equal(t, 1900.0, q.Subtotal)
	require.Equal(t, 380.0, q.TaxAmount)
	require.Equal(t, 2280.0, q.Total)

	q2 := f.quote(t, &models.Quote{Title: "Autre", QuoteNumber: "DEV-1999-999"})
	require.Equal(t, "DEV-2025-002", q2.QuoteNumber)
}

func TestClientNameResolved(t *testing.T) {
	f := newFixture(t)
	c := &models.Client{Name: "Boulangerie Martin", Status: models.ClientActive}
	c.UserID = "u1"
	require.NoError(t, f.clients.Insert(context.Background(), c))

	q := sampleQuote()
	q.ClientID = c.ID
	require.Equal(t, "Boulangerie Martin", f.quote(t, q).ClientName)

	bad := sampleQuote()
	bad.ClientID = "nope"
	_, err := f.svc.Create(context.Background(), "u1", bad)
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestInvalidStatusRejected(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, sampleQuote())
	_, err := f.svc.Update(context.Background(), "u1", q.ID, []byte(`{"status":"Gagné"}`))
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestAcceptanceCreatesOneMission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.quote(t, sampleQuote())

	accepted, err := f.svc.Update(ctx, "u1", q.ID, []byte(`{"status":"Accepté"}`))
	require.NoError(t, err)
	require.NotNil(t, accepted.AcceptedAt)
	require.NotEmpty(t, accepted.MissionID)

	missions := f.missionsOf(t, "u1")
	require.Len(t, missions, 1)
	m := missions[0]
	require.Equal(t, accepted.MissionID, m.ID)
	require.Equal(t, "DEV-2025-001 - Site vitrine", m.Title)
	require.Equal(t, models.MissionTodo, m.Status)
	require.Equal(t, models.PriorityMedium, m.Priority)
	require.Equal(t, 2280.0, m.Budget)
	require.Equal(t, q.ID, m.QuoteID)
	require.Equal(t, []string{"Design", "Dev", "Déploiement", "4 x Pages"}, labels(m.Checklist))

	// bounce through another status and accept again
	_, err = f.svc.Update(ctx, "u1", q.ID, []byte(`{"status":"Envoyé"}`))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, "u1", q.ID, []byte(`{"status":"Accepté"}`))
	require.NoError(t, err)
	require.Len(t, f.missionsOf(t, "u1"), 1)

	m2, created, err := f.svc.EnsureMissionForAcceptedQuote(ctx, accepted)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, m.ID, m2.ID)
}

func TestAcceptanceMatchesExistingMissionByTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.quote(t, sampleQuote())
	manual := &models.Mission{Title: MissionTitle(q), Status: models.MissionInProgress, Priority: models.PriorityHigh}
	manual.UserID = "u1"
	manual.Defaults()
	require.NoError(t, f.missions.Insert(ctx, manual))

	_, err := f.svc.Update(ctx, "u1", q.ID, []byte(`{"status":"Accepté"}`))
	require.NoError(t, err)
	missions := f.missionsOf(t, "u1")
	require.Len(t, missions, 1)
	require.Equal(t, models.PriorityHigh, missions[0].Priority)
}

func TestConcurrentAcceptanceCreatesOneMission(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, sampleQuote())
	q.Status = models.QuoteAccepted

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.EnsureMissionForAcceptedQuote(context.Background(), q)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, f.missionsOf(t, "u1"), 1)
}

type failingMissions struct {
	*store.MemoryRepository[*models.Mission]
}

func (failingMissions) Insert(context.Context, *models.Mission) error {
	return errors.New("mongo: connection reset")
}

func TestMissionFailureDoesNotFailQuoteUpdate(t *testing.T) {
	f := newFixture(t)
	f.svc.missions = failingMissions{f.missions}
	q := f.quote(t, sampleQuote())

	out, err := f.svc.Update(context.Background(), "u1", q.ID, []byte(`{"status":"Accepté"}`))
	require.NoError(t, err)
	require.Equal(t, models.QuoteAccepted, out.Status)
	require.Empty(t, out.MissionID)
	require.Empty(t, f.missionsOf(t, "u1"))

	_, _, err = f.svc.EnsureMissionForAcceptedQuote(context.Background(), &models.Quote{Title: "no number"})
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreatedAcceptedGetsMission(t *testing.T) {
	f := newFixture(t)
	q := sampleQuote()
	q.Status = models.QuoteAccepted
	out := f.quote(t, q)
	require.NotEmpty(t, out.MissionID)
	require.NotNil(t, out.AcceptedAt)
	require.Len(t, f.missionsOf(t, "u1"), 1)
}

func TestProtectedFieldsIgnored(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, sampleQuote())
	out, err := f.svc.Update(context.Background(), "u1", q.ID, []byte(`{"quoteNumber":"HACK","total":1,"shareToken":"x"}`))
	require.NoError(t, err)
	require.Equal(t, q.QuoteNumber, out.QuoteNumber)
	require.Equal(t, q.Total, out.Total)
	require.Empty(t, out.ShareToken)
}

func TestShareAndPublicFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.quote(t, sampleQuote())

	shared, err := f.svc.Share(ctx, "u1", q.ID)
	require.NoError(t, err)
	require.NotEmpty(t, shared.ShareToken)
	again, err := f.svc.Share(ctx, "u1", q.ID)
	require.NoError(t, err)
	require.Equal(t, shared.ShareToken, again.ShareToken)

	_, err = f.svc.Share(ctx, "u2", q.ID)
	require.True(t, errors.Is(err, domain.ErrNotFound))

	pub, err := f.svc.ByToken(ctx, shared.ShareToken)
	require.NoError(t, err)
	require.Equal(t, q.ID, pub.ID)

	_, err = f.svc.AddSuggestion(ctx, shared.ShareToken, SuggestionInput{Message: "  "})
	require.True(t, errors.Is(err, domain.ErrValidation))
	withSugg, err := f.svc.AddSuggestion(ctx, shared.ShareToken, SuggestionInput{Message: "Ajouter une page contact"})
	require.NoError(t, err)
	require.Len(t, withSugg.Suggestions, 1)
	require.Equal(t, "Client", withSugg.Suggestions[0].Author)

	accepted, err := f.svc.Respond(ctx, shared.ShareToken, true)
	require.NoError(t, err)
	require.Equal(t, models.QuoteAccepted, accepted.Status)
	require.NotEmpty(t, accepted.MissionID)

	same, err := f.svc.Respond(ctx, shared.ShareToken, true)
	require.NoError(t, err)
	require.Equal(t, models.QuoteAccepted, same.Status)

	_, err = f.svc.Respond(ctx, shared.ShareToken, false)
	require.True(t, errors.Is(err, domain.ErrConflict))

	_, err = f.svc.Unshare(ctx, "u1", q.ID)
	require.NoError(t, err)
	_, err = f.svc.ByToken(ctx, shared.ShareToken)
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRespondExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := sampleQuote()
	past := fixedNow.Add(-24 * time.Hour)
	q.ValidUntil = &past
	created := f.quote(t, q)
	shared, err := f.svc.Share(ctx, "u1", created.ID)
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, shared.ShareToken, true)
	require.True(t, errors.Is(err, domain.ErrConflict))
	require.Empty(t, f.missionsOf(t, "u1"))
}

func TestCreateInvoiceOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.quote(t, sampleQuote())

	inv, created, err := f.svc.CreateInvoice(ctx, "u1", q.ID)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "FAC-2025-001", inv.InvoiceNumber)
	require.Equal(t, q.Total, inv.Total)
	require.Equal(t, q.ID, inv.QuoteID)
	require.Equal(t, models.InvoiceDraft, inv.Status)

	again, created, err := f.svc.CreateInvoice(ctx, "u1", q.ID)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, inv.ID, again.ID)
}

func TestListStats(t *testing.T) {
	f := newFixture(t)
	f.quote(t, sampleQuote())
	acc := sampleQuote()
	acc.Status = models.QuoteAccepted
	f.quote(t, acc)

	page, err := f.svc.List(context.Background(), "u1", crud.Query[*models.Quote]{Search: "dev-2025-002"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 2, page.Stats["total"])
	require.Equal(t, 4560.0, page.Stats["totalAmount"])
	require.Equal(t, 2280.0, page.Stats["acceptedAmount"])
}
