package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

type fixture struct {
	svc      *Service
	quotes   *store.MemoryRepository[*models.Quote]
	missions *store.MemoryRepository[*models.Mission]
	invoices *store.MemoryRepository[*models.Invoice]
	events   *store.MemoryRepository[*models.Event]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		quotes:   store.NewMemoryRepository("quote", func() *models.Quote { return &models.Quote{} }),
		missions: store.NewMemoryRepository("mission", func() *models.Mission { return &models.Mission{} }),
		invoices: store.NewMemoryRepository("invoice", func() *models.Invoice { return &models.Invoice{} }),
		events:   store.NewMemoryRepository("event", func() *models.Event { return &models.Event{} }),
	}
	f.svc = NewService(f.quotes, f.missions, f.invoices, f.events)
	f.svc.SetClock(func() time.Time { return now })
	return f
}

func (f *fixture) invoice(t *testing.T, id string, status models.InvoiceStatus, total float64, issued, due, paid *time.Time) {
	t.Helper()
	inv := &models.Invoice{Title: id, InvoiceNumber: "FAC-" + id, Status: status, Total: total, IssueDate: issued, DueDate: due, PaidAt: paid}
	inv.ID, inv.UserID = id, "u1"
	require.NoError(t, f.invoices.Insert(context.Background(), inv))
}

func TestOverviewStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.invoice(t, "paid-june", models.InvoicePaid, 1000, ptr(now.AddDate(0, -1, 0)), nil, ptr(now.AddDate(0, 0, -3)))
	f.invoice(t, "paid-may", models.InvoicePaid, 400, ptr(now.AddDate(0, -2, 0)), nil, ptr(now.AddDate(0, -1, 0)))
	f.invoice(t, "sent", models.InvoiceSent, 300, ptr(now.AddDate(0, 0, -5)), ptr(now.AddDate(0, 0, 25)), nil)
	f.invoice(t, "late", models.InvoiceSent, 200, ptr(now.AddDate(0, -2, 0)), ptr(now.AddDate(0, 0, -1)), nil)
	f.invoice(t, "draft", models.InvoiceDraft, 999, nil, nil, nil)

	for i, st := range []models.QuoteStatus{models.QuoteSent, models.QuoteSent, models.QuoteDraft} {
		q := &models.Quote{Title: "q", Status: st, Total: float64(100 * (i + 1))}
		q.UserID = "u1"
		require.NoError(t, f.quotes.Insert(ctx, q))
	}
	for _, m := range []*models.Mission{
		{Title: "open", Status: models.MissionTodo},
		{Title: "proved", Status: models.MissionInProgress, Evidence: []string{"https://example.com/p.png"}},
		{Title: "done", Status: models.MissionDone},
	} {
		m.UserID = "u1"
		require.NoError(t, f.missions.Insert(ctx, m))
	}
	ev := &models.Event{Title: "call", Start: now.Add(48 * time.Hour)}
	ev.UserID = "u1"
	require.NoError(t, f.events.Insert(ctx, ev))

	ov, err := f.svc.Overview(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, Stats{
		RevenueThisMonth:     1000,
		OutstandingAmount:    500,
		OutstandingInvoices:  2,
		OverdueInvoices:      1,
		PendingQuotes:        2,
		PendingQuotesAmount:  300,
		ActiveMissions:       2,
		AwaitingVerification: 1,
		UpcomingEvents:       1,
	}, ov.Stats)

	other, err := f.svc.Overview(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, Stats{}, other.Stats)
	require.Empty(t, other.Activity)
}

func TestFeedScoringAndOrder(t *testing.T) {
	fresh := now
	old := now.Add(-30 * 24 * time.Hour)

	q := &models.Quote{Title: "Site vitrine", QuoteNumber: "DEV-2025-001", Status: models.QuoteSent}
	q.ID, q.UpdatedAt = "q1", fresh
	stale := &models.Quote{Title: "Ancien", Status: models.QuoteDraft}
	stale.ID, stale.UpdatedAt = "q2", old

	urgent := &models.Mission{Title: "Livraison", Status: models.MissionInProgress, Deadline: ptr(now.Add(24 * time.Hour))}
	urgent.ID, urgent.UpdatedAt = "m1", old
	refused := &models.Mission{Title: "Maquettes", Status: models.MissionTodo, VerificationStatus: models.VerificationRefused}
	refused.ID, refused.UpdatedAt = "m2", old

	overdue := &models.Invoice{Title: "Acompte", InvoiceNumber: "FAC-2025-001", Status: models.InvoiceOverdue}
	overdue.ID, overdue.UpdatedAt = "i1", old

	soon := &models.Event{Title: "Point", Start: now.Add(24 * time.Hour)}
	soon.ID = "e1"

	items := Feed([]*models.Quote{q, stale}, []*models.Mission{urgent, refused}, []*models.Invoice{overdue}, []*models.Event{soon}, now)
	require.Len(t, items, 6)

	scores := map[string]float64{}
	for _, it := range items {
		scores[it.ID] = it.Score
	}
	require.InDelta(t, 65, scores["q1"], 0.001)
	require.InDelta(t, 5, scores["q2"], 0.001)
	require.InDelta(t, 40, scores["m1"], 0.001)
	require.InDelta(t, 20, scores["m2"], 0.001)
	require.InDelta(t, 55, scores["i1"], 0.001)
	// 24h away: 50 * (1 - 1/14) + 10 + 20
	require.InDelta(t, 50*(1-1.0/14)+30, scores["e1"], 0.001)

	var order []string
	for _, it := range items {
		order = append(order, it.ID)
	}
	require.Equal(t, []string{"e1", "q1", "i1", "m1", "m2", "q2"}, order)
	require.Equal(t, "DEV-2025-001 Site vitrine", items[1].Title)
	require.Equal(t, "quote", items[1].Kind)
}

func TestFeedTieBreakAndCap(t *testing.T) {
	var quotes []*models.Quote
	for i := 0; i < 20; i++ {
		q := &models.Quote{Title: "q", Status: models.QuoteDraft}
		q.ID = string(rune('a' + i))
		q.UpdatedAt = now.Add(-60 * 24 * time.Hour)
		quotes = append(quotes, q)
	}
	newer := &models.Quote{Title: "newer", Status: models.QuoteDraft}
	newer.ID, newer.UpdatedAt = "zz", now.Add(-59*24*time.Hour)
	quotes = append(quotes, newer)

	items := Feed(quotes, nil, nil, nil, now)
	require.Len(t, items, 15)
	// equal scores: newest first, then by id
	require.Equal(t, "zz", items[0].ID)
	require.Equal(t, "a", items[1].ID)
	require.Equal(t, "b", items[2].ID)
}

func TestRevenue(t *testing.T) {
	f := newFixture(t)
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	f.invoice(t, "a", models.InvoicePaid, 1000, &jan, nil, &mar)
	f.invoice(t, "b", models.InvoiceSent, 250, &mar, nil, nil)
	f.invoice(t, "c", models.InvoicePaid, 80, &jan, nil, nil)
	f.invoice(t, "d", models.InvoiceCancelled, 999, &jan, nil, nil)
	f.invoice(t, "e", models.InvoicePaid, 70, ptr(jan.AddDate(-1, 0, 0)), nil, &jan)

	r, err := f.svc.Revenue(context.Background(), "u1", 2025)
	require.NoError(t, err)
	require.Len(t, r.Months, 12)
	require.Equal(t, 1, r.Months[0].Month)
	require.InDelta(t, 1080, r.Months[0].Invoiced, 0.001)
	require.InDelta(t, 150, r.Months[0].Paid, 0.001)
	require.InDelta(t, 250, r.Months[2].Invoiced, 0.001)
	require.InDelta(t, 1000, r.Months[2].Paid, 0.001)
	require.InDelta(t, 1330, r.Invoiced, 0.001)
	require.InDelta(t, 1150, r.Paid, 0.001)
}
