// Package dashboard aggregates the owner's collections into headline figures, a scored
// activity feed and a yearly revenue report.
package dashboard

import (
	"context"
	"time"

	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	quotes   store.Repository[*models.Quote]
	missions store.Repository[*models.Mission]
	invoices store.Repository[*models.Invoice]
	events   store.Repository[*models.Event]
	now      func() time.Time
}

func NewService(
	quotes store.Repository[*models.Quote],
	missions store.Repository[*models.Mission],
	invoices store.Repository[*models.Invoice],
	events store.Repository[*models.Event],
) *Service {
	return &Service{
		quotes: quotes, missions: missions, invoices: invoices, events: events,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock; for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

type snapshot struct {
	quotes   []*models.Quote
	missions []*models.Mission
	invoices []*models.Invoice
	events   []*models.Event
}

// load reads the four collections concurrently.
func (s *Service) load(ctx context.Context, owner string) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.quotes, err = s.quotes.List(ctx, owner, nil)
		return err
	})
	g.Go(func() (err error) {
		snap.missions, err = s.missions.List(ctx, owner, nil)
		return err
	})
	g.Go(func() (err error) {
		snap.invoices, err = s.invoices.List(ctx, owner, nil)
		return err
	})
	g.Go(func() (err error) {
		snap.events, err = s.events.List(ctx, owner, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Stats are the dashboard headline figures.
type Stats struct {
	RevenueThisMonth     float64 `json:"revenueThisMonth"`
	OutstandingAmount    float64 `json:"outstandingAmount"`
	OutstandingInvoices  int     `json:"outstandingInvoices"`
	OverdueInvoices      int     `json:"overdueInvoices"`
	PendingQuotes        int     `json:"pendingQuotes"`
	PendingQuotesAmount  float64 `json:"pendingQuotesAmount"`
	ActiveMissions       int     `json:"activeMissions"`
	AwaitingVerification int     `json:"awaitingVerification"`
	UpcomingEvents       int     `json:"upcomingEvents"`
}

// Overview is the dashboard payload.
type Overview struct {
	Stats    Stats          `json:"stats"`
	Activity []ActivityItem `json:"activity"`
}

func (s *Service) Overview(ctx context.Context, owner string) (*Overview, error) {
	snap, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Overview{Stats: computeStats(snap, now), Activity: Feed(snap.quotes, snap.missions, snap.invoices, snap.events, now)}, nil
}

func computeStats(snap *snapshot, now time.Time) Stats {
	var st Stats
	y, m, _ := now.Date()
	for _, inv := range snap.invoices {
		switch inv.Status {
		case models.InvoicePaid:
			if at := paidAt(inv); at != nil {
				py, pm, _ := at.Date()
				if py == y && pm == m {
					st.RevenueThisMonth += inv.Total
				}
			}
		case models.InvoiceSent, models.InvoiceOverdue:
			st.OutstandingAmount += inv.Total
			st.OutstandingInvoices++
		}
		if inv.IsOverdue(now) {
			st.OverdueInvoices++
		}
	}
	for _, q := range snap.quotes {
		if q.Status == models.QuoteSent {
			st.PendingQuotes++
			st.PendingQuotesAmount += q.Total
		}
	}
	for _, ms := range snap.missions {
		if ms.Status == models.MissionDone {
			continue
		}
		st.ActiveMissions++
		if len(ms.Evidence) == 0 && !ms.ChecklistComplete() {
			st.AwaitingVerification++
		}
	}
	week := now.Add(7 * 24 * time.Hour)
	for _, e := range snap.events {
		if !e.Start.Before(now) && e.Start.Before(week) {
			st.UpcomingEvents++
		}
	}
	return st
}

func paidAt(inv *models.Invoice) *time.Time {
	if inv.PaidAt != nil {
		return inv.PaidAt
	}
	return inv.IssueDate
}

// MonthRevenue is one row of the revenue report.
type MonthRevenue struct {
	Month    int     `json:"month"`
	Invoiced float64 `json:"invoiced"`
	Paid     float64 `json:"paid"`
}

// Revenue is the yearly revenue report.
type Revenue struct {
	Year     int            `json:"year"`
	Months   []MonthRevenue `json:"months"`
	Invoiced float64        `json:"invoiced"`
	Paid     float64        `json:"paid"`
}

// Revenue sums invoices per month of year: issued (not draft or cancelled) by issue date
// and paid by payment date.
func (s *Service) Revenue(ctx context.Context, owner string, year int) (*Revenue, error) {
	invoices, err := s.invoices.List(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	out := &Revenue{Year: year, Months: make([]MonthRevenue, 12)}
	for i := range out.Months {
		out.Months[i].Month = i + 1
	}
	for _, inv := range invoices {
		if inv.Status == models.InvoiceDraft || inv.Status == models.InvoiceCancelled {
			continue
		}
		issued := inv.IssueDate
		if issued == nil {
			issued = &inv.CreatedAt
		}
		if issued.Year() == year {
			out.Months[issued.Month()-1].Invoiced += inv.Total
			out.Invoiced += inv.Total
		}
		if inv.Status != models.InvoicePaid {
			continue
		}
		if at := paidAt(inv); at != nil && at.Year() == year {
			out.Months[at.Month()-1].Paid += inv.Total
			out.Paid += inv.Total
		}
	}
	return out, nil
}
