package dashboard

import (
	"sort"
	"time"

	"github.com/tuma-app/tuma/backend/internal/models"
)

const (
	recencyWindow = 14 * 24 * time.Hour
	recencyMax    = 50.0
	feedLimit     = 15
)

// ActivityItem is one scored entry of the dashboard feed.
type ActivityItem struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Score  float64   `json:"score"`
}

var quoteWeights = map[models.QuoteStatus]float64{
	models.QuoteDraft:    5,
	models.QuoteSent:     15,
	models.QuoteAccepted: 20,
}

var missionWeights = map[models.MissionStatus]float64{
	models.MissionTodo:       10,
	models.MissionInProgress: 15,
	models.MissionDone:       5,
}

var invoiceWeights = map[models.InvoiceStatus]float64{
	models.InvoiceDraft:   5,
	models.InvoiceSent:    15,
	models.InvoicePaid:    10,
	models.InvoiceOverdue: 25,
}

// recency decays linearly from recencyMax at now to zero recencyWindow away, in either
// direction.
func recency(at, now time.Time) float64 {
	d := now.Sub(at)
	if d < 0 {
		d = -d
	}
	if d >= recencyWindow {
		return 0
	}
	return recencyMax * (1 - float64(d)/float64(recencyWindow))
}

// Feed scores every record and returns the most relevant ones.
func Feed(quotes []*models.Quote, missions []*models.Mission, invoices []*models.Invoice, events []*models.Event, now time.Time) []ActivityItem {
	items := make([]ActivityItem, 0, len(quotes)+len(missions)+len(invoices)+len(events))
	add := func(id, kind, title, status string, at time.Time, weight float64) {
		items = append(items, ActivityItem{
			ID: id, Kind: kind, Title: title, Status: status, At: at,
			Score: recency(at, now) + weight,
		})
	}

	for _, q := range quotes {
		title := q.Title
		if q.QuoteNumber != "" {
			title = q.QuoteNumber + " " + q.Title
		}
		add(q.ID, "quote", title, string(q.Status), q.UpdatedAt, quoteWeights[q.Status])
	}
	for _, m := range missions {
		w := missionWeights[m.Status]
		if m.VerificationStatus == models.VerificationRefused {
			w += 10
		}
		if m.Status != models.MissionDone && m.Deadline != nil && m.Deadline.Sub(now) <= 3*24*time.Hour {
			w += 25
		}
		add(m.ID, "mission", m.Title, string(m.Status), m.UpdatedAt, w)
	}
	for _, inv := range invoices {
		w := invoiceWeights[inv.Status]
		if inv.IsOverdue(now) {
			w += 30
		}
		add(inv.ID, "invoice", inv.InvoiceNumber+" "+inv.Title, string(inv.Status), inv.UpdatedAt, w)
	}
	for _, e := range events {
		w := 10.0
		if until := e.Start.Sub(now); until >= 0 && until <= 48*time.Hour {
			w += 20
		}
		add(e.ID, "event", e.Title, string(e.Type), e.Start, w)
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.At.Equal(b.At) {
			return a.At.After(b.At)
		}
		return a.ID < b.ID
	})
	if len(items) > feedLimit {
		items = items[:feedLimit]
	}
	return items
}
