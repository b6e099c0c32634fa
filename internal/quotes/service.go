package quotes

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"github.com/tuma-app/tuma/backend/pkg/metrics"
)

// NumberPrefix prefixes quote numbers (DEV-2025-001).
const NumberPrefix = "DEV"

// Invoicer creates and reads invoices; satisfied by invoices.Service.
type Invoicer interface {
	Create(ctx context.Context, owner string, inv *models.Invoice) (*models.Invoice, error)
	Get(ctx context.Context, owner, id string) (*models.Invoice, error)
}

// Service manages quotes and their side-effects: mission generation on acceptance,
// public sharing and conversion to an invoice.
type Service struct {
	*crud.Service[*models.Quote]
	missions store.Repository[*models.Mission]
	clients  store.Repository[*models.Client]
	invoices Invoicer
}

func NewService(
	quotes store.Repository[*models.Quote],
	missions store.Repository[*models.Mission],
	clients store.Repository[*models.Client],
	invoices Invoicer,
) *Service {
	s := &Service{missions: missions, clients: clients, invoices: invoices}
	s.Service = crud.NewService(quotes, "quote", func() *models.Quote { return &models.Quote{} }, crud.Hooks[*models.Quote]{
		Protected: []string{
			"quoteNumber", "subtotal", "taxAmount", "total", "shareToken", "sharedAt",
			"suggestions", "sentAt", "acceptedAt", "missionId", "invoiceId",
		},
		BeforeCreate: s.beforeCreate,
		BeforeUpdate: s.beforeUpdate,
		AfterUpdate:  s.afterUpdate,
		Stats:        quoteStats,
	})
	return s
}

func (s *Service) beforeCreate(ctx context.Context, owner string, q *models.Quote) error {
	all, err := s.Repo.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	used := make([]string, 0, len(all))
	for _, other := range all {
		used = append(used, other.QuoteNumber)
	}
	now := s.Now()
	q.QuoteNumber = crud.NextNumber(NumberPrefix, now.Year(), used)
	q.ShareToken, q.SharedAt, q.Suggestions = "", nil, nil
	q.MissionID, q.InvoiceID = "", ""
	q.SentAt, q.AcceptedAt = nil, nil
	q.Recompute()
	stampTransition(q, "", now)
	return s.fillClientName(ctx, owner, q)
}

func (s *Service) beforeUpdate(ctx context.Context, prev, next *models.Quote, p crud.Patch) error {
	next.Recompute()
	stampTransition(next, prev.Status, s.Now())
	if next.ClientID != prev.ClientID || (p.Has("clientId") && !p.Has("clientName")) {
		return s.fillClientName(ctx, next.UserID, next)
	}
	return nil
}

func (s *Service) afterUpdate(ctx context.Context, prev, next *models.Quote) *models.Quote {
	if prev.Status != models.QuoteAccepted && next.Status == models.QuoteAccepted {
		return s.onAccepted(ctx, next)
	}
	return next
}

// Create stores a new quote, retrying when a concurrent create took the same number.
// A quote created directly as accepted gets its mission too.
func (s *Service) Create(ctx context.Context, owner string, q *models.Quote) (*models.Quote, error) {
	out, err := crud.CreateNumbered(ctx, func(ctx context.Context) (*models.Quote, error) {
		return s.Service.Create(ctx, owner, q)
	})
	if err != nil {
		return nil, err
	}
	if out.Status == models.QuoteAccepted {
		out = s.onAccepted(ctx, out)
	}
	return out, nil
}

func stampTransition(q *models.Quote, from models.QuoteStatus, now time.Time) {
	if q.Status == from {
		return
	}
	switch q.Status {
	case models.QuoteSent:
		if q.SentAt == nil {
			q.SentAt = &now
		}
	case models.QuoteAccepted:
		q.AcceptedAt = &now
	}
}

func (s *Service) fillClientName(ctx context.Context, owner string, q *models.Quote) error {
	if q.ClientID == "" {
		return nil
	}
	c, err := s.clients.Get(ctx, owner, q.ClientID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ValidationError{Message: "unknown client", Fields: map[string]string{"clientId": "client not found"}}
	}
	if err != nil {
		return err
	}
	q.ClientName = c.Name
	return nil
}

// onAccepted runs the mission generation for an accepted quote. It never fails the
// caller: errors are logged and the quote is returned as stored.
func (s *Service) onAccepted(ctx context.Context, q *models.Quote) *models.Quote {
	log := logger.With("quoteId", q.ID, "userId", q.UserID)
	m, created, err := s.EnsureMissionForAcceptedQuote(ctx, q)
	if err != nil {
		metrics.QuoteConversions.WithLabelValues("failed").Inc()
		log.Warnw("mission generation failed", "error", err)
		return q
	}
	if created {
		metrics.QuoteConversions.WithLabelValues("created").Inc()
		log.Infow("mission created from accepted quote", "missionId", m.ID)
	} else {
		metrics.QuoteConversions.WithLabelValues("existing").Inc()
	}
	if q.MissionID == m.ID {
		return q
	}
	q.MissionID = m.ID
	if err := s.Repo.Replace(ctx, q); err != nil {
		log.Warnw("could not link mission to quote", "missionId", m.ID, "error", err)
		q.MissionID = ""
	}
	return q
}

// EnsureMissionForAcceptedQuote makes sure exactly one mission exists for q. An existing
// mission of the same owner with the derived title, or linked to the quote, is returned
// with created=false.
func (s *Service) EnsureMissionForAcceptedQuote(ctx context.Context, q *models.Quote) (*models.Mission, bool, error) {
	if strings.TrimSpace(q.QuoteNumber) == "" {
		return nil, false, domain.Invalid("quote has no number")
	}
	title := MissionTitle(q)
	if m, err := s.existingMission(ctx, q, title); m != nil || err != nil {
		return m, false, err
	}

	m := &models.Mission{
		Title:       title,
		Description: q.Description,
		ClientID:    q.ClientID,
		QuoteID:     q.ID,
		Status:      models.MissionTodo,
		Priority:    models.PriorityMedium,
		Budget:      q.Total,
		Checklist:   BuildChecklist(q),
	}
	m.UserID = q.UserID
	m.Defaults()
	if err := m.Validate(); err != nil {
		return nil, false, domain.FromValidation(err)
	}
	if err := s.missions.Insert(ctx, m); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// lost a race against a concurrent acceptance of the same quote
			existing, lookupErr := s.existingMission(ctx, q, title)
			if existing != nil {
				return existing, false, nil
			}
			if lookupErr != nil {
				return nil, false, lookupErr
			}
		}
		return nil, false, err
	}
	return m, true, nil
}

func (s *Service) existingMission(ctx context.Context, q *models.Quote, title string) (*models.Mission, error) {
	for _, f := range []store.Filter{{"title": title}, {"quoteId": q.ID}} {
		m, err := s.missions.FindOne(ctx, q.UserID, f)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func newShareToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Share returns the quote with a public share token, creating one on first call.
func (s *Service) Share(ctx context.Context, owner, id string) (*models.Quote, error) {
	q, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if q.ShareToken != "" {
		return q, nil
	}
	tok, err := newShareToken()
	if err != nil {
		return nil, err
	}
	now := s.Now()
	q.ShareToken, q.SharedAt = tok, &now
	if err := s.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Unshare revokes the public link.
func (s *Service) Unshare(ctx context.Context, owner, id string) (*models.Quote, error) {
	q, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if q.ShareToken == "" {
		return q, nil
	}
	q.ShareToken, q.SharedAt = "", nil
	if err := s.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ByToken resolves a public share token.
func (s *Service) ByToken(ctx context.Context, token string) (*models.Quote, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.NotFound("quote")
	}
	return s.Repo.FindOne(ctx, "", store.Filter{"shareToken": token})
}

// SuggestionInput is a comment left through the public link.
type SuggestionInput struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (in SuggestionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Author, validation.Length(0, 120)),
		validation.Field(&in.Message, validation.Required, validation.Length(1, 2000)),
	)
}

// AddSuggestion appends to the quote's suggestions log.
func (s *Service) AddSuggestion(ctx context.Context, token string, in SuggestionInput) (*models.Quote, error) {
	in.Author, in.Message = strings.TrimSpace(in.Author), strings.TrimSpace(in.Message)
	if err := in.Validate(); err != nil {
		return nil, domain.FromValidation(err)
	}
	if in.Author == "" {
		in.Author = "Client"
	}
	q, err := s.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	q.Suggestions = append(q.Suggestions, models.QuoteSuggestion{Author: in.Author, Message: in.Message, CreatedAt: s.Now()})
	if err := s.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Respond records the client's decision through the public link. Only draft or sent
// quotes can be decided; repeating the same decision is a no-op.
func (s *Service) Respond(ctx context.Context, token string, accept bool) (*models.Quote, error) {
	q, err := s.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	target := models.QuoteRefused
	if accept {
		target = models.QuoteAccepted
	}
	if q.Status == target {
		return q, nil
	}
	now := s.Now()
	if q.Status != models.QuoteDraft && q.Status != models.QuoteSent {
		return nil, domain.Conflict("quote is already " + string(q.Status))
	}
	if q.ValidUntil != nil && now.After(*q.ValidUntil) {
		return nil, domain.Conflict("quote has expired")
	}
	prev := q.Status
	q.Status = target
	stampTransition(q, prev, now)
	if err := s.Save(ctx, q); err != nil {
		return nil, err
	}
	if accept {
		q = s.onAccepted(ctx, q)
	}
	return q, nil
}

// CreateInvoice converts the quote into a draft invoice. A quote converts once; later
// calls return the existing invoice.
func (s *Service) CreateInvoice(ctx context.Context, owner, id string) (*models.Invoice, bool, error) {
	if s.invoices == nil {
		return nil, false, &domain.UnavailableError{Message: "invoicing is not configured"}
	}
	q, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return nil, false, err
	}
	if q.InvoiceID != "" {
		inv, err := s.invoices.Get(ctx, owner, q.InvoiceID)
		if err == nil {
			return inv, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}
	now := s.Now()
	due := now.AddDate(0, 0, 30)
	inv := &models.Invoice{
		ClientID:   q.ClientID,
		ClientName: q.ClientName,
		QuoteID:    q.ID,
		MissionID:  q.MissionID,
		Title:      q.Title,
		Items:      append([]models.LineItem(nil), q.Items...),
		TaxRate:    q.TaxRate,
		Status:     models.InvoiceDraft,
		IssueDate:  &now,
		DueDate:    &due,
		Notes:      q.Notes,
	}
	inv, err = s.invoices.Create(ctx, owner, inv)
	if err != nil {
		return nil, false, err
	}
	q.InvoiceID = inv.ID
	if err := s.Repo.Replace(ctx, q); err != nil {
		logger.With("quoteId", q.ID).Warnw("could not link invoice to quote", "invoiceId", inv.ID, "error", err)
	}
	return inv, true, nil
}

func quoteStats(all []*models.Quote, _ time.Time) map[string]interface{} {
	var total, accepted, pending float64
	for _, q := range all {
		total += q.Total
		switch q.Status {
		case models.QuoteAccepted:
			accepted += q.Total
		case models.QuoteSent:
			pending += q.Total
		}
	}
	return map[string]interface{}{
		"totalAmount":    total,
		"acceptedAmount": accepted,
		"pendingAmount":  pending,
	}
}
