// Package invoices numbers and totals invoices and tracks their payment state.
package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

const (
	NumberPrefix = "FAC"
	// PaymentTerms is the default delay between issue and due date.
	PaymentTerms = 30 * 24 * time.Hour
)

type Service struct {
	*crud.Service[*models.Invoice]
	clients store.Repository[*models.Client]
}

func NewService(invoices store.Repository[*models.Invoice], clients store.Repository[*models.Client]) *Service {
	s := &Service{clients: clients}
	s.Service = crud.NewService(invoices, "invoice", func() *models.Invoice { return &models.Invoice{} }, crud.Hooks[*models.Invoice]{
		Protected:    []string{"invoiceNumber", "subtotal", "taxAmount", "total", "quoteId"},
		BeforeCreate: s.beforeCreate,
		BeforeUpdate: s.beforeUpdate,
		Stats:        invoiceStats,
	})
	return s
}

// Create stores a numbered invoice, retrying on a number collision.
func (s *Service) Create(ctx context.Context, owner string, inv *models.Invoice) (*models.Invoice, error) {
	return crud.CreateNumbered(ctx, func(ctx context.Context) (*models.Invoice, error) {
		return s.Service.Create(ctx, owner, inv)
	})
}

func (s *Service) beforeCreate(ctx context.Context, owner string, inv *models.Invoice) error {
	all, err := s.Repo.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	used := make([]string, 0, len(all))
	for _, other := range all {
		used = append(used, other.InvoiceNumber)
	}
	now := s.Now()
	inv.InvoiceNumber = crud.NextNumber(NumberPrefix, now.Year(), used)
	if inv.IssueDate == nil {
		issued := now
		inv.IssueDate = &issued
	}
	if inv.DueDate == nil {
		due := inv.IssueDate.Add(PaymentTerms)
		inv.DueDate = &due
	}
	inv.Recompute()
	stampPaid(inv, now)
	return s.fillClientName(ctx, owner, inv)
}

func (s *Service) beforeUpdate(ctx context.Context, prev, next *models.Invoice, p crud.Patch) error {
	if next.IssueDate != nil && next.DueDate != nil && next.DueDate.Before(*next.IssueDate) {
		return &domain.ValidationError{Message: "due date before issue date", Fields: map[string]string{"dueDate": "must not be before issueDate"}}
	}
	next.Recompute()
	stampPaid(next, s.Now())
	if next.ClientID != prev.ClientID {
		return s.fillClientName(ctx, next.UserID, next)
	}
	return nil
}

// stampPaid keeps PaidAt in step with the status.
func stampPaid(inv *models.Invoice, now time.Time) {
	if inv.Status != models.InvoicePaid {
		inv.PaidAt = nil
		return
	}
	if inv.PaidAt == nil {
		inv.PaidAt = &now
	}
}

func (s *Service) fillClientName(ctx context.Context, owner string, inv *models.Invoice) error {
	if inv.ClientID == "" || s.clients == nil {
		return nil
	}
	c, err := s.clients.Get(ctx, owner, inv.ClientID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ValidationError{Message: "unknown client", Fields: map[string]string{"clientId": "client not found"}}
	}
	if err != nil {
		return err
	}
	inv.ClientName = c.Name
	return nil
}

func invoiceStats(all []*models.Invoice, now time.Time) map[string]interface{} {
	var outstanding, paid float64
	overdue := 0
	for _, inv := range all {
		switch {
		case inv.Status == models.InvoicePaid:
			paid += inv.Total
		case inv.Status == models.InvoiceCancelled || inv.Status == models.InvoiceDraft:
		default:
			outstanding += inv.Total
		}
		if inv.IsOverdue(now) {
			overdue++
		}
	}
	return map[string]interface{}{
		"outstandingAmount": outstanding,
		"paidAmount":        paid,
		"overdueCount":      overdue,
	}
}
