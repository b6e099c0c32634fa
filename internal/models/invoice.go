package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Brouillon"
	InvoiceSent      InvoiceStatus = "Envoyée"
	InvoicePaid      InvoiceStatus = "Payée"
	InvoiceOverdue   InvoiceStatus = "En retard"
	InvoiceCancelled InvoiceStatus = "Annulée"
)

var InvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled}

type Invoice struct {
	Base          `bson:",inline"`
	InvoiceNumber string        `bson:"invoiceNumber" json:"invoiceNumber"`
	ClientID      string        `bson:"clientId,omitempty" json:"clientId,omitempty"`
	ClientName    string        `bson:"clientName,omitempty" json:"clientName,omitempty"`
	QuoteID       string        `bson:"quoteId,omitempty" json:"quoteId,omitempty"`
	MissionID     string        `bson:"missionId,omitempty" json:"missionId,omitempty"`
	Title         string        `bson:"title" json:"title"`
	Items         []LineItem    `bson:"items" json:"items"`
	TaxRate       float64       `bson:"taxRate" json:"taxRate"`
	Subtotal      float64       `bson:"subtotal" json:"subtotal"`
	TaxAmount     float64       `bson:"taxAmount" json:"taxAmount"`
	Total         float64       `bson:"total" json:"total"`
	Status        InvoiceStatus `bson:"status" json:"status"`
	IssueDate     *time.Time    `bson:"issueDate,omitempty" json:"issueDate,omitempty"`
	DueDate       *time.Time    `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	PaidAt        *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (i *Invoice) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&i.Items),
		validation.Field(&i.TaxRate, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&i.Status, validation.Required, validation.In(oneOf(InvoiceStatuses)...)),
	)
}

func (i *Invoice) Defaults() {
	if i.Status == "" {
		i.Status = InvoiceDraft
	}
	if i.Items == nil {
		i.Items = []LineItem{}
	}
}

func (i *Invoice) Recompute() {
	t := ComputeTotals(i.Items, i.TaxRate)
	i.Subtotal, i.TaxAmount, i.Total = t.Subtotal, t.TaxAmount, t.Total
}

// IsOverdue reports whether the invoice is unpaid past its due date at now.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == InvoicePaid || i.Status == InvoiceCancelled || i.Status == InvoiceDraft {
		return false
	}
	if i.Status == InvoiceOverdue {
		return true
	}
	return i.DueDate != nil && i.DueDate.Before(now)
}

func (i *Invoice) GetStatus() string { return string(i.Status) }
func (i *Invoice) SearchText() string {
	return joinSearch(i.InvoiceNumber, i.Title, i.ClientName)
}
