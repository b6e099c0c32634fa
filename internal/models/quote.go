package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "Brouillon"
	QuoteSent     QuoteStatus = "Envoyé"
	QuoteAccepted QuoteStatus = "Accepté"
	QuoteRefused  QuoteStatus = "Refusé"
	QuoteExpired  QuoteStatus = "Expiré"
)

var QuoteStatuses = []QuoteStatus{QuoteDraft, QuoteSent, QuoteAccepted, QuoteRefused, QuoteExpired}

// ValidQuoteStatus reports whether s is a known quote status.
func ValidQuoteStatus(s QuoteStatus) bool {
	for _, v := range QuoteStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// QuoteSuggestion is an entry of the free-text log fed through the public share link.
type QuoteSuggestion struct {
	Author    string    `bson:"author" json:"author"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Quote struct {
	Base        `bson:",inline"`
	QuoteNumber string            `bson:"quoteNumber" json:"quoteNumber"`
	ClientID    string            `bson:"clientId,omitempty" json:"clientId,omitempty"`
	ClientName  string            `bson:"clientName,omitempty" json:"clientName,omitempty"`
	Title       string            `bson:"title" json:"title"`
	Description string            `bson:"description,omitempty" json:"description,omitempty"`
	Notes       string            `bson:"notes,omitempty" json:"notes,omitempty"`
	Items       []LineItem        `bson:"items" json:"items"`
	TaxRate     float64           `bson:"taxRate" json:"taxRate"`
	Subtotal    float64           `bson:"subtotal" json:"subtotal"`
	TaxAmount   float64           `bson:"taxAmount" json:"taxAmount"`
	Total       float64           `bson:"total" json:"total"`
	Status      QuoteStatus       `bson:"status" json:"status"`
	ValidUntil  *time.Time        `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
	ShareToken  string            `bson:"shareToken,omitempty" json:"shareToken,omitempty"`
	SharedAt    *time.Time        `bson:"sharedAt,omitempty" json:"sharedAt,omitempty"`
	Suggestions []QuoteSuggestion `bson:"suggestions,omitempty" json:"suggestions,omitempty"`
	SentAt      *time.Time        `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	AcceptedAt  *time.Time        `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	MissionID   string            `bson:"missionId,omitempty" json:"missionId,omitempty"`
	InvoiceID   string            `bson:"invoiceId,omitempty" json:"invoiceId,omitempty"`
}

func (q *Quote) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&q.Items),
		validation.Field(&q.TaxRate, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&q.Status, validation.Required, validation.In(oneOf(QuoteStatuses)...)),
	)
}

func (q *Quote) Defaults() {
	if q.Status == "" {
		q.Status = QuoteDraft
	}
	if q.Items == nil {
		q.Items = []LineItem{}
	}
}

// Recompute refreshes line and document totals from the items.
func (q *Quote) Recompute() {
	t := ComputeTotals(q.Items, q.TaxRate)
	q.Subtotal, q.TaxAmount, q.Total = t.Subtotal, t.TaxAmount, t.Total
}

func (q *Quote) GetStatus() string { return string(q.Status) }
func (q *Quote) SearchText() string {
	return joinSearch(q.QuoteNumber, q.Title, q.ClientName, q.Description)
}
