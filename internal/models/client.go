package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type ClientStatus string

const (
	ClientProspect ClientStatus = "Prospect"
	ClientActive   ClientStatus = "Actif"
	ClientInactive ClientStatus = "Inactif"
	ClientLost     ClientStatus = "Perdu"
)

// ClientStatuses lists the accepted client statuses in display order.
var ClientStatuses = []ClientStatus{ClientProspect, ClientActive, ClientInactive, ClientLost}

// Client is a CRM contact. The rollup counters are computed when the client is read.
type Client struct {
	Base    `bson:",inline"`
	Name    string       `bson:"name" json:"name"`
	Company string       `bson:"company,omitempty" json:"company,omitempty"`
	Email   string       `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string       `bson:"address,omitempty" json:"address,omitempty"`
	Notes   string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Tags    []string     `bson:"tags,omitempty" json:"tags,omitempty"`
	Status  ClientStatus `bson:"status" json:"status"`

	QuotesCount   int     `bson:"-" json:"quotesCount"`
	MissionsCount int     `bson:"-" json:"missionsCount"`
	TotalInvoiced float64 `bson:"-" json:"totalInvoiced"`
	TotalPaid     float64 `bson:"-" json:"totalPaid"`
}

func (c *Client) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, is.EmailFormat),
		validation.Field(&c.Status, validation.Required, validation.In(oneOf(ClientStatuses)...)),
	)
}

func (c *Client) Defaults() {
	if c.Status == "" {
		c.Status = ClientProspect
	}
}

func (c *Client) GetStatus() string  { return string(c.Status) }
func (c *Client) SearchText() string { return joinSearch(c.Name, c.Company, c.Email, c.Phone) }
