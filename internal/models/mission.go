package models

import (
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type MissionStatus string

const (
	MissionTodo       MissionStatus = "To-do"
	MissionInProgress MissionStatus = "En cours"
	MissionDone       MissionStatus = "Terminé"
)

var MissionStatuses = []MissionStatus{MissionTodo, MissionInProgress, MissionDone}

type Priority string

const (
	PriorityLow    Priority = "Basse"
	PriorityMedium Priority = "Moyenne"
	PriorityHigh   Priority = "Haute"
	PriorityUrgent Priority = "Urgente"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "Aucun"
	VerificationPending  VerificationStatus = "En vérification"
	VerificationApproved VerificationStatus = "Validée"
	VerificationRefused  VerificationStatus = "Refusée"
)

var VerificationStatuses = []VerificationStatus{VerificationNone, VerificationPending, VerificationApproved, VerificationRefused}

// ChecklistItem is one sub-task of a mission.
type ChecklistItem struct {
	ID    string `bson:"id" json:"id"`
	Label string `bson:"label" json:"label"`
	Done  bool   `bson:"done" json:"done"`
}

type Mission struct {
	Base                    `bson:",inline"`
	Title                   string             `bson:"title" json:"title"`
	Description             string             `bson:"description,omitempty" json:"description,omitempty"`
	ClientID                string             `bson:"clientId,omitempty" json:"clientId,omitempty"`
	QuoteID                 string             `bson:"quoteId,omitempty" json:"quoteId,omitempty"`
	Status                  MissionStatus      `bson:"status" json:"status"`
	Priority                Priority           `bson:"priority" json:"priority"`
	Budget                  float64            `bson:"budget" json:"budget"`
	Deadline                *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	TimeSpent               float64            `bson:"timeSpent" json:"timeSpent"` // hours
	Evidence                []string           `bson:"evidence" json:"evidence"`
	Checklist               []ChecklistItem    `bson:"checklist" json:"checklist"`
	VerificationStatus      VerificationStatus `bson:"verificationStatus" json:"verificationStatus"`
	VerificationMessage     string             `bson:"verificationMessage,omitempty" json:"verificationMessage,omitempty"`
	VerificationRequestedAt *time.Time         `bson:"verificationRequestedAt,omitempty" json:"verificationRequestedAt,omitempty"`
	VerifiedAt              *time.Time         `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
}

func (m *Mission) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&m.Status, validation.Required, validation.In(oneOf(MissionStatuses)...)),
		validation.Field(&m.Priority, validation.Required, validation.In(oneOf(Priorities)...)),
		validation.Field(&m.VerificationStatus, validation.Required, validation.In(oneOf(VerificationStatuses)...)),
		validation.Field(&m.Budget, validation.Min(0.0)),
		validation.Field(&m.TimeSpent, validation.Min(0.0)),
		validation.Field(&m.Evidence, validation.Each(validation.By(httpURL))),
	)
}

func httpURL(v interface{}) error {
	s, _ := v.(string)
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

func (m *Mission) Defaults() {
	if m.Status == "" {
		m.Status = MissionTodo
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}
	if m.VerificationStatus == "" {
		m.VerificationStatus = VerificationNone
	}
	if m.Evidence == nil {
		m.Evidence = []string{}
	}
	if m.Checklist == nil {
		m.Checklist = []ChecklistItem{}
	}
}

// ChecklistComplete reports whether the checklist is non-empty and fully checked.
func (m *Mission) ChecklistComplete() bool {
	if len(m.Checklist) == 0 {
		return false
	}
	for _, it := range m.Checklist {
		if !it.Done {
			return false
		}
	}
	return true
}

func (m *Mission) GetStatus() string  { return string(m.Status) }
func (m *Mission) SearchText() string { return joinSearch(m.Title, m.Description) }
