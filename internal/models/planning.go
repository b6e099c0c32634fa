package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type EventType string

const (
	EventMeeting  EventType = "Réunion"
	EventCall     EventType = "Appel"
	EventDeadline EventType = "Deadline"
	EventReminder EventType = "Rappel"
	EventOther    EventType = "Autre"
)

var EventTypes = []EventType{EventMeeting, EventCall, EventDeadline, EventReminder, EventOther}

// Event is a calendar entry of the planning view.
type Event struct {
	Base      `bson:",inline"`
	Title     string    `bson:"title" json:"title"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	AllDay    bool      `bson:"allDay" json:"allDay"`
	Type      EventType `bson:"type" json:"type"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	ClientID  string    `bson:"clientId,omitempty" json:"clientId,omitempty"`
	MissionID string    `bson:"missionId,omitempty" json:"missionId,omitempty"`
}

func (e *Event) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Start, validation.Required),
		validation.Field(&e.End, validation.By(func(interface{}) error {
			if !e.End.IsZero() && e.End.Before(e.Start) {
				return errors.New("must not be before start")
			}
			return nil
		})),
		validation.Field(&e.Type, validation.Required, validation.In(oneOf(EventTypes)...)),
	)
}

func (e *Event) Defaults() {
	if e.Type == "" {
		e.Type = EventOther
	}
	if e.End.IsZero() {
		e.End = e.Start.Add(time.Hour)
	}
}

func (e *Event) GetStatus() string  { return string(e.Type) }
func (e *Event) SearchText() string { return joinSearch(e.Title, e.Location, e.Notes) }

// Task is a standalone to-do, optionally attached to a mission.
type Task struct {
	Base      `bson:",inline"`
	Title     string        `bson:"title" json:"title"`
	Notes     string        `bson:"notes,omitempty" json:"notes,omitempty"`
	Status    MissionStatus `bson:"status" json:"status"`
	Priority  Priority      `bson:"priority" json:"priority"`
	DueDate   *time.Time    `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	MissionID string        `bson:"missionId,omitempty" json:"missionId,omitempty"`
}

func (t *Task) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Status, validation.Required, validation.In(oneOf(MissionStatuses)...)),
		validation.Field(&t.Priority, validation.Required, validation.In(oneOf(Priorities)...)),
	)
}

func (t *Task) Defaults() {
	if t.Status == "" {
		t.Status = MissionTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

func (t *Task) GetStatus() string  { return string(t.Status) }
func (t *Task) SearchText() string { return joinSearch(t.Title, t.Notes) }

// TimeEntry records time spent, in minutes.
type TimeEntry struct {
	Base        `bson:",inline"`
	MissionID   string    `bson:"missionId,omitempty" json:"missionId,omitempty"`
	TaskID      string    `bson:"taskId,omitempty" json:"taskId,omitempty"`
	Description string    `bson:"description" json:"description"`
	Date        time.Time `bson:"date" json:"date"`
	Minutes     int       `bson:"minutes" json:"minutes"`
	Billable    bool      `bson:"billable" json:"billable"`
	HourlyRate  float64   `bson:"hourlyRate" json:"hourlyRate"`
}

func (t *TimeEntry) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Minutes, validation.Required, validation.Min(1)),
		validation.Field(&t.Date, validation.Required),
		validation.Field(&t.HourlyRate, validation.Min(0.0)),
	)
}

func (t *TimeEntry) Defaults() {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
}

// Amount is the billable value of the entry.
func (t *TimeEntry) Amount() float64 {
	if !t.Billable {
		return 0
	}
	return roundCents(float64(t.Minutes) / 60 * t.HourlyRate)
}

func (t *TimeEntry) GetStatus() string {
	if t.Billable {
		return "billable"
	}
	return "non-billable"
}
func (t *TimeEntry) SearchText() string { return joinSearch(t.Description) }
