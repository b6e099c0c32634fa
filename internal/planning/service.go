// Package planning serves the calendar, standalone tasks and time tracking.
package planning

import (
	"context"
	"errors"
	"time"

	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

// Services groups the three planning resources.
type Services struct {
	Events      *crud.Service[*models.Event]
	Tasks       *crud.Service[*models.Task]
	TimeEntries *crud.Service[*models.TimeEntry]
}

func NewServices(
	events store.Repository[*models.Event],
	tasks store.Repository[*models.Task],
	entries store.Repository[*models.TimeEntry],
	missions store.Repository[*models.Mission],
) *Services {
	link := missionLink(missions)
	return &Services{
		Events: crud.NewService(events, "event", func() *models.Event { return &models.Event{} }, crud.Hooks[*models.Event]{
			BeforeCreate: func(ctx context.Context, owner string, e *models.Event) error {
				normalizeEvent(e)
				return link(ctx, owner, e.MissionID)
			},
			BeforeUpdate: func(ctx context.Context, prev, next *models.Event, _ crud.Patch) error {
				normalizeEvent(next)
				if next.MissionID == prev.MissionID {
					return nil
				}
				return link(ctx, next.UserID, next.MissionID)
			},
			Stats: eventStats,
		}),
		Tasks: crud.NewService(tasks, "task", func() *models.Task { return &models.Task{} }, crud.Hooks[*models.Task]{
			BeforeCreate: func(ctx context.Context, owner string, t *models.Task) error {
				return link(ctx, owner, t.MissionID)
			},
			BeforeUpdate: func(ctx context.Context, prev, next *models.Task, _ crud.Patch) error {
				if next.MissionID == prev.MissionID {
					return nil
				}
				return link(ctx, next.UserID, next.MissionID)
			},
			Stats: taskStats,
		}),
		TimeEntries: crud.NewService(entries, "time entry", func() *models.TimeEntry { return &models.TimeEntry{} }, crud.Hooks[*models.TimeEntry]{
			BeforeCreate: func(ctx context.Context, owner string, t *models.TimeEntry) error {
				return link(ctx, owner, t.MissionID)
			},
			BeforeUpdate: func(ctx context.Context, prev, next *models.TimeEntry, _ crud.Patch) error {
				if next.MissionID == prev.MissionID {
					return nil
				}
				return link(ctx, next.UserID, next.MissionID)
			},
			Stats: timeStats,
		}),
	}
}

// missionLink returns a check that an optional missionId belongs to the owner.
func missionLink(missions store.Repository[*models.Mission]) func(ctx context.Context, owner, id string) error {
	return func(ctx context.Context, owner, id string) error {
		if id == "" || missions == nil {
			return nil
		}
		_, err := missions.Get(ctx, owner, id)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Message: "unknown mission", Fields: map[string]string{"missionId": "mission not found"}}
		}
		return err
	}
}

// normalizeEvent snaps all-day events to whole UTC days.
func normalizeEvent(e *models.Event) {
	if !e.AllDay {
		return
	}
	y, m, d := e.Start.UTC().Date()
	e.Start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !e.End.After(e.Start) {
		e.End = e.Start.AddDate(0, 0, 1)
		return
	}
	ey, em, ed := e.End.UTC().Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if end.Before(e.End) {
		end = end.AddDate(0, 0, 1)
	}
	e.End = end
}

// Window selects events overlapping [from, to); a zero bound is open.
func Window(from, to time.Time) func(*models.Event) bool {
	return func(e *models.Event) bool {
		if !to.IsZero() && !e.Start.Before(to) {
			return false
		}
		if !from.IsZero() && !e.End.After(from) {
			return false
		}
		return true
	}
}

// ByStart orders events chronologically.
func ByStart(a, b *models.Event) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

func eventStats(all []*models.Event, now time.Time) map[string]interface{} {
	week := now.Add(7 * 24 * time.Hour)
	upcoming := 0
	for _, e := range all {
		if !e.Start.Before(now) && e.Start.Before(week) {
			upcoming++
		}
	}
	return map[string]interface{}{"upcoming7Days": upcoming}
}

func taskStats(all []*models.Task, now time.Time) map[string]interface{} {
	overdue := 0
	for _, t := range all {
		if t.Status != models.MissionDone && t.DueDate != nil && t.DueDate.Before(now) {
			overdue++
		}
	}
	return map[string]interface{}{"overdue": overdue}
}

func timeStats(all []*models.TimeEntry, _ time.Time) map[string]interface{} {
	minutes, billable := 0, 0
	var amount float64
	for _, t := range all {
		minutes += t.Minutes
		if t.Billable {
			billable += t.Minutes
			amount += t.Amount()
		}
	}
	return map[string]interface{}{
		"totalMinutes":    minutes,
		"billableMinutes": billable,
		"billableAmount":  amount,
	}
}
