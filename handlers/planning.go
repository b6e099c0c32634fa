package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/planning"
)

// RegisterPlanning mounts events, tasks and time entries under /planning.
func RegisterPlanning(rg *gin.RouterGroup, s *planning.Services) {
	p := rg.Group("/planning")
	RegisterResource[*models.Event](p, "/events", s.Events, eventWindow)
	RegisterResource[*models.Task](p, "/tasks", s.Tasks, FilterParams[*models.Task]("missionId"))
	RegisterResource[*models.TimeEntry](p, "/time-entries", s.TimeEntries, FilterParams[*models.TimeEntry]("missionId", "taskId"))
}

// eventWindow reads from/to (RFC 3339 or YYYY-MM-DD) and lists events chronologically.
func eventWindow(c *gin.Context, q *crud.Query[*models.Event]) error {
	from, err := timeParam(c, "from")
	if err != nil {
		return err
	}
	to, err := timeParam(c, "to")
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return &domain.ValidationError{Message: "invalid window", Fields: map[string]string{"to": "must not be before from"}}
	}
	if !from.IsZero() || !to.IsZero() {
		q.Where = planning.Window(from, to)
	}
	q.Less = planning.ByStart
	return FilterParams[*models.Event]("missionId", "clientId")(c, q)
}

func timeParam(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Message: "invalid " + name, Fields: map[string]string{name: "expected RFC 3339 or YYYY-MM-DD"}}
	}
	return t, nil
}
