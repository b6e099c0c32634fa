package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

// ResourceService is the CRUD surface served by RegisterResource. crud.Service and the
// domain services embedding it satisfy it.
type ResourceService[T crud.Record] interface {
	New() T
	Create(ctx context.Context, owner string, e T) (T, error)
	Get(ctx context.Context, owner, id string) (T, error)
	Update(ctx context.Context, owner, id string, body []byte) (T, error)
	Delete(ctx context.Context, owner, id string) error
	List(ctx context.Context, owner string, q crud.Query[T]) (*crud.Page[T], error)
}

// QueryFunc adds resource-specific list parameters to q.
type QueryFunc[T crud.Record] func(c *gin.Context, q *crud.Query[T]) error

// RegisterResource mounts GET/POST on path and GET/PATCH/DELETE on path/:id.
func RegisterResource[T crud.Record](rg *gin.RouterGroup, path string, svc ResourceService[T], extra QueryFunc[T]) {
	g := rg.Group(path)
	g.GET("", listHandler(svc, extra))
	g.POST("", createHandler(svc))
	g.GET("/:id", func(c *gin.Context) {
		e, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	})
	g.PATCH("/:id", func(c *gin.Context) {
		raw, err := readBody(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		e, err := svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), raw)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	})
	g.DELETE("/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			RespondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func createHandler[T crud.Record](svc ResourceService[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := readBody(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		e := svc.New()
		if err := json.Unmarshal(raw, e); err != nil {
			RespondError(c, domain.Invalid("invalid field: "+err.Error()))
			return
		}
		out, err := svc.Create(c.Request.Context(), middleware.UserID(c), e)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func listHandler[T crud.Record](svc ResourceService[T], extra QueryFunc[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := crud.Query[T]{Status: c.Query("status"), Search: c.Query("search")}
		var err error
		if q.Page, err = intParam(c, "page"); err != nil {
			RespondError(c, err)
			return
		}
		if q.Limit, err = intParam(c, "limit"); err != nil {
			RespondError(c, err)
			return
		}
		if extra != nil {
			if err := extra(c, &q); err != nil {
				RespondError(c, err)
				return
			}
		}
		page, err := svc.List(c.Request.Context(), middleware.UserID(c), q)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func intParam(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Message: "invalid " + name, Fields: map[string]string{name: "must be a positive integer"}}
	}
	return n, nil
}

// FilterParams copies the named query parameters into q.Filter.
func FilterParams[T crud.Record](names ...string) QueryFunc[T] {
	return func(c *gin.Context, q *crud.Query[T]) error {
		for _, n := range names {
			if v := c.Query(n); v != "" {
				if q.Filter == nil {
					q.Filter = map[string]interface{}{}
				}
				q.Filter[n] = v
			}
		}
		return nil
	}
}
