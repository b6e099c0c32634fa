package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/dashboard"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

func RegisterDashboard(rg *gin.RouterGroup, svc *dashboard.Service) {
	rg.GET("/dashboard", func(c *gin.Context) {
		ov, err := svc.Overview(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ov)
	})
	rg.GET("/reports/revenue", func(c *gin.Context) {
		year := time.Now().UTC().Year()
		if v := c.Query("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil || y < 1970 || y > 9999 {
				RespondError(c, &domain.ValidationError{Message: "invalid year", Fields: map[string]string{"year": "expected YYYY"}})
				return
			}
			year = y
		}
		r, err := svc.Revenue(c.Request.Context(), middleware.UserID(c), year)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	})
}
