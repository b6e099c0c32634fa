// Package handler exposes project documents over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/handlers"
	"github.com/tuma-app/tuma/backend/internal/document/service"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

// RegisterDocumentRoutes mounts /documents and its file endpoints on rg.
func RegisterDocumentRoutes(rg *gin.RouterGroup, svc *service.Service) {
	handlers.RegisterResource[*models.ProjectDocument](rg, "/documents", svc, handlers.FilterParams[*models.ProjectDocument]("missionId", "clientId"))
	rg.POST("/documents/:id/file", upload(svc))
	rg.GET("/documents/:id/file", download(svc))
}

func upload(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.FilesEnabled() {
			handlers.RespondError(c, service.ErrStorageUnavailable)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxFileSize+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			handlers.RespondError(c, &domain.ValidationError{Message: "missing file", Fields: map[string]string{"file": "multipart field required"}})
			return
		}
		f, err := fh.Open()
		if err != nil {
			handlers.RespondError(c, domain.Invalid("could not read file"))
			return
		}
		defer f.Close()

		d, err := svc.Attach(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func download(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, expiresAt, err := svc.DownloadURL(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt})
	}
}
