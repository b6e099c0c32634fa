package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// RespondError writes {"error", "code"} with the status mapped from err. Validation
// errors also carry "details"; unexpected errors are logged and reported generically.
func RespondError(c *gin.Context, err error) {
	status, code := domain.Status(err)
	body := gin.H{"error": err.Error(), "code": code}
	var fe *domain.ValidationError
	if errors.As(err, &fe) && len(fe.Fields) > 0 {
		body["details"] = fe.Fields
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.With("method", c.Request.Method, "path", c.Request.URL.Path).Errorw("request failed", "error", err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

// readBody returns the raw JSON body, rejecting empty or oversized payloads.
func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, domain.Invalid("could not read body")
	}
	if len(raw) > maxBodyBytes {
		return nil, domain.Invalid("body too large")
	}
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, domain.Invalid("invalid JSON body")
	}
	return raw, nil
}

// bindJSON decodes the body into v.
func bindJSON(c *gin.Context, v interface{}) bool {
	raw, err := readBody(c)
	if err == nil {
		if uerr := json.Unmarshal(raw, v); uerr != nil {
			err = domain.Invalid("invalid field: " + uerr.Error())
		}
	}
	if err != nil {
		RespondError(c, err)
		return false
	}
	return true
}
