package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/sessions"
)

type api struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test-secret-32-bytes-xxxxx"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	cfg.JWT.CookieName = "tuma_session"
	deps := Build(cfg, MemoryRepos(), sessions.NewService(sessions.NewMemoryRepository()), nil, nil, nil)
	return &api{t: t, r: NewRouter(deps)}
}

func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// ok asserts the status and decodes the body into v.
func (a *api) ok(w *httptest.ResponseRecorder, status int, v interface{}) {
	a.t.Helper()
	require.Equal(a.t, status, w.Code, w.Body.String())
	if v != nil {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v))
	}
}

func (a *api) login(email string) {
	a.t.Helper()
	var tr struct {
		AccessToken string `json:"accessToken"`
	}
	a.ok(a.do(http.MethodPost, "/api/auth/register", `{"email":"`+email+`","password":"s3cret-pass","name":"Freelance"}`), http.StatusCreated, &tr)
	a.token = tr.AccessToken
}

func TestProbes(t *testing.T) {
	a := newAPI(t)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "").Code)
	w := a.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"files":false`)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/swagger/doc.json", "").Code)
	require.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/clients", "").Code)
}

func TestQuoteToMissionFlow(t *testing.T) {
	a := newAPI(t)
	a.login("flow@example.com")

	var client models.Client
	a.ok(a.do(http.MethodPost, "/api/clients", `{"name":"Boulangerie Diallo","email":"Contact@Diallo.sn"}`), http.StatusCreated, &client)
	require.Equal(t, "contact@diallo.sn", client.Email)

	var q models.Quote
	a.ok(a.do(http.MethodPost, "/api/quotes", `{
		"clientId":"`+client.ID+`",
		"title":"Site vitrine",
		"taxRate":20,
		"items":[{"description":"Maquettes","quantity":2,"unitPrice":300},{"description":"Intégration","quantity":1,"unitPrice":1000}]
	}`), http.StatusCreated, &q)
	require.Equal(t, "Boulangerie Diallo", q.ClientName)
	require.InDelta(t, 1920, q.Total, 0.001)
	require.True(t, strings.HasPrefix(q.QuoteNumber, "DEV-"))

	w := a.do(http.MethodPatch, "/api/quotes/"+q.ID, `{"status":"Signé"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	a.ok(a.do(http.MethodPatch, "/api/quotes/"+q.ID, `{"status":"Accepté"}`), http.StatusOK, &q)
	require.NotEmpty(t, q.MissionID)
	require.NotNil(t, q.AcceptedAt)

	var m models.Mission
	a.ok(a.do(http.MethodGet, "/api/missions/"+q.MissionID, ""), http.StatusOK, &m)
	require.Equal(t, q.QuoteNumber+" - Site vitrine", m.Title)
	require.Equal(t, models.MissionTodo, m.Status)
	require.InDelta(t, 1920, m.Budget, 0.001)
	require.Len(t, m.Checklist, 2)
	require.Equal(t, "2 x Maquettes", m.Checklist[0].Label)

	// closing without verification is refused
	w = a.do(http.MethodPatch, "/api/missions/"+m.ID, `{"status":"Terminé"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_INPUT")

	// verification without proof is refused but the update succeeds
	a.ok(a.do(http.MethodPatch, "/api/missions/"+m.ID, `{"requestVerification":true}`), http.StatusOK, &m)
	require.Equal(t, models.VerificationRefused, m.VerificationStatus)
	require.Equal(t, models.MissionTodo, m.Status)

	a.ok(a.do(http.MethodPatch, "/api/missions/"+m.ID, `{"evidence":["https://drive.example.com/livrable.zip"],"requestVerification":true}`), http.StatusOK, &m)
	require.Equal(t, models.VerificationApproved, m.VerificationStatus)
	require.Equal(t, models.MissionDone, m.Status)

	// accepting again does not create a second mission
	a.ok(a.do(http.MethodPatch, "/api/quotes/"+q.ID, `{"status":"Envoyé"}`), http.StatusOK, nil)
	a.ok(a.do(http.MethodPatch, "/api/quotes/"+q.ID, `{"status":"Accepté"}`), http.StatusOK, nil)
	var page struct {
		Total int `json:"total"`
	}
	a.ok(a.do(http.MethodGet, "/api/missions?quoteId="+q.ID, ""), http.StatusOK, &page)
	require.Equal(t, 1, page.Total)

	// client rollups
	a.ok(a.do(http.MethodGet, "/api/clients/"+client.ID, ""), http.StatusOK, &client)
	require.Equal(t, 1, client.QuotesCount)
	require.Equal(t, 1, client.MissionsCount)

	// conversion to an invoice happens once
	var inv models.Invoice
	a.ok(a.do(http.MethodPost, "/api/quotes/"+q.ID+"/invoice", ""), http.StatusCreated, &inv)
	require.Equal(t, models.InvoiceDraft, inv.Status)
	require.InDelta(t, 1920, inv.Total, 0.001)
	a.ok(a.do(http.MethodPost, "/api/quotes/"+q.ID+"/invoice", ""), http.StatusOK, nil)

	// another user sees none of it
	b := &api{t: t, r: a.r}
	b.login("other@example.com")
	require.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/api/quotes/"+q.ID, "").Code)
}

func TestPublicQuoteLink(t *testing.T) {
	a := newAPI(t)
	a.login("share@example.com")

	var q models.Quote
	a.ok(a.do(http.MethodPost, "/api/quotes", `{"title":"Logo","status":"Envoyé","items":[{"description":"Logo","quantity":1,"unitPrice":500}]}`), http.StatusCreated, &q)

	var share struct {
		ShareToken string `json:"shareToken"`
	}
	a.ok(a.do(http.MethodPost, "/api/quotes/"+q.ID+"/share", ""), http.StatusOK, &share)
	require.NotEmpty(t, share.ShareToken)

	anon := &api{t: t, r: a.r}
	w := anon.do(http.MethodGet, "/api/public/quotes/"+share.ShareToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "userId")
	require.Contains(t, w.Body.String(), q.QuoteNumber)

	w = anon.do(http.MethodPost, "/api/public/quotes/"+share.ShareToken+"/suggestions", `{"message":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = anon.do(http.MethodPost, "/api/public/quotes/"+share.ShareToken+"/suggestions", `{"author":"Mme Ndiaye","message":"Pouvez-vous ajouter une variante couleur ?"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "Mme Ndiaye")

	anon.ok(anon.do(http.MethodPost, "/api/public/quotes/"+share.ShareToken+"/accept", ""), http.StatusOK, nil)
	anon.ok(anon.do(http.MethodPost, "/api/public/quotes/"+share.ShareToken+"/accept", ""), http.StatusOK, nil)
	w = anon.do(http.MethodPost, "/api/public/quotes/"+share.ShareToken+"/refuse", "")
	require.Equal(t, http.StatusConflict, w.Code)

	a.ok(a.do(http.MethodGet, "/api/quotes/"+q.ID, ""), http.StatusOK, &q)
	require.Equal(t, models.QuoteAccepted, q.Status)
	require.NotEmpty(t, q.MissionID)

	a.ok(a.do(http.MethodDelete, "/api/quotes/"+q.ID+"/share", ""), http.StatusOK, nil)
	require.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/api/public/quotes/"+share.ShareToken, "").Code)
}

func TestPlanningAndDashboard(t *testing.T) {
	a := newAPI(t)
	a.login("planning@example.com")

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	a.ok(a.do(http.MethodPost, "/api/planning/events", `{"title":"Point client","start":"`+start.Format(time.RFC3339)+`","type":"Appel"}`), http.StatusCreated, nil)
	a.ok(a.do(http.MethodPost, "/api/planning/events", `{"title":"Bilan","start":"2020-01-10T09:00:00Z"}`), http.StatusCreated, nil)

	var page struct {
		Items []models.Event `json:"items"`
		Total int            `json:"total"`
	}
	a.ok(a.do(http.MethodGet, "/api/planning/events?from="+start.Add(-time.Hour).Format("2006-01-02"), ""), http.StatusOK, &page)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Point client", page.Items[0].Title)

	require.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/planning/events?from=tomorrow", "").Code)
	require.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/planning/events?page=-1", "").Code)

	a.ok(a.do(http.MethodPost, "/api/planning/time-entries", `{"minutes":90,"billable":true,"hourlyRate":40,"date":"2025-03-01T09:00:00Z"}`), http.StatusCreated, nil)

	var ov struct {
		Stats struct {
			UpcomingEvents int `json:"upcomingEvents"`
		} `json:"stats"`
		Activity []struct {
			Kind string `json:"kind"`
		} `json:"activity"`
	}
	a.ok(a.do(http.MethodGet, "/api/dashboard", ""), http.StatusOK, &ov)
	require.Equal(t, 1, ov.Stats.UpcomingEvents)
	require.Len(t, ov.Activity, 2)
	require.Equal(t, "event", ov.Activity[0].Kind)

	var rev struct {
		Year   int `json:"year"`
		Months []struct {
			Month int `json:"month"`
		} `json:"months"`
	}
	a.ok(a.do(http.MethodGet, "/api/reports/revenue?year=2024", ""), http.StatusOK, &rev)
	require.Equal(t, 2024, rev.Year)
	require.Len(t, rev.Months, 12)
	require.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/reports/revenue?year=abc", "").Code)
}

func TestValidationErrorDetails(t *testing.T) {
	a := newAPI(t)
	a.login("details@example.com")

	var body struct {
		Error   string            `json:"error"`
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	a.ok(a.do(http.MethodPost, "/api/clients", `{"email":"pas-un-email"}`), http.StatusBadRequest, &body)
	require.Equal(t, "INVALID_INPUT", body.Code)
	require.Contains(t, body.Details, "name")
	require.Contains(t, body.Details, "email")
}
