package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/quotes"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

// QuoteHandler serves the quote actions that go beyond CRUD and the public share link.
type QuoteHandler struct {
	svc *quotes.Service
}

func NewQuoteHandler(svc *quotes.Service) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// Register mounts /quotes on the authenticated group.
func (h *QuoteHandler) Register(rg *gin.RouterGroup) {
	RegisterResource[*models.Quote](rg, "/quotes", h.svc, FilterParams[*models.Quote]("clientId"))
	rg.POST("/quotes/:id/share", h.Share)
	rg.DELETE("/quotes/:id/share", h.Unshare)
	rg.POST("/quotes/:id/invoice", h.CreateInvoice)
}

// RegisterPublic mounts the token-addressed routes; they carry no authentication.
func (h *QuoteHandler) RegisterPublic(rg *gin.RouterGroup) {
	p := rg.Group("/public/quotes/:token")
	p.GET("", h.PublicGet)
	p.POST("/suggestions", h.PublicSuggest)
	p.POST("/accept", h.respond(true))
	p.POST("/refuse", h.respond(false))
}

func (h *QuoteHandler) Share(c *gin.Context) {
	q, err := h.svc.Share(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareToken": q.ShareToken, "sharedAt": q.SharedAt, "quote": q})
}

func (h *QuoteHandler) Unshare(c *gin.Context) {
	q, err := h.svc.Unshare(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// CreateInvoice answers 201 with a new invoice, or 200 with the one made earlier.
func (h *QuoteHandler) CreateInvoice(c *gin.Context) {
	inv, created, err := h.svc.CreateInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, inv)
}

// publicQuote is what a share-link holder sees.
type publicQuote struct {
	QuoteNumber string                   `json:"quoteNumber"`
	ClientName  string                   `json:"clientName,omitempty"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Items       []models.LineItem        `json:"items"`
	TaxRate     float64                  `json:"taxRate"`
	Subtotal    float64                  `json:"subtotal"`
	TaxAmount   float64                  `json:"taxAmount"`
	Total       float64                  `json:"total"`
	Status      models.QuoteStatus       `json:"status"`
	ValidUntil  *time.Time               `json:"validUntil,omitempty"`
	Suggestions []models.QuoteSuggestion `json:"suggestions"`
	CreatedAt   time.Time                `json:"createdAt"`
}

func toPublic(q *models.Quote) publicQuote {
	sugg := q.Suggestions
	if sugg == nil {
		sugg = []models.QuoteSuggestion{}
	}
	return publicQuote{
		QuoteNumber: q.QuoteNumber,
		ClientName:  q.ClientName,
		Title:       q.Title,
		Description: q.Description,
		Items:       q.Items,
		TaxRate:     q.TaxRate,
		Subtotal:    q.Subtotal,
		TaxAmount:   q.TaxAmount,
		Total:       q.Total,
		Status:      q.Status,
		ValidUntil:  q.ValidUntil,
		Suggestions: sugg,
		CreatedAt:   q.CreatedAt,
	}
}

func (h *QuoteHandler) PublicGet(c *gin.Context) {
	q, err := h.svc.ByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublic(q))
}

func (h *QuoteHandler) PublicSuggest(c *gin.Context) {
	var in quotes.SuggestionInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.svc.AddSuggestion(c.Request.Context(), c.Param("token"), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPublic(q))
}

func (h *QuoteHandler) respond(accept bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := h.svc.Respond(c.Request.Context(), c.Param("token"), accept)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toPublic(q))
	}
}
