package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/oidc"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/internal/tokens"
	"github.com/tuma-app/tuma/backend/internal/users"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	access      middleware.Verifier
	sso         middleware.Verifier
}

// NewAuthHandler wires the auth endpoints. access verifies the tokens this service issues;
// sso may be nil when single sign-on is not configured.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, access, sso middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, access: access, sso: sso}
}

// Register mounts /auth under rg. loginLimit guards the credential endpoints; requireAuth
// protects the account endpoints.
func (h *AuthHandler) Register(rg *gin.RouterGroup, loginLimit, requireAuth gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", loginLimit, h.SignUp)
	a.POST("/login", loginLimit, h.Login)
	a.POST("/sso", loginLimit, h.SSO)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)

	me := a.Group("", requireAuth)
	me.GET("/me", h.Me)
	me.GET("/sessions", h.Sessions)
	me.DELETE("/sessions/:id", h.RevokeSession)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func device(c *gin.Context) sessions.Device {
	return sessions.Device{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

// issue creates a device session and an access token bound to it.
func (h *AuthHandler) issue(c *gin.Context, status int, u *models.User) {
	sess, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID, device(c), h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		RespondError(c, err)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, sess.ID, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.setCookie(c, access, h.cfg.JWT.AccessTokenTTL)
	logger.With("userId", u.ID, "sessionId", sess.ID).Infow("session opened", "ip", sess.IP)
	c.JSON(status, gin.H{
		"accessToken":  access,
		"refreshToken": sess.RefreshToken,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
		"sessionId":    sess.ID,
		"user":         u,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	if h.cfg.JWT.CookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.JWT.CookieName, value, int(ttl.Seconds()), "/", "", h.cfg.JWT.CookieSecure, true)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in users.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, u)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		RespondError(c, domain.Invalid("email and password are required"))
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}

// SSO exchanges an OIDC ID token for a session.
func (h *AuthHandler) SSO(c *gin.Context) {
	if h.sso == nil {
		RespondError(c, &domain.UnavailableError{Message: "single sign-on is not configured"})
		return
	}
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !bindJSON(c, &req) {
		return
	}
	id, err := oidc.IdentityFrom(c.Request.Context(), h.sso, req.IDToken)
	if err != nil {
		RespondError(c, &domain.UnauthorizedError{Message: "invalid id token"})
		return
	}
	u, err := h.usersSvc.UpsertFromIdentity(c.Request.Context(), id.Subject, id.Email, id.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}

// Refresh accepts a refresh token and returns a new access token for the same session.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		RespondError(c, domain.Invalid("refreshToken is required"))
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken, device(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	if sess == nil {
		RespondError(c, &domain.UnauthorizedError{Message: "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		RespondError(c, &domain.UnauthorizedError{Message: "invalid refresh token"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, sess.ID, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.setCookie(c, access, h.cfg.JWT.AccessTokenTTL)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout blacklists the presented access token for its remaining lifetime and drops the
// refresh session. Both parts are optional so a half-expired client can still log out.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	ctx := c.Request.Context()
	if raw, ok := middleware.ExtractToken(c, h.cfg.JWT.CookieName); ok && raw != "" && h.access != nil {
		if tok, err := h.access.Verify(ctx, raw); err == nil {
			var claims map[string]interface{}
			if tok.Claims(&claims) == nil {
				if err := sessions.BlacklistAccessToken(ctx, raw, tokens.ExpiresIn(claims)); err != nil {
					RespondError(c, &domain.UnavailableError{Message: "failed to revoke access token"})
					return
				}
			}
		}
	}
	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(ctx, req.RefreshToken); err != nil {
			RespondError(c, err)
			return
		}
	}
	h.setCookie(c, "", -time.Second)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.usersSvc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Sessions lists the user's devices, flagging the one making the request.
func (h *AuthHandler) Sessions(c *gin.Context) {
	list, err := h.sessionsSvc.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	current, _ := middleware.Claims(c)["sid"].(string)
	out := make([]gin.H, 0, len(list))
	for _, s := range list {
		out = append(out, gin.H{
			"id":         s.ID,
			"userAgent":  s.UserAgent,
			"ip":         s.IP,
			"createdAt":  s.CreatedAt,
			"lastSeenAt": s.LastSeenAt,
			"expiresAt":  s.ExpiresAt,
			"current":    s.ID == current,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *AuthHandler) RevokeSession(c *gin.Context) {
	err := h.sessionsSvc.Revoke(c.Request.Context(), middleware.UserID(c), c.Param("id"), h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
