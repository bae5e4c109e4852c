// Package handler exposes the admin credential-token endpoints. The full
// token value appears exactly once, in the issue and regenerate responses;
// every listing is redacted.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"supportdesk/internal/audit"
	"supportdesk/internal/role"
	"supportdesk/internal/server/httpx"
	"supportdesk/internal/server/middleware"
	tokendomain "supportdesk/internal/token/domain"
	tokenservice "supportdesk/internal/token/service"
)

// TokenHandler serves the admin token endpoints.
type TokenHandler struct {
	issuer *tokenservice.Issuer
	audit  audit.AuditLogger
}

// NewTokenHandler wires the admin token endpoints. auditLogger may be nil.
func NewTokenHandler(issuer *tokenservice.Issuer, auditLogger audit.AuditLogger) *TokenHandler {
	return &TokenHandler{issuer: issuer, audit: auditLogger}
}

// Register mounts the endpoints on the admin router.
func (h *TokenHandler) Register(r *mux.Router) {
	r.HandleFunc("/tokens", h.Issue).Methods(http.MethodPost)
	r.HandleFunc("/tokens", h.List).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{id}/disable", h.Disable).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{id}/regenerate", h.Regenerate).Methods(http.MethodPost)
}

type issueRequest struct {
	Role        string `json:"role"`
	Description string `json:"description"`
	TTLHours    int    `json:"ttlHours"` // 0 means no expiry
}

// issuedResponse carries the full value. Returned only from Issue and
// Regenerate.
type issuedResponse struct {
	ID          string     `json:"id"`
	Value       string     `json:"value"`
	Role        string     `json:"role"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type redactedResponse struct {
	ID          string     `json:"id"`
	Value       string     `json:"value"` // redacted
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	CreatedBy   string     `json:"createdBy"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Issue mints a new single-use credential token for the requested role.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	tokenRole, err := role.Parse(req.Role)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "unknown role")
		return
	}
	actor, _ := middleware.GetPrincipalID(r.Context())
	ttl := time.Duration(req.TTLHours) * time.Hour

	tok, err := h.issuer.Issue(r.Context(), tokenRole, actor, req.Description, ttl)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logEvent(r.Context(), actor, audit.ActionIssue, tok.ID)
	httpx.JSON(w, http.StatusCreated, issuedResponse{
		ID:          tok.ID,
		Value:       tok.Value,
		Role:        tok.Role,
		Description: tok.Description,
		CreatedAt:   tok.CreatedAt,
		ExpiresAt:   tok.ExpiresAt,
	})
}

// List returns every token with its value redacted.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.issuer.List(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]redactedResponse, len(tokens))
	for i, tok := range tokens {
		out[i] = toRedacted(tok)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Disable retires a token. Disabling an already-inactive token is a no-op.
func (h *TokenHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.issuer.Disable(r.Context(), id); err != nil {
		if errors.Is(err, tokenservice.ErrTokenNotFound) {
			httpx.Error(w, http.StatusNotFound, "token not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	actor, _ := middleware.GetPrincipalID(r.Context())
	h.logEvent(r.Context(), actor, audit.ActionDisable, id)
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate retires a token and issues a fresh value with the same role
// and description. The new value is returned once.
func (h *TokenHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	actor, _ := middleware.GetPrincipalID(r.Context())

	tok, err := h.issuer.Regenerate(r.Context(), id, actor)
	if err != nil {
		if errors.Is(err, tokenservice.ErrTokenNotFound) {
			httpx.Error(w, http.StatusNotFound, "token not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logEvent(r.Context(), actor, audit.ActionRegenerate, id+" -> "+tok.ID)
	httpx.JSON(w, http.StatusCreated, issuedResponse{
		ID:          tok.ID,
		Value:       tok.Value,
		Role:        tok.Role,
		Description: tok.Description,
		CreatedAt:   tok.CreatedAt,
		ExpiresAt:   tok.ExpiresAt,
	})
}

func (h *TokenHandler) logEvent(ctx context.Context, actor, action, metadata string) {
	if h.audit != nil {
		h.audit.LogEvent(ctx, actor, action, audit.ResourceToken, metadata)
	}
}

func toRedacted(tok *tokendomain.Token) redactedResponse {
	return redactedResponse{
		ID:          tok.ID,
		Value:       tok.Redacted(),
		Role:        tok.Role,
		Active:      tok.Active,
		CreatedBy:   tok.CreatedBy,
		Description: tok.Description,
		CreatedAt:   tok.CreatedAt,
		ExpiresAt:   tok.ExpiresAt,
	}
}
