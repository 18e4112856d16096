package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-merchant-auth/core"
)

const maxRequestBodyBytes int64 = 64 << 10

// AuthService is the slice of the credential manager the HTTP surface needs.
type AuthService interface {
	BeginAuthorization(ctx context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error)
	HandleCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
	Refresh(ctx context.Context, merchantID string) (core.RefreshOutcome, error)
	Revoke(ctx context.Context, merchantID string, client core.ClientContext) error
	Status(ctx context.Context, merchantID string) (core.CredentialSnapshot, error)
	Config() core.Config
}

type Handler struct {
	service AuthService
	logger  core.Logger
}

type HandlerOption func(*Handler)

func WithLogger(logger core.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(service AuthService, opts ...HandlerOption) *Handler {
	h := &Handler{service: service}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes mounts the auth endpoints on a fresh mux. Callers embed the returned
// mux under whatever prefix their server uses.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/authorize", h.handleAuthorize)
	mux.HandleFunc("GET /auth/callback", h.handleCallback)
	mux.HandleFunc("GET /auth/status/{merchant_id}", h.handleStatus)
	mux.HandleFunc("POST /auth/refresh/{merchant_id}", h.handleRefresh)
	mux.HandleFunc("POST /auth/revoke/{merchant_id}", h.handleRevoke)
	mux.HandleFunc("GET /auth/health", h.handleHealth)
	return mux
}

type authorizeRequest struct {
	MerchantID string   `json:"merchant_id"`
	Scopes     []string `json:"scopes,omitempty"`
}

type authorizeResponse struct {
	AuthorizationURL string    `json:"authorization_url"`
	State            string    `json:"state"`
	MerchantID       string    `json:"merchant_id"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var payload authorizeRequest
	if err := decodeJSONBody(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Message:  "invalid request body",
			TextCode: core.AuthErrorBadInput,
		}})
		return
	}

	response, err := h.service.BeginAuthorization(r.Context(), core.BeginAuthorizationRequest{
		MerchantID: payload.MerchantID,
		Scopes:     payload.Scopes,
		Client:     clientContextFrom(r),
	})
	if err != nil {
		h.logFailure(r, "begin authorization", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authorizeResponse{
		AuthorizationURL: response.AuthorizationURL,
		State:            response.State,
		MerchantID:       response.MerchantID,
		ExpiresAt:        response.ExpiresAt,
	})
}

type callbackResponse struct {
	MerchantID   string    `json:"merchant_id"`
	CredentialID string    `json:"credential_id"`
	StoreID      *int64    `json:"store_id,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if denial := strings.TrimSpace(query.Get("error")); denial != "" {
		// The merchant declined consent or the platform aborted the flow.
		// There is no code to exchange, so never reach the service.
		h.logFailure(r, "oauth callback", errors.New("authorization denied upstream: "+denial))
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
			Message:  "authorization was not granted",
			TextCode: core.AuthErrorStateInvalid,
		}})
		return
	}
	result, err := h.service.HandleCallback(r.Context(), core.CallbackRequest{
		Code:   strings.TrimSpace(query.Get("code")),
		State:  strings.TrimSpace(query.Get("state")),
		Client: clientContextFrom(r),
	})
	if err != nil {
		h.logFailure(r, "oauth callback", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		MerchantID:   result.MerchantID,
		CredentialID: result.CredentialID,
		StoreID:      result.StoreID,
		ExpiresAt:    result.ExpiresAt,
	})
}

type statusResponse struct {
	MerchantID   string    `json:"merchant_id"`
	StoreID      *int64    `json:"store_id,omitempty"`
	Active       bool      `json:"is_active"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	NeedsRefresh bool      `json:"needs_refresh"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Status(r.Context(), r.PathValue("merchant_id"))
	if err != nil {
		h.logFailure(r, "credential status", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		MerchantID:   snapshot.MerchantID,
		StoreID:      snapshot.StoreID,
		Active:       snapshot.Active,
		ExpiresAt:    snapshot.ExpiresAt,
		UpdatedAt:    snapshot.UpdatedAt,
		NeedsRefresh: snapshot.NeedsRefresh,
	})
}

type refreshResponse struct {
	MerchantID string    `json:"merchant_id"`
	Refreshed  bool      `json:"refreshed"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Refresh(r.Context(), r.PathValue("merchant_id"))
	if err != nil {
		h.logFailure(r, "credential refresh", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		MerchantID: outcome.MerchantID,
		Refreshed:  outcome.Refreshed,
		ExpiresAt:  outcome.ExpiresAt,
	})
}

type revokeResponse struct {
	MerchantID string `json:"merchant_id"`
	Revoked    bool   `json:"revoked"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	merchantID := r.PathValue("merchant_id")
	if err := h.service.Revoke(r.Context(), merchantID, clientContextFrom(r)); err != nil {
		h.logFailure(r, "credential revoke", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, revokeResponse{MerchantID: merchantID, Revoked: true})
}

type healthResponse struct {
	Status          string `json:"status"`
	OAuthConfigured bool   `json:"oauth_configured"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		OAuthConfigured: h.service.Config().ValidateOAuthClient() == nil,
	})
}

func (h *Handler) logFailure(r *http.Request, operation string, err error) {
	if h == nil || h.logger == nil {
		return
	}
	logger := h.logger.WithContext(r.Context())
	logger.Error(operation+" failed", "path", r.URL.Path, "error", err.Error())
}

func decodeJSONBody(r *http.Request, target any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func clientContextFrom(r *http.Request) core.ClientContext {
	if r == nil {
		return core.ClientContext{}
	}
	ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if idx := strings.IndexByte(ip, ','); idx >= 0 {
		ip = strings.TrimSpace(ip[:idx])
	}
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	return core.ClientContext{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}
