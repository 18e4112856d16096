package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-merchant-auth/core"
)

type stubAuthService struct {
	beginFn    func(ctx context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error)
	callbackFn func(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
	refreshFn  func(ctx context.Context, merchantID string) (core.RefreshOutcome, error)
	revokeFn   func(ctx context.Context, merchantID string, client core.ClientContext) error
	statusFn   func(ctx context.Context, merchantID string) (core.CredentialSnapshot, error)
	configFn   func() core.Config
}

func (s *stubAuthService) BeginAuthorization(ctx context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error) {
	if s.beginFn == nil {
		return core.BeginAuthorizationResponse{}, errors.New("begin not stubbed")
	}
	return s.beginFn(ctx, req)
}

func (s *stubAuthService) HandleCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error) {
	if s.callbackFn == nil {
		return core.CallbackResult{}, errors.New("callback not stubbed")
	}
	return s.callbackFn(ctx, req)
}

func (s *stubAuthService) Refresh(ctx context.Context, merchantID string) (core.RefreshOutcome, error) {
	if s.refreshFn == nil {
		return core.RefreshOutcome{}, errors.New("refresh not stubbed")
	}
	return s.refreshFn(ctx, merchantID)
}

func (s *stubAuthService) Revoke(ctx context.Context, merchantID string, client core.ClientContext) error {
	if s.revokeFn == nil {
		return errors.New("revoke not stubbed")
	}
	return s.revokeFn(ctx, merchantID, client)
}

func (s *stubAuthService) Status(ctx context.Context, merchantID string) (core.CredentialSnapshot, error) {
	if s.statusFn == nil {
		return core.CredentialSnapshot{}, errors.New("status not stubbed")
	}
	return s.statusFn(ctx, merchantID)
}

func (s *stubAuthService) Config() core.Config {
	if s.configFn == nil {
		cfg := core.DefaultConfig()
		cfg.Zid.ClientID = "client-1"
		cfg.Zid.ClientSecret = "secret-1"
		cfg.Zid.RedirectURI = "https://app.example/auth/callback"
		return cfg
	}
	return s.configFn()
}

func doRequest(t *testing.T, service AuthService, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("User-Agent", "merchant-dashboard/2.1")
	recorder := httptest.NewRecorder()
	NewHandler(service).Routes().ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

func TestHandleAuthorize_ReturnsAuthorizationURL(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	var captured core.BeginAuthorizationRequest
	service := &stubAuthService{
		beginFn: func(_ context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error) {
			captured = req
			return core.BeginAuthorizationResponse{
				AuthorizationURL: "https://oauth.zid.sa/oauth/authorize?state=abc",
				State:            "abc",
				MerchantID:       req.MerchantID,
				ExpiresAt:        expires,
			}, nil
		},
	}

	recorder := doRequest(t, service, http.MethodPost, "/auth/authorize",
		`{"merchant_id":"store-42","scopes":["orders.read"]}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", recorder.Code, recorder.Body.String())
	}

	response := decodeBody[authorizeResponse](t, recorder)
	if response.AuthorizationURL != "https://oauth.zid.sa/oauth/authorize?state=abc" {
		t.Fatalf("unexpected authorization url: %q", response.AuthorizationURL)
	}
	if response.State != "abc" || response.MerchantID != "store-42" {
		t.Fatalf("unexpected response: %+v", response)
	}
	if captured.Client.IPAddress != "203.0.113.7" {
		t.Fatalf("client ip not derived from remote addr: %q", captured.Client.IPAddress)
	}
	if captured.Client.UserAgent != "merchant-dashboard/2.1" {
		t.Fatalf("user agent not forwarded: %q", captured.Client.UserAgent)
	}
	if len(captured.Scopes) != 1 || captured.Scopes[0] != "orders.read" {
		t.Fatalf("scopes not forwarded: %v", captured.Scopes)
	}
}

func TestHandleAuthorize_RejectsInvalidBody(t *testing.T) {
	recorder := doRequest(t, &stubAuthService{}, http.MethodPost, "/auth/authorize", `{"merchant_id":`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	envelope := decodeBody[errorEnvelope](t, recorder)
	if envelope.Error.TextCode != core.AuthErrorBadInput {
		t.Fatalf("unexpected text code: %q", envelope.Error.TextCode)
	}
}

func TestHandleCallback_ForwardsCodeAndState(t *testing.T) {
	storeID := int64(42)
	service := &stubAuthService{
		callbackFn: func(_ context.Context, req core.CallbackRequest) (core.CallbackResult, error) {
			if req.Code != "auth-code" || req.State != "state-token" {
				t.Fatalf("unexpected callback request: %+v", req)
			}
			return core.CallbackResult{
				MerchantID:   "store-42",
				CredentialID: "cred-1",
				StoreID:      &storeID,
			}, nil
		},
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/callback?code=auth-code&state=state-token", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", recorder.Code, recorder.Body.String())
	}

	response := decodeBody[callbackResponse](t, recorder)
	if response.MerchantID != "store-42" || response.CredentialID != "cred-1" {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.StoreID == nil || *response.StoreID != 42 {
		t.Fatalf("store id not rendered: %v", response.StoreID)
	}
}

func TestHandleCallback_StateFailureRendersUnauthorized(t *testing.T) {
	service := &stubAuthService{
		callbackFn: func(context.Context, core.CallbackRequest) (core.CallbackResult, error) {
			return core.CallbackResult{}, goerrors.New(
				"invalid or expired authorization state",
				goerrors.CategoryAuth,
			).WithCode(http.StatusUnauthorized).WithTextCode(core.AuthErrorStateInvalid)
		},
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/callback?code=x&state=forged", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	envelope := decodeBody[errorEnvelope](t, recorder)
	if envelope.Error.TextCode != core.AuthErrorStateInvalid {
		t.Fatalf("unexpected text code: %q", envelope.Error.TextCode)
	}
	if envelope.Error.Message != "invalid or expired authorization state" {
		t.Fatalf("unexpected message: %q", envelope.Error.Message)
	}
}

func TestHandleCallback_ProviderDenialShortCircuits(t *testing.T) {
	service := &stubAuthService{
		callbackFn: func(context.Context, core.CallbackRequest) (core.CallbackResult, error) {
			t.Fatalf("service must not be called on upstream denial")
			return core.CallbackResult{}, nil
		},
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/callback?error=access_denied", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	envelope := decodeBody[errorEnvelope](t, recorder)
	if envelope.Error.TextCode != core.AuthErrorStateInvalid {
		t.Fatalf("unexpected text code: %q", envelope.Error.TextCode)
	}
	if envelope.Error.Message != "authorization was not granted" {
		t.Fatalf("unexpected message: %q", envelope.Error.Message)
	}
}

func TestHandleStatus_UsesPathMerchantID(t *testing.T) {
	service := &stubAuthService{
		statusFn: func(_ context.Context, merchantID string) (core.CredentialSnapshot, error) {
			if merchantID != "store-42" {
				t.Fatalf("unexpected merchant id: %q", merchantID)
			}
			return core.CredentialSnapshot{MerchantID: merchantID, Active: true, NeedsRefresh: true}, nil
		},
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/status/store-42", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	response := decodeBody[statusResponse](t, recorder)
	if !response.Active || !response.NeedsRefresh {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestHandleStatus_NotFoundRenders404(t *testing.T) {
	service := &stubAuthService{
		statusFn: func(context.Context, string) (core.CredentialSnapshot, error) {
			return core.CredentialSnapshot{}, goerrors.New(
				"credential not found",
				goerrors.CategoryNotFound,
			).WithCode(http.StatusNotFound).WithTextCode(core.AuthErrorCredentialNotFound)
		},
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/status/store-99", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	envelope := decodeBody[errorEnvelope](t, recorder)
	if envelope.Error.TextCode != core.AuthErrorCredentialNotFound {
		t.Fatalf("unexpected text code: %q", envelope.Error.TextCode)
	}
}

func TestHandleRefresh_RendersOutcome(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	service := &stubAuthService{
		refreshFn: func(_ context.Context, merchantID string) (core.RefreshOutcome, error) {
			return core.RefreshOutcome{MerchantID: merchantID, Refreshed: true, ExpiresAt: expires}, nil
		},
	}

	recorder := doRequest(t, service, http.MethodPost, "/auth/refresh/store-42", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	response := decodeBody[refreshResponse](t, recorder)
	if response.MerchantID != "store-42" || !response.Refreshed {
		t.Fatalf("unexpected response: %+v", response)
	}
	if !response.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expiry: %v", response.ExpiresAt)
	}
}

func TestHandleRevoke_ForwardsClientContext(t *testing.T) {
	var captured core.ClientContext
	service := &stubAuthService{
		revokeFn: func(_ context.Context, merchantID string, client core.ClientContext) error {
			if merchantID != "store-42" {
				t.Fatalf("unexpected merchant id: %q", merchantID)
			}
			captured = client
			return nil
		},
	}

	recorder := doRequest(t, service, http.MethodPost, "/auth/revoke/store-42", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if captured.IPAddress != "203.0.113.7" || captured.UserAgent != "merchant-dashboard/2.1" {
		t.Fatalf("client context not forwarded: %+v", captured)
	}

	response := decodeBody[revokeResponse](t, recorder)
	if !response.Revoked {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestWriteError_UnmappedErrorHidesDetail(t *testing.T) {
	service := &stubAuthService{
		refreshFn: func(context.Context, string) (core.RefreshOutcome, error) {
			return core.RefreshOutcome{}, errors.New("pq: connection refused at 10.0.0.3")
		},
	}

	recorder := doRequest(t, service, http.MethodPost, "/auth/refresh/store-42", "")
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	envelope := decodeBody[errorEnvelope](t, recorder)
	if envelope.Error.Message != "An unexpected error occurred" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
	if envelope.Error.TextCode != core.AuthErrorInternal {
		t.Fatalf("unexpected text code: %q", envelope.Error.TextCode)
	}
}

func TestHandleHealth(t *testing.T) {
	recorder := doRequest(t, &stubAuthService{}, http.MethodGet, "/auth/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	body := decodeBody[healthResponse](t, recorder)
	if body.Status != "ok" {
		t.Fatalf("unexpected health payload: %+v", body)
	}
	if !body.OAuthConfigured {
		t.Fatalf("expected oauth_configured with full client config")
	}
}

func TestHandleHealth_ReportsMissingOAuthConfig(t *testing.T) {
	service := &stubAuthService{
		configFn: func() core.Config { return core.DefaultConfig() },
	}

	recorder := doRequest(t, service, http.MethodGet, "/auth/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}

	body := decodeBody[healthResponse](t, recorder)
	if body.Status != "ok" || body.OAuthConfigured {
		t.Fatalf("expected live but unconfigured payload, got %+v", body)
	}
}

func TestClientContextFrom_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/health", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")

	client := clientContextFrom(req)
	if client.IPAddress != "198.51.100.4" {
		t.Fatalf("forwarded address not used: %q", client.IPAddress)
	}
}
