package zid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-merchant-auth/core"
)

const (
	authorizePath      = "/oauth/authorize"
	tokenPath          = "/oauth/token"
	managerProfilePath = "/v1/managers/account/profile"

	grantTypeAuthorizationCode = "authorization_code"
	grantTypeRefreshToken      = "refresh_token"

	defaultRequestTimeout = 15 * time.Second

	// maxResponseBodyBytes bounds how much of an upstream response body
	// is read when decoding token and profile payloads.
	maxResponseBodyBytes = 1 << 20
)

// HTTPDoer abstracts the transport so tests can stub upstream responses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the OAuth client registration and endpoint bases for a
// Zid application.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	OAuthBaseURL string
	APIBaseURL   string

	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Client talks to the Zid OAuth and merchant APIs. It implements
// core.TokenExchanger and core.ProfileFetcher.
type Client struct {
	cfg Config
}

// NewClient validates the registration and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("zid: oauth client is not configured: client_id is empty")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("zid: oauth client is not configured: client_secret is empty")
	}
	if strings.TrimSpace(cfg.RedirectURI) == "" {
		return nil, fmt.Errorf("zid: oauth client is not configured: redirect_uri is empty")
	}
	if strings.TrimSpace(cfg.OAuthBaseURL) == "" {
		cfg.OAuthBaseURL = core.DefaultOAuthBaseURL
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = core.DefaultAPIBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	cfg.OAuthBaseURL = strings.TrimRight(cfg.OAuthBaseURL, "/")
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &Client{cfg: cfg}, nil
}

// NewClientFromConfig builds a client from the resolved service
// configuration.
func NewClientFromConfig(cfg core.ZidConfig) (*Client, error) {
	return NewClient(Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		OAuthBaseURL: cfg.OAuthBaseURL,
		APIBaseURL:   cfg.APIBaseURL,
	})
}

// AuthorizeURL builds the merchant-facing authorization redirect.
func (c *Client) AuthorizeURL(state string, scopes []string) (string, error) {
	if strings.TrimSpace(state) == "" {
		return "", fmt.Errorf("zid: authorize url requires a state parameter")
	}
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", c.cfg.ClientID)
	values.Set("redirect_uri", c.cfg.RedirectURI)
	if len(scopes) > 0 {
		values.Set("scope", strings.Join(scopes, " "))
	}
	values.Set("state", state)
	return c.cfg.OAuthBaseURL + authorizePath + "?" + values.Encode(), nil
}

// ExchangeAuthorizationCode redeems a callback code for the Zid token
// triple. All three tokens are required on this grant.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) (core.TokenGrant, error) {
	if strings.TrimSpace(code) == "" {
		return core.TokenGrant{}, fmt.Errorf("zid: authorization code is required")
	}
	form := url.Values{}
	form.Set("grant_type", grantTypeAuthorizationCode)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.requestGrant(ctx, form, true)
}

// ExchangeRefreshToken rotates the token triple using a refresh token.
// Zid may omit refresh_token from the response; callers keep the stored
// one in that case, so it is not required here.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (core.TokenGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return core.TokenGrant{}, fmt.Errorf("zid: refresh token is required")
	}
	form := url.Values{}
	form.Set("grant_type", grantTypeRefreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.requestGrant(ctx, form, false)
}

func (c *Client) requestGrant(ctx context.Context, form url.Values, requireRefreshToken bool) (core.TokenGrant, error) {
	endpoint := c.cfg.OAuthBaseURL + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return core.TokenGrant{}, newExchangeError(0, "", "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return core.TokenGrant{}, newExchangeError(0, "", "token endpoint request failed", err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body)
	if err != nil {
		return core.TokenGrant{}, newExchangeError(resp.StatusCode, "", "read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code, message := parseErrorPayload(body)
		return core.TokenGrant{}, newExchangeError(resp.StatusCode, code, message, nil)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.TokenGrant{}, malformedResponseError("token response is not valid JSON")
	}

	grant := core.TokenGrant{
		AccessToken:        readAnyString(payload["access_token"]),
		AuthorizationToken: readAnyString(payload["Authorization"]),
		RefreshToken:       readAnyString(payload["refresh_token"]),
		ExpiresIn:          readAnyInt64(payload["expires_in"]),
	}
	if grant.AuthorizationToken == "" {
		grant.AuthorizationToken = readAnyString(payload["authorization"])
	}

	var missing []string
	if grant.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if grant.AuthorizationToken == "" {
		missing = append(missing, "Authorization")
	}
	if requireRefreshToken && grant.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if len(missing) > 0 {
		return core.TokenGrant{}, missingTokenFieldsError(missing)
	}
	return grant, nil
}

// FetchManagerProfile resolves the authenticated manager and their
// store from the Zid merchant API.
func (c *Client) FetchManagerProfile(ctx context.Context, tokens core.TokenSet) (core.MerchantProfile, error) {
	if err := tokens.Validate(); err != nil {
		return core.MerchantProfile{}, fmt.Errorf("zid: fetch manager profile: %w", err)
	}
	endpoint := c.cfg.APIBaseURL + managerProfilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.MerchantProfile{}, fmt.Errorf("zid: build profile request: %w", err)
	}
	req.Header.Set("Access-Token", tokens.AccessToken)
	req.Header.Set("Authorization", "Bearer "+tokens.AuthorizationToken)
	req.Header.Set("Role", "Manager")
	req.Header.Set("Accept-Language", "all-languages")
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return core.MerchantProfile{}, fmt.Errorf("zid: profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body)
	if err != nil {
		return core.MerchantProfile{}, fmt.Errorf("zid: read profile response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.MerchantProfile{}, fmt.Errorf("zid: profile request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		User struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Store struct {
				ID    int64  `json:"id"`
				Title string `json:"title"`
			} `json:"store"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.MerchantProfile{}, fmt.Errorf("zid: profile response is not valid JSON")
	}
	if payload.User.Store.ID == 0 {
		return core.MerchantProfile{}, fmt.Errorf("zid: profile response missing store id")
	}

	storeID := payload.User.Store.ID
	return core.MerchantProfile{
		MerchantID: "store-" + strconv.FormatInt(storeID, 10),
		StoreID:    &storeID,
		StoreName:  payload.User.Store.Title,
	}, nil
}

func readLimitedBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBodyBytes)
	}
	return body, nil
}

func parseErrorPayload(body []byte) (string, string) {
	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", strings.TrimSpace(truncateForMessage(string(body)))
	}
	code := readAnyString(payload["error"])
	message := readAnyString(payload["error_description"])
	if message == "" {
		message = readAnyString(payload["message"])
	}
	return code, message
}

func truncateForMessage(s string) string {
	const max = 256
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func readAnyString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func readAnyInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

var (
	_ core.TokenExchanger = (*Client)(nil)
	_ core.ProfileFetcher = (*Client)(nil)
)
