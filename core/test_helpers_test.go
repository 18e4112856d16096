package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

func baseTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Zid.ClientID = "client-1"
	cfg.Zid.ClientSecret = "secret-1"
	cfg.Zid.RedirectURI = "https://app.example/auth/callback"
	return cfg
}

type fakeCipher struct {
	failDecrypt bool
}

func (f fakeCipher) Encrypt(_ context.Context, plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", errors.New("cipher: plaintext is required")
	}
	return "enc:" + plaintext, nil
}

func (f fakeCipher) Decrypt(_ context.Context, ciphertext string) (string, error) {
	if f.failDecrypt {
		return "", errors.New("cipher: decrypt token: authentication failed")
	}
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("cipher: decrypt token: malformed envelope")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type fakeExchanger struct {
	mu             sync.Mutex
	exchangeCalls  int
	refreshCalls   int
	lastCode       string
	lastRefresh    string
	grant          TokenGrant
	refreshGrant   *TokenGrant
	exchangeErr    error
	refreshErr     error
	authorizeBase  string
	authorizeState string
}

func newFakeExchanger() *fakeExchanger {
	return &fakeExchanger{
		authorizeBase: "https://oauth.zid.sa/oauth/authorize",
		grant: TokenGrant{
			AccessToken:        "access-1",
			AuthorizationToken: "bearer-1",
			RefreshToken:       "refresh-1",
			ExpiresIn:          3600,
		},
	}
}

func (f *fakeExchanger) ExchangeAuthorizationCode(_ context.Context, code string) (TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	f.lastCode = code
	if f.exchangeErr != nil {
		return TokenGrant{}, f.exchangeErr
	}
	return f.grant, nil
}

func (f *fakeExchanger) ExchangeRefreshToken(_ context.Context, refreshToken string) (TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.lastRefresh = refreshToken
	if f.refreshErr != nil {
		return TokenGrant{}, f.refreshErr
	}
	if f.refreshGrant != nil {
		return *f.refreshGrant, nil
	}
	return f.grant, nil
}

func (f *fakeExchanger) AuthorizeURL(state string, scopes []string) (string, error) {
	f.mu.Lock()
	f.authorizeState = state
	f.mu.Unlock()
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "client-1")
	query.Set("scope", strings.Join(scopes, " "))
	query.Set("state", state)
	return f.authorizeBase + "?" + query.Encode(), nil
}

func (f *fakeExchanger) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls
}

func (f *fakeExchanger) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type fakeProfileFetcher struct {
	profile MerchantProfile
	err     error
}

func (f fakeProfileFetcher) FetchManagerProfile(context.Context, TokenSet) (MerchantProfile, error) {
	if f.err != nil {
		return MerchantProfile{}, f.err
	}
	return f.profile, nil
}

type memCredentialStore struct {
	mu      sync.Mutex
	nextID  int
	records map[string]Credential
	getErr  error
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{records: map[string]Credential{}}
}

func (s *memCredentialStore) Upsert(_ context.Context, in UpsertCredentialInput) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := s.records[in.MerchantID]
	if !ok {
		s.nextID++
		existing = Credential{
			ID:         fmt.Sprintf("cred-%d", s.nextID),
			MerchantID: in.MerchantID,
			CreatedAt:  now,
		}
	}
	existing.StoreID = in.StoreID
	existing.AccessCiphertext = in.AccessCiphertext
	existing.BearerCiphertext = in.BearerCiphertext
	existing.RefreshCiphertext = in.RefreshCiphertext
	existing.ExpiresAt = in.ExpiresAt
	existing.AuthorizationScope = in.AuthorizationScope
	existing.Status = CredentialStatusActive
	existing.UpdatedAt = now.Add(time.Millisecond)
	s.records[in.MerchantID] = existing
	return existing, nil
}

func (s *memCredentialStore) GetActive(_ context.Context, merchantID string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Credential{}, s.getErr
	}
	record, ok := s.records[merchantID]
	if !ok || record.Status != CredentialStatusActive {
		return Credential{}, fmt.Errorf("%w for merchant %q", ErrCredentialNotFound, merchantID)
	}
	return record, nil
}

func (s *memCredentialStore) Deactivate(_ context.Context, merchantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[merchantID]
	if !ok || record.Status != CredentialStatusActive {
		return false, nil
	}
	record.Status = CredentialStatusRevoked
	record.UpdatedAt = time.Now().UTC()
	s.records[merchantID] = record
	return true, nil
}

func (s *memCredentialStore) active(merchantID string) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[merchantID]
	return record, ok && record.Status == CredentialStatusActive
}

type memAuditStore struct {
	mu        sync.Mutex
	entries   []AuditEntry
	appendErr error
}

func newMemAuditStore() *memAuditStore {
	return &memAuditStore{}
}

func (s *memAuditStore) Append(_ context.Context, in AppendAuditInput) (AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return AuditEntry{}, s.appendErr
	}
	entry := AuditEntry{
		ID:         fmt.Sprintf("audit-%d", len(s.entries)+1),
		MerchantID: in.MerchantID,
		Action:     in.Action,
		Success:    in.Success,
		Detail:     in.Detail,
		IPAddress:  in.Client.IPAddress,
		UserAgent:  in.Client.UserAgent,
		Metadata:   in.Metadata,
		CreatedAt:  time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *memAuditStore) List(_ context.Context, filter AuditFilter) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []AuditEntry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter.MerchantID != "" && entry.MerchantID != filter.MerchantID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *memAuditStore) byAction(action AuditAction) []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []AuditEntry{}
	for _, entry := range s.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

func newTestService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, options ...Option) (*Service, *fakeExchanger, *memCredentialStore, *memAuditStore) {
	t.Helper()
	exchanger := newFakeExchanger()
	credentials := newMemCredentialStore()
	audits := newMemAuditStore()
	base := []Option{
		WithTokenCipher(fakeCipher{}),
		WithTokenExchanger(exchanger),
		WithCredentialStore(credentials),
		WithAuditStore(audits),
		WithStateStore(NewMemoryStateStore()),
	}
	svc, err := NewService(baseTestConfig(), append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, exchanger, credentials, audits
}
