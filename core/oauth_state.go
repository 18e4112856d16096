package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultStateTTL = 10 * time.Minute

// PendingMerchantPrefix marks a state minted before the merchant identity is
// known. The callback resolves the real identity from the platform profile.
const PendingMerchantPrefix = "pending:"

// GenerateState returns a fresh high-entropy state value. 32 random bytes
// keeps the value above the 256-bit floor after URL-safe encoding.
func GenerateState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashState digests the raw state value for storage and lookup. The raw value
// travels only inside the authorization URL; at rest we keep the digest.
func HashState(state string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(state)))
	return hex.EncodeToString(sum[:])
}

// IsPendingMerchant reports whether the merchant id is a pre-callback
// placeholder rather than a verified identity.
func IsPendingMerchant(merchantID string) bool {
	return strings.HasPrefix(strings.TrimSpace(merchantID), PendingMerchantPrefix)
}

// MemoryStateStore keeps single-use states in process. The SQL store is the
// production implementation; this one backs unit tests and single-node use.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]OAuthState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{entries: map[string]OAuthState{}}
}

func (s *MemoryStateStore) Save(_ context.Context, in SaveStateInput) (OAuthState, error) {
	if s == nil {
		return OAuthState{}, fmt.Errorf("core: state store is not configured")
	}
	hash := strings.TrimSpace(in.StateHash)
	if hash == "" {
		return OAuthState{}, fmt.Errorf("core: oauth state hash is required")
	}
	now := time.Now().UTC()
	record := OAuthState{
		StateHash:  hash,
		MerchantID: strings.TrimSpace(in.MerchantID),
		ExpiresAt:  in.ExpiresAt,
		CreatedAt:  now,
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = now.Add(defaultStateTTL)
	}

	s.mu.Lock()
	s.entries[hash] = record
	s.mu.Unlock()
	return record, nil
}

func (s *MemoryStateStore) VerifyAndConsume(_ context.Context, state string) (OAuthState, error) {
	if s == nil {
		return OAuthState{}, fmt.Errorf("core: state store is not configured")
	}
	if strings.TrimSpace(state) == "" {
		return OAuthState{}, fmt.Errorf("core: oauth state is required")
	}
	hash := HashState(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.entries[hash]
	if !ok || record.Used {
		return OAuthState{}, fmt.Errorf("core: oauth state not found or already used")
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return OAuthState{}, fmt.Errorf("core: oauth state expired")
	}
	record.Used = true
	s.entries[hash] = record
	return record, nil
}

func (s *MemoryStateStore) PurgeExpired(_ context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: state store is not configured")
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	purged := 0
	s.mu.Lock()
	for hash, record := range s.entries {
		if record.Used || record.ExpiresAt.Before(before) {
			delete(s.entries, hash)
			purged++
		}
	}
	s.mu.Unlock()
	return purged, nil
}
