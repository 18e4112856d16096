package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-merchant-auth/core"
)

const credentialCacheKeyPrefix = "go-merchant-auth::credential::v1"

// CachedCredentialStore fronts a CredentialStore with a read-through
// cache on GetActive. Writes go to the base store first and then drop
// the cache entry, so stale reads last at most one fetch.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

func NewCachedCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

// CredentialCacheKey returns the deterministic cache key for active
// credential reads: go-merchant-auth::credential::v1::<merchant_id>
// with the merchant segment URL-path escaped.
func CredentialCacheKey(merchantID string) (string, error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return "", fmt.Errorf("sqlstore: merchant id is required")
	}
	return credentialCacheKeyPrefix + "::" + url.PathEscape(merchantID), nil
}

func (s *CachedCredentialStore) GetActive(ctx context.Context, merchantID string) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	cacheKey, err := CredentialCacheKey(merchantID)
	if err != nil {
		return core.Credential{}, err
	}

	credential, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Credential, error) {
		fetched, fetchErr := s.base.GetActive(ctx, merchantID)
		if fetchErr != nil {
			return core.Credential{}, fetchErr
		}
		return cloneCredential(fetched), nil
	})
	if err != nil {
		return core.Credential{}, err
	}
	return cloneCredential(credential), nil
}

func (s *CachedCredentialStore) Upsert(ctx context.Context, in core.UpsertCredentialInput) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	credential, err := s.base.Upsert(ctx, in)
	if err != nil {
		return core.Credential{}, err
	}
	if err := s.invalidate(ctx, credential.MerchantID); err != nil {
		return core.Credential{}, err
	}
	return credential, nil
}

func (s *CachedCredentialStore) Deactivate(ctx context.Context, merchantID string) (bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return false, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	deactivated, err := s.base.Deactivate(ctx, merchantID)
	if err != nil {
		return false, err
	}
	if err := s.invalidate(ctx, merchantID); err != nil {
		return deactivated, err
	}
	return deactivated, nil
}

func (s *CachedCredentialStore) invalidate(ctx context.Context, merchantID string) error {
	cacheKey, err := CredentialCacheKey(merchantID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneCredential(credential core.Credential) core.Credential {
	cloned := credential
	cloned.AuthorizationScope = append([]string(nil), credential.AuthorizationScope...)
	if credential.StoreID != nil {
		value := *credential.StoreID
		cloned.StoreID = &value
	}
	if credential.LastRefreshedAt != nil {
		value := credential.LastRefreshedAt.UTC()
		cloned.LastRefreshedAt = &value
	}
	return cloned
}

var _ core.CredentialStore = (*CachedCredentialStore)(nil)
