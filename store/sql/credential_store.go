package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-merchant-auth/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CredentialStore persists the single credential row per merchant. The
// merchant_id unique constraint plus the conditional upsert keeps at
// most one active row without read-modify-write races.
type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*merchantCredentialRecord]
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*merchantCredentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo}, nil
}

func (s *CredentialStore) Upsert(ctx context.Context, in core.UpsertCredentialInput) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	merchantID := strings.TrimSpace(in.MerchantID)
	if merchantID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: merchant id is required")
	}
	if strings.TrimSpace(in.AccessCiphertext) == "" || strings.TrimSpace(in.BearerCiphertext) == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: access and bearer ciphertexts are required")
	}

	now := time.Now().UTC()
	record := &merchantCredentialRecord{
		ID:                 uuid.NewString(),
		MerchantID:         merchantID,
		StoreID:            in.StoreID,
		AccessCiphertext:   in.AccessCiphertext,
		BearerCiphertext:   in.BearerCiphertext,
		RefreshCiphertext:  in.RefreshCiphertext,
		AuthorizationScope: in.AuthorizationScope,
		ExpiresAt:          in.ExpiresAt.UTC(),
		Status:             string(core.CredentialStatusActive),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// On conflict the existing row keeps its id and created_at; the
	// token columns rotate and last_refreshed_at marks the rotation.
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (merchant_id) DO UPDATE").
		Set("store_id = EXCLUDED.store_id").
		Set("access_token_ciphertext = EXCLUDED.access_token_ciphertext").
		Set("bearer_token_ciphertext = EXCLUDED.bearer_token_ciphertext").
		Set("refresh_token_ciphertext = EXCLUDED.refresh_token_ciphertext").
		Set("authorization_scope = EXCLUDED.authorization_scope").
		Set("expires_at = EXCLUDED.expires_at").
		Set("status = ?", string(core.CredentialStatusActive)).
		Set("last_refreshed_at = ?", now).
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return core.Credential{}, fmt.Errorf("sqlstore: upsert credential for merchant %q: %w", merchantID, err)
	}

	stored := &merchantCredentialRecord{}
	if err := s.db.NewSelect().
		Model(stored).
		Where("?TableAlias.merchant_id = ?", merchantID).
		Limit(1).
		Scan(ctx); err != nil {
		return core.Credential{}, fmt.Errorf("sqlstore: read back credential for merchant %q: %w", merchantID, err)
	}
	return stored.toDomain(), nil
}

func (s *CredentialStore) GetActive(ctx context.Context, merchantID string) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: merchant id is required")
	}

	record := &merchantCredentialRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.merchant_id = ?", merchantID).
		Where("?TableAlias.status = ?", string(core.CredentialStatusActive)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Credential{}, fmt.Errorf("%w for merchant %q", core.ErrCredentialNotFound, merchantID)
		}
		return core.Credential{}, err
	}
	return record.toDomain(), nil
}

func (s *CredentialStore) Deactivate(ctx context.Context, merchantID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: credential store is not configured")
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return false, fmt.Errorf("sqlstore: merchant id is required")
	}

	result, err := s.db.NewUpdate().
		Model((*merchantCredentialRecord)(nil)).
		Set("status = ?", string(core.CredentialStatusRevoked)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("merchant_id = ?", merchantID).
		Where("status = ?", string(core.CredentialStatusActive)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *merchantCredentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	credential := core.Credential{
		ID:                 r.ID,
		MerchantID:         r.MerchantID,
		AccessCiphertext:   r.AccessCiphertext,
		BearerCiphertext:   r.BearerCiphertext,
		RefreshCiphertext:  r.RefreshCiphertext,
		AuthorizationScope: append([]string(nil), r.AuthorizationScope...),
		ExpiresAt:          r.ExpiresAt,
		Status:             core.CredentialStatus(r.Status),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.StoreID != nil {
		value := *r.StoreID
		credential.StoreID = &value
	}
	if r.LastRefreshedAt != nil {
		value := r.LastRefreshedAt.UTC()
		credential.LastRefreshedAt = &value
	}
	return credential
}
