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

// StateStore persists single-use authorization states keyed by digest.
// Consumption is a compare-and-set on the used flag so concurrent
// callbacks replaying the same state cannot both succeed.
type StateStore struct {
	db   *bun.DB
	repo repository.Repository[*oauthStateRecord]
}

func NewStateStore(db *bun.DB) (*StateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*oauthStateRecord](db, stateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid oauth state repository wiring: %w", err)
		}
	}
	return &StateStore{db: db, repo: repo}, nil
}

func (s *StateStore) Save(ctx context.Context, in core.SaveStateInput) (core.OAuthState, error) {
	if s == nil || s.repo == nil {
		return core.OAuthState{}, fmt.Errorf("sqlstore: state store is not configured")
	}
	hash := strings.TrimSpace(in.StateHash)
	if hash == "" {
		return core.OAuthState{}, fmt.Errorf("sqlstore: state hash is required")
	}
	if in.ExpiresAt.IsZero() {
		return core.OAuthState{}, fmt.Errorf("sqlstore: state expiry is required")
	}

	record := &oauthStateRecord{
		ID:         uuid.NewString(),
		StateHash:  hash,
		MerchantID: strings.TrimSpace(in.MerchantID),
		ExpiresAt:  in.ExpiresAt.UTC(),
		Used:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return core.OAuthState{}, fmt.Errorf("sqlstore: save oauth state: %w", err)
	}
	return record.toDomain(), nil
}

func (s *StateStore) VerifyAndConsume(ctx context.Context, state string) (core.OAuthState, error) {
	if s == nil || s.db == nil {
		return core.OAuthState{}, fmt.Errorf("sqlstore: state store is not configured")
	}
	if strings.TrimSpace(state) == "" {
		return core.OAuthState{}, fmt.Errorf("sqlstore: oauth state is required")
	}
	hash := core.HashState(state)

	var consumed core.OAuthState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &oauthStateRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.state_hash = ?", hash).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("sqlstore: oauth state not found or already used")
			}
			return err
		}
		if record.Used {
			return fmt.Errorf("sqlstore: oauth state not found or already used")
		}
		if time.Now().UTC().After(record.ExpiresAt) {
			return fmt.Errorf("sqlstore: oauth state expired")
		}

		result, err := tx.NewUpdate().
			Model((*oauthStateRecord)(nil)).
			Set("used = ?", true).
			Where("id = ?", record.ID).
			Where("used = ?", false).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("sqlstore: oauth state not found or already used")
		}
		record.Used = true
		consumed = record.toDomain()
		return nil
	})
	if err != nil {
		return core.OAuthState{}, err
	}
	return consumed, nil
}

func (s *StateStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: state store is not configured")
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}

	result, err := s.db.NewDelete().
		Model((*oauthStateRecord)(nil)).
		Where("used = ?", true).
		WhereOr("expires_at < ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *oauthStateRecord) toDomain() core.OAuthState {
	if r == nil {
		return core.OAuthState{}
	}
	return core.OAuthState{
		ID:         r.ID,
		StateHash:  r.StateHash,
		MerchantID: r.MerchantID,
		ExpiresAt:  r.ExpiresAt,
		Used:       r.Used,
		CreatedAt:  r.CreatedAt,
	}
}
