package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-merchant-auth/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultAuditPageSize = 50

// AuditStore is append-only. Metadata is redacted before it reaches the
// row so token material never lands in the audit table.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenAuditRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenAuditRecord](db, auditHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

func (s *AuditStore) Append(ctx context.Context, in core.AppendAuditInput) (core.AuditEntry, error) {
	if s == nil || s.repo == nil {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	merchantID := strings.TrimSpace(in.MerchantID)
	if merchantID == "" {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: audit merchant id is required")
	}
	action := strings.TrimSpace(string(in.Action))
	if action == "" {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: audit action is required")
	}

	record := &tokenAuditRecord{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		Action:     action,
		Success:    in.Success,
		Detail:     strings.TrimSpace(in.Detail),
		IPAddress:  strings.TrimSpace(in.Client.IPAddress),
		UserAgent:  strings.TrimSpace(in.Client.UserAgent),
		Metadata:   core.RedactSensitiveMap(in.Metadata),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: append audit entry: %w", err)
	}
	return record.toDomain(), nil
}

func (s *AuditStore) List(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: audit store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.NewSelect().
		Model((*tokenAuditRecord)(nil)).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(limit).
		Offset(offset)
	if merchantID := strings.TrimSpace(filter.MerchantID); merchantID != "" {
		query = query.Where("?TableAlias.merchant_id = ?", merchantID)
	}
	if action := strings.TrimSpace(string(filter.Action)); action != "" {
		query = query.Where("?TableAlias.action = ?", action)
	}
	if filter.From != nil {
		query = query.Where("?TableAlias.created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("?TableAlias.created_at <= ?", filter.To.UTC())
	}

	records := []*tokenAuditRecord{}
	if err := query.Scan(ctx, &records); err != nil {
		return nil, err
	}
	entries := make([]core.AuditEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toDomain())
	}
	return entries, nil
}

func (r *tokenAuditRecord) toDomain() core.AuditEntry {
	if r == nil {
		return core.AuditEntry{}
	}
	return core.AuditEntry{
		ID:         r.ID,
		MerchantID: r.MerchantID,
		Action:     core.AuditAction(r.Action),
		Success:    r.Success,
		Detail:     r.Detail,
		IPAddress:  r.IPAddress,
		UserAgent:  r.UserAgent,
		Metadata:   copyAnyMap(r.Metadata),
		CreatedAt:  r.CreatedAt,
	}
}
