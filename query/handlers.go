package query

import (
	"context"

	"github.com/goliatone/go-merchant-auth/core"
)

type CredentialReader interface {
	Status(ctx context.Context, merchantID string) (core.CredentialSnapshot, error)
	AuthHeaders(ctx context.Context, merchantID string) (map[string]string, error)
}

type AuditReader interface {
	AuditTrail(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error)
}

type CredentialStatusQuery struct {
	reader CredentialReader
}

func NewCredentialStatusQuery(reader CredentialReader) *CredentialStatusQuery {
	return &CredentialStatusQuery{reader: reader}
}

func (q *CredentialStatusQuery) Query(
	ctx context.Context,
	msg CredentialStatusMessage,
) (core.CredentialSnapshot, error) {
	if q == nil || q.reader == nil {
		return core.CredentialSnapshot{}, queryDependencyError("query: credential reader is required")
	}
	return q.reader.Status(ctx, msg.MerchantID)
}

type AuthHeadersQuery struct {
	reader CredentialReader
}

func NewAuthHeadersQuery(reader CredentialReader) *AuthHeadersQuery {
	return &AuthHeadersQuery{reader: reader}
}

func (q *AuthHeadersQuery) Query(ctx context.Context, msg AuthHeadersMessage) (map[string]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential reader is required")
	}
	return q.reader.AuthHeaders(ctx, msg.MerchantID)
}

type AuditTrailQuery struct {
	reader AuditReader
}

func NewAuditTrailQuery(reader AuditReader) *AuditTrailQuery {
	return &AuditTrailQuery{reader: reader}
}

func (q *AuditTrailQuery) Query(ctx context.Context, msg AuditTrailMessage) ([]core.AuditEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: audit reader is required")
	}
	return q.reader.AuditTrail(ctx, msg.Filter)
}
