package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-merchant-auth/core"
)

var (
	_ gocmd.Querier[CredentialStatusMessage, core.CredentialSnapshot] = (*CredentialStatusQuery)(nil)
	_ gocmd.Querier[AuthHeadersMessage, map[string]string]            = (*AuthHeadersQuery)(nil)
	_ gocmd.Querier[AuditTrailMessage, []core.AuditEntry]             = (*AuditTrailQuery)(nil)
)
