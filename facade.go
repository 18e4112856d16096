package merchantauth

import (
	"context"
	"fmt"

	authcommand "github.com/goliatone/go-merchant-auth/command"
	"github.com/goliatone/go-merchant-auth/core"
	authquery "github.com/goliatone/go-merchant-auth/query"
)

// CommandQueryService is the surface the facade binds commands and queries to.
// *core.Service satisfies it.
type CommandQueryService interface {
	authcommand.MutatingService
	authquery.CredentialReader
}

type Commands struct {
	BeginAuthorization *authcommand.BeginAuthorizationCommand
	CompleteCallback   *authcommand.CompleteCallbackCommand
	Refresh            *authcommand.RefreshCommand
	Revoke             *authcommand.RevokeCommand
	PurgeStates        *authcommand.PurgeStatesCommand
}

type Queries struct {
	CredentialStatus *authquery.CredentialStatusQuery
	AuthHeaders      *authquery.AuthHeadersQuery
	AuditTrail       *authquery.AuditTrailQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	auditReader authquery.AuditReader
}

// WithAuditReader overrides where the audit trail query reads from. Without
// it the facade uses the service itself, falling back to its audit store.
func WithAuditReader(reader authquery.AuditReader) FacadeOption {
	return func(options *facadeOptions) {
		options.auditReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("merchantauth: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.auditReader
	if reader == nil {
		reader = resolveAuditReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		BeginAuthorization: authcommand.NewBeginAuthorizationCommand(service),
		CompleteCallback:   authcommand.NewCompleteCallbackCommand(service),
		Refresh:            authcommand.NewRefreshCommand(service),
		Revoke:             authcommand.NewRevokeCommand(service),
		PurgeStates:        authcommand.NewPurgeStatesCommand(service),
	}
	facade.queries = Queries{
		CredentialStatus: authquery.NewCredentialStatusQuery(service),
		AuthHeaders:      authquery.NewAuthHeadersQuery(service),
		AuditTrail:       authquery.NewAuditTrailQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveAuditReader(service CommandQueryService) authquery.AuditReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(authquery.AuditReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	store := provider.Dependencies().AuditStore
	if store == nil {
		return nil
	}
	return auditStoreReader{store: store}
}

// auditStoreReader adapts the raw audit store when the service does not
// expose a trail of its own.
type auditStoreReader struct {
	store core.AuditStore
}

func (r auditStoreReader) AuditTrail(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error) {
	return r.store.List(ctx, filter)
}
