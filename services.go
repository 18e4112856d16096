package merchantauth

import "github.com/goliatone/go-merchant-auth/core"

type Config = core.Config

type ZidConfig = core.ZidConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type CredentialStore = core.CredentialStore
type StateStore = core.StateStore
type AuditStore = core.AuditStore
type TokenCipher = core.TokenCipher
type TokenExchanger = core.TokenExchanger
type ProfileFetcher = core.ProfileFetcher
type MetricsRecorder = core.MetricsRecorder

type BeginAuthorizationRequest = core.BeginAuthorizationRequest
type BeginAuthorizationResponse = core.BeginAuthorizationResponse
type CallbackRequest = core.CallbackRequest
type CallbackResult = core.CallbackResult
type RefreshOutcome = core.RefreshOutcome
type CredentialSnapshot = core.CredentialSnapshot
type ClientContext = core.ClientContext
type AuditFilter = core.AuditFilter
type AuditEntry = core.AuditEntry
type TokenSet = core.TokenSet
type TokenGrant = core.TokenGrant

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithTokenCipher       = core.WithTokenCipher
	WithTokenExchanger    = core.WithTokenExchanger
	WithProfileFetcher    = core.WithProfileFetcher
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithCredentialStore   = core.WithCredentialStore
	WithStateStore        = core.WithStateStore
	WithAuditStore        = core.WithAuditStore
	WithNow               = core.WithNow
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
