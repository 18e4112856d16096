package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type BeginAuthorizationRequest struct {
	MerchantID string
	Scopes     []string
	Client     ClientContext
	Metadata   map[string]any
}

type BeginAuthorizationResponse struct {
	AuthorizationURL string
	State            string
	MerchantID       string
	ExpiresAt        time.Time
}

type CallbackRequest struct {
	Code     string
	State    string
	Client   ClientContext
	Metadata map[string]any
}

type CallbackResult struct {
	MerchantID   string
	CredentialID string
	StoreID      *int64
	ExpiresAt    time.Time
}

type RefreshOutcome struct {
	MerchantID string
	Refreshed  bool
	ExpiresAt  time.Time
}

type UpsertCredentialInput struct {
	MerchantID        string
	StoreID           *int64
	AccessCiphertext  string
	BearerCiphertext  string
	RefreshCiphertext string
	ExpiresAt         time.Time

	AuthorizationScope []string
}

type SaveStateInput struct {
	StateHash  string
	MerchantID string
	ExpiresAt  time.Time
}

type AppendAuditInput struct {
	MerchantID string
	Action     AuditAction
	Success    bool
	Detail     string
	Client     ClientContext
	Metadata   map[string]any
}

type AuditFilter struct {
	MerchantID string
	Action     AuditAction
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// CredentialStore persists merchant credentials and enforces the
// one-active-row-per-merchant invariant through a single conditional write.
type CredentialStore interface {
	Upsert(ctx context.Context, in UpsertCredentialInput) (Credential, error)
	GetActive(ctx context.Context, merchantID string) (Credential, error)
	Deactivate(ctx context.Context, merchantID string) (bool, error)
}

// StateStore holds single-use CSRF states keyed by digest. VerifyAndConsume
// hashes the caller-supplied value itself; implementations never accept a
// precomputed digest.
type StateStore interface {
	Save(ctx context.Context, in SaveStateInput) (OAuthState, error)
	VerifyAndConsume(ctx context.Context, state string) (OAuthState, error)
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

// AuditStore appends lifecycle events. Append failures must never change the
// outcome of the audited operation; callers log and continue.
type AuditStore interface {
	Append(ctx context.Context, in AppendAuditInput) (AuditEntry, error)
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// TokenCipher seals and opens individual token values. Ciphertext is
// self-describing; Decrypt needs no parameters beyond the envelope.
type TokenCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// TokenExchanger talks to the platform token endpoint.
type TokenExchanger interface {
	ExchangeAuthorizationCode(ctx context.Context, code string) (TokenGrant, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenGrant, error)
	AuthorizeURL(state string, scopes []string) (string, error)
}

// MerchantProfile identifies the store that granted authorization.
type MerchantProfile struct {
	MerchantID string
	StoreID    *int64
	StoreName  string
}

// ProfileFetcher resolves the authorizing merchant's identity from the
// platform using a freshly granted token set.
type ProfileFetcher interface {
	FetchManagerProfile(ctx context.Context, tokens TokenSet) (MerchantProfile, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	CredentialStore() CredentialStore
	StateStore() StateStore
	AuditStore() AuditStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type CommandMessage interface {
	Type() string
}
