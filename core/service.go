package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	tokenCipher       TokenCipher
	exchanger         TokenExchanger
	profileFetcher    ProfileFetcher
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	credentialStore   CredentialStore
	stateStore        StateStore
	auditStore        AuditStore
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	TokenCipher     TokenCipher
	Exchanger       TokenExchanger
	ProfileFetcher  ProfileFetcher
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	CredentialStore CredentialStore
	StateStore      StateStore
	AuditStore      AuditStore
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("merchant-auth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("merchant-auth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	needsStores := builder.credentialStore == nil || builder.stateStore == nil || builder.auditStore == nil
	if needsStores && builder.repositoryFactory != nil {
		var storeProvider StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			storeProvider = built
		} else if direct, ok := builder.repositoryFactory.(StoreProvider); ok {
			storeProvider = direct
		}
		if storeProvider != nil {
			if builder.credentialStore == nil {
				builder.credentialStore = storeProvider.CredentialStore()
			}
			if builder.stateStore == nil {
				builder.stateStore = storeProvider.StateStore()
			}
			if builder.auditStore == nil {
				builder.auditStore = storeProvider.AuditStore()
			}
		}
	}
	if builder.stateStore == nil {
		builder.stateStore = NewMemoryStateStore()
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		tokenCipher:       builder.tokenCipher,
		exchanger:         builder.exchanger,
		profileFetcher:    builder.profileFetcher,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		credentialStore:   builder.credentialStore,
		stateStore:        builder.stateStore,
		auditStore:        builder.auditStore,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		TokenCipher:     s.tokenCipher,
		Exchanger:       s.exchanger,
		ProfileFetcher:  s.profileFetcher,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		CredentialStore: s.credentialStore,
		StateStore:      s.stateStore,
		AuditStore:      s.auditStore,
	}
}

// BeginAuthorization mints a single-use state, records its digest, and
// returns the platform consent URL. When no merchant id is supplied a
// placeholder is minted; the callback resolves the real identity from the
// platform profile.
func (s *Service) BeginAuthorization(ctx context.Context, req BeginAuthorizationRequest) (response BeginAuthorizationResponse, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"merchant_id": req.MerchantID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "begin_authorization", err, fields)
	}()

	if s == nil || s.exchanger == nil {
		err = s.mapError(fmt.Errorf("core: token exchanger is not configured"))
		return BeginAuthorizationResponse{}, err
	}
	if configErr := s.config.ValidateOAuthClient(); configErr != nil {
		err = s.mapError(configErr)
		return BeginAuthorizationResponse{}, err
	}

	state, err := GenerateState()
	if err != nil {
		err = s.mapError(err)
		return BeginAuthorizationResponse{}, err
	}

	merchantID := strings.TrimSpace(req.MerchantID)
	if merchantID == "" {
		merchantID = PendingMerchantPrefix + HashState(state)[:16]
	}
	fields["merchant_id"] = merchantID

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = s.config.AuthorizationScopes()
	}

	expiresAt := s.clock().Add(s.config.StateTTL())
	if _, saveErr := s.stateStore.Save(ctx, SaveStateInput{
		StateHash:  HashState(state),
		MerchantID: merchantID,
		ExpiresAt:  expiresAt,
	}); saveErr != nil {
		err = s.mapError(saveErr)
		return BeginAuthorizationResponse{}, err
	}

	url, err := s.exchanger.AuthorizeURL(state, scopes)
	if err != nil {
		err = s.mapError(err)
		return BeginAuthorizationResponse{}, err
	}

	s.audit(ctx, AppendAuditInput{
		MerchantID: merchantID,
		Action:     AuditActionOAuthInitiated,
		Success:    true,
		Client:     req.Client,
		Metadata:   copyAnyMap(req.Metadata),
	})

	response = BeginAuthorizationResponse{
		AuthorizationURL: url,
		State:            state,
		MerchantID:       merchantID,
		ExpiresAt:        expiresAt,
	}
	return response, nil
}

// HandleCallback consumes the state, exchanges the authorization code, and
// persists the encrypted token set in a single conditional write. The state
// is burned before the exchange: upstream codes are single-use, so a replayed
// callback must die at the CSRF gate rather than probe the token endpoint.
func (s *Service) HandleCallback(ctx context.Context, req CallbackRequest) (result CallbackResult, err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		if result.MerchantID != "" {
			fields["merchant_id"] = result.MerchantID
		}
		s.observeOperation(ctx, startedAt, "handle_callback", err, fields)
	}()

	if s == nil || s.exchanger == nil || s.tokenCipher == nil || s.credentialStore == nil {
		err = s.mapError(fmt.Errorf("core: callback handling is not configured"))
		return CallbackResult{}, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		err = s.mapError(fmt.Errorf("core: authorization code is required"))
		return CallbackResult{}, err
	}
	if strings.TrimSpace(req.State) == "" {
		err = s.mapError(fmt.Errorf("core: oauth callback state is required"))
		return CallbackResult{}, err
	}

	record, err := s.stateStore.VerifyAndConsume(ctx, req.State)
	if err != nil {
		err = s.mapError(fmt.Errorf("core: oauth callback state rejected: %w", err))
		return CallbackResult{}, err
	}
	merchantID := record.MerchantID

	grant, err := s.exchanger.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		s.audit(ctx, AppendAuditInput{
			MerchantID: merchantID,
			Action:     AuditActionTokensCreated,
			Success:    false,
			Detail:     err.Error(),
			Client:     req.Client,
		})
		err = s.mapError(err)
		return CallbackResult{}, err
	}

	tokens := TokenSet{
		AccessToken:        grant.AccessToken,
		AuthorizationToken: grant.AuthorizationToken,
		RefreshToken:       grant.RefreshToken,
	}

	var storeID *int64
	if s.profileFetcher != nil {
		profile, profileErr := s.profileFetcher.FetchManagerProfile(ctx, tokens)
		switch {
		case profileErr != nil && IsPendingMerchant(merchantID):
			s.audit(ctx, AppendAuditInput{
				MerchantID: merchantID,
				Action:     AuditActionTokensCreated,
				Success:    false,
				Detail:     "merchant identity resolution failed: " + profileErr.Error(),
				Client:     req.Client,
			})
			err = s.mapError(fmt.Errorf("core: token exchange incomplete, merchant identity unresolved: %w", profileErr))
			return CallbackResult{}, err
		case profileErr != nil:
			s.logError(ctx, "merchant profile fetch failed", map[string]any{
				"merchant_id": merchantID,
				"error":       profileErr.Error(),
			})
		case IsPendingMerchant(merchantID):
			merchantID = profile.MerchantID
			storeID = profile.StoreID
		default:
			storeID = profile.StoreID
			if profile.MerchantID != "" && profile.MerchantID != merchantID {
				s.logError(ctx, "merchant profile mismatch, keeping requested identity", map[string]any{
					"merchant_id": merchantID,
					"profile_id":  profile.MerchantID,
				})
			}
		}
	} else if IsPendingMerchant(merchantID) {
		err = s.mapError(fmt.Errorf("core: merchant identity is required but no profile fetcher is configured"))
		return CallbackResult{}, err
	}

	sealed, err := s.sealTokens(ctx, tokens)
	if err != nil {
		err = s.mapError(err)
		return CallbackResult{}, err
	}

	credential, err := s.credentialStore.Upsert(ctx, UpsertCredentialInput{
		MerchantID:        merchantID,
		StoreID:           storeID,
		AccessCiphertext:  sealed.AccessToken,
		BearerCiphertext:  sealed.AuthorizationToken,
		RefreshCiphertext: sealed.RefreshToken,
		ExpiresAt:         grant.ExpiresAt(s.clock()),

		AuthorizationScope: s.config.AuthorizationScopes(),
	})
	if err != nil {
		s.audit(ctx, AppendAuditInput{
			MerchantID: merchantID,
			Action:     AuditActionTokensCreated,
			Success:    false,
			Detail:     err.Error(),
			Client:     req.Client,
		})
		err = s.mapError(err)
		return CallbackResult{}, err
	}

	s.audit(ctx, AppendAuditInput{
		MerchantID: merchantID,
		Action:     AuditActionTokensCreated,
		Success:    true,
		Client:     req.Client,
		Metadata:   copyAnyMap(req.Metadata),
	})

	result = CallbackResult{
		MerchantID:   merchantID,
		CredentialID: credential.ID,
		StoreID:      credential.StoreID,
		ExpiresAt:    credential.ExpiresAt,
	}
	return result, nil
}

// RefreshIfDue refreshes the merchant's credential only when its remaining
// lifetime has fallen inside the buffer. A zero buffer uses the configured
// default.
func (s *Service) RefreshIfDue(ctx context.Context, merchantID string, buffer time.Duration) (RefreshOutcome, error) {
	return s.refresh(ctx, merchantID, buffer, false)
}

// Refresh refreshes the merchant's credential unconditionally.
func (s *Service) Refresh(ctx context.Context, merchantID string) (RefreshOutcome, error) {
	return s.refresh(ctx, merchantID, 0, true)
}

func (s *Service) refresh(ctx context.Context, merchantID string, buffer time.Duration, force bool) (outcome RefreshOutcome, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"merchant_id": merchantID,
		"forced":      force,
	}
	defer func() {
		fields["refreshed"] = outcome.Refreshed
		s.observeOperation(ctx, startedAt, "refresh", err, fields)
	}()

	if s == nil || s.exchanger == nil || s.tokenCipher == nil || s.credentialStore == nil {
		err = s.mapError(fmt.Errorf("core: refresh is not configured"))
		return RefreshOutcome{}, err
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		err = s.mapError(fmt.Errorf("core: merchant id is required"))
		return RefreshOutcome{}, err
	}
	if buffer <= 0 {
		buffer = s.config.RefreshBuffer()
	}

	credential, err := s.credentialStore.GetActive(ctx, merchantID)
	if err != nil {
		err = s.mapError(err)
		return RefreshOutcome{}, err
	}

	now := s.clock()
	state := ResolveCredentialTokenState(now, credential, buffer)
	if !force && !ShouldRefreshCredential(now, state, buffer) {
		outcome = RefreshOutcome{MerchantID: merchantID, Refreshed: false, ExpiresAt: credential.ExpiresAt}
		return outcome, nil
	}

	if credential.RefreshCiphertext == "" {
		err = s.mapError(fmt.Errorf("%w: no refresh token on record", ErrCredentialUnusable))
		return RefreshOutcome{}, err
	}
	refreshToken, decryptErr := s.tokenCipher.Decrypt(ctx, credential.RefreshCiphertext)
	if decryptErr != nil {
		s.audit(ctx, AppendAuditInput{
			MerchantID: merchantID,
			Action:     AuditActionTokensRefreshed,
			Success:    false,
			Detail:     "stored refresh token could not be decrypted",
		})
		err = s.mapError(fmt.Errorf("%w: %v", ErrCredentialUnusable, decryptErr))
		return RefreshOutcome{}, err
	}

	grant, exchangeErr := s.exchanger.ExchangeRefreshToken(ctx, refreshToken)
	if exchangeErr != nil {
		s.audit(ctx, AppendAuditInput{
			MerchantID: merchantID,
			Action:     AuditActionTokensRefreshed,
			Success:    false,
			Detail:     exchangeErr.Error(),
		})
		err = s.mapError(exchangeErr)
		return RefreshOutcome{}, err
	}
	if strings.TrimSpace(grant.RefreshToken) == "" {
		grant.RefreshToken = refreshToken
	}

	sealed, sealErr := s.sealTokens(ctx, TokenSet{
		AccessToken:        grant.AccessToken,
		AuthorizationToken: grant.AuthorizationToken,
		RefreshToken:       grant.RefreshToken,
	})
	if sealErr != nil {
		err = s.mapError(sealErr)
		return RefreshOutcome{}, err
	}

	updated, upsertErr := s.credentialStore.Upsert(ctx, UpsertCredentialInput{
		MerchantID:        merchantID,
		StoreID:           credential.StoreID,
		AccessCiphertext:  sealed.AccessToken,
		BearerCiphertext:  sealed.AuthorizationToken,
		RefreshCiphertext: sealed.RefreshToken,
		ExpiresAt:         grant.ExpiresAt(now),

		AuthorizationScope: credential.AuthorizationScope,
	})
	if upsertErr != nil {
		s.audit(ctx, AppendAuditInput{
			MerchantID: merchantID,
			Action:     AuditActionTokensRefreshed,
			Success:    false,
			Detail:     upsertErr.Error(),
		})
		err = s.mapError(upsertErr)
		return RefreshOutcome{}, err
	}

	s.audit(ctx, AppendAuditInput{
		MerchantID: merchantID,
		Action:     AuditActionTokensRefreshed,
		Success:    true,
	})

	outcome = RefreshOutcome{MerchantID: merchantID, Refreshed: true, ExpiresAt: updated.ExpiresAt}
	return outcome, nil
}

// Revoke deactivates the merchant's credential. Revoking an absent or
// already-revoked credential reports not-found without side effects.
func (s *Service) Revoke(ctx context.Context, merchantID string, client ClientContext) (err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"merchant_id": merchantID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "revoke", err, fields)
	}()

	if s == nil || s.credentialStore == nil {
		err = s.mapError(fmt.Errorf("core: credential store is not configured"))
		return err
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		err = s.mapError(fmt.Errorf("core: merchant id is required"))
		return err
	}

	deactivated, err := s.credentialStore.Deactivate(ctx, merchantID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if !deactivated {
		err = s.mapError(fmt.Errorf("core: no credentials found for merchant %q, already revoked or never authorized", merchantID))
		return err
	}

	s.audit(ctx, AppendAuditInput{
		MerchantID: merchantID,
		Action:     AuditActionTokensRevoked,
		Success:    true,
		Client:     client,
	})
	return nil
}

// Status reports the credential posture for a merchant without exposing
// token material.
func (s *Service) Status(ctx context.Context, merchantID string) (CredentialSnapshot, error) {
	if s == nil || s.credentialStore == nil {
		return CredentialSnapshot{}, s.mapError(fmt.Errorf("core: credential store is not configured"))
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return CredentialSnapshot{}, s.mapError(fmt.Errorf("core: merchant id is required"))
	}

	credential, err := s.credentialStore.GetActive(ctx, merchantID)
	if err != nil {
		return CredentialSnapshot{}, s.mapError(err)
	}

	now := s.clock()
	state := ResolveCredentialTokenState(now, credential, s.config.RefreshBuffer())
	return CredentialSnapshot{
		MerchantID:   credential.MerchantID,
		StoreID:      credential.StoreID,
		Active:       credential.Status == CredentialStatusActive && !state.IsExpired,
		ExpiresAt:    credential.ExpiresAt,
		UpdatedAt:    credential.UpdatedAt,
		NeedsRefresh: state.IsExpired || state.IsExpiringSoon,
	}, nil
}

// AuthHeaders refreshes the credential when due and returns the header set
// the platform API expects on authenticated calls.
func (s *Service) AuthHeaders(ctx context.Context, merchantID string) (map[string]string, error) {
	if s == nil || s.credentialStore == nil || s.tokenCipher == nil {
		return nil, s.mapError(fmt.Errorf("core: auth headers are not configured"))
	}
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return nil, s.mapError(fmt.Errorf("core: merchant id is required"))
	}

	if _, err := s.RefreshIfDue(ctx, merchantID, 0); err != nil {
		return nil, err
	}

	credential, err := s.credentialStore.GetActive(ctx, merchantID)
	if err != nil {
		return nil, s.mapError(err)
	}
	tokens, err := s.DecryptTokens(ctx, credential)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Access-Token":    tokens.AccessToken,
		"Authorization":   "Bearer " + tokens.AuthorizationToken,
		"Role":            "Manager",
		"Accept-Language": "all-languages",
	}
	if credential.StoreID != nil {
		headers["Store-Id"] = fmt.Sprintf("%d", *credential.StoreID)
	}
	return headers, nil
}

// DecryptTokens opens the credential's sealed token columns as a unit. One
// undecipherable column poisons the whole set: the merchant needs
// re-authorization, the credential must not limp along on the fields that
// still open.
func (s *Service) DecryptTokens(ctx context.Context, credential Credential) (TokenSet, error) {
	if s == nil || s.tokenCipher == nil {
		return TokenSet{}, s.mapError(fmt.Errorf("core: token cipher is not configured"))
	}
	access, err := s.tokenCipher.Decrypt(ctx, credential.AccessCiphertext)
	if err != nil {
		return TokenSet{}, s.mapError(fmt.Errorf("%w: access token: %v", ErrCredentialUnusable, err))
	}
	bearer, err := s.tokenCipher.Decrypt(ctx, credential.BearerCiphertext)
	if err != nil {
		return TokenSet{}, s.mapError(fmt.Errorf("%w: authorization token: %v", ErrCredentialUnusable, err))
	}
	tokens := TokenSet{AccessToken: access, AuthorizationToken: bearer}
	if strings.TrimSpace(credential.RefreshCiphertext) != "" {
		refresh, err := s.tokenCipher.Decrypt(ctx, credential.RefreshCiphertext)
		if err != nil {
			return TokenSet{}, s.mapError(fmt.Errorf("%w: refresh token: %v", ErrCredentialUnusable, err))
		}
		tokens.RefreshToken = refresh
	}
	return tokens, nil
}

// PurgeExpiredStates removes spent and expired handshake states. Maintenance
// only; correctness never depends on the sweep.
func (s *Service) PurgeExpiredStates(ctx context.Context) (purged int, err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		fields["purged"] = purged
		s.observeOperation(ctx, startedAt, "purge_expired_states", err, fields)
	}()

	if s == nil || s.stateStore == nil {
		err = s.mapError(fmt.Errorf("core: state store is not configured"))
		return 0, err
	}
	purged, err = s.stateStore.PurgeExpired(ctx, s.clock())
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}
	return purged, nil
}

// AuditTrail lists audit entries for a merchant, newest first.
func (s *Service) AuditTrail(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	if s == nil || s.auditStore == nil {
		return nil, s.mapError(fmt.Errorf("core: audit store is not configured"))
	}
	if strings.TrimSpace(filter.MerchantID) == "" {
		return nil, s.mapError(fmt.Errorf("core: merchant id is required"))
	}
	entries, err := s.auditStore.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return entries, nil
}

func (s *Service) sealTokens(ctx context.Context, tokens TokenSet) (TokenSet, error) {
	if err := tokens.Validate(); err != nil {
		return TokenSet{}, err
	}
	access, err := s.tokenCipher.Encrypt(ctx, tokens.AccessToken)
	if err != nil {
		return TokenSet{}, fmt.Errorf("core: seal access token: %w", err)
	}
	bearer, err := s.tokenCipher.Encrypt(ctx, tokens.AuthorizationToken)
	if err != nil {
		return TokenSet{}, fmt.Errorf("core: seal authorization token: %w", err)
	}
	sealed := TokenSet{AccessToken: access, AuthorizationToken: bearer}
	if strings.TrimSpace(tokens.RefreshToken) != "" {
		refresh, err := s.tokenCipher.Encrypt(ctx, tokens.RefreshToken)
		if err != nil {
			return TokenSet{}, fmt.Errorf("core: seal refresh token: %w", err)
		}
		sealed.RefreshToken = refresh
	}
	return sealed, nil
}

// audit appends to the trail and deliberately swallows failures. A broken
// audit sink must not abort token flows.
func (s *Service) audit(ctx context.Context, in AppendAuditInput) {
	if s == nil || s.auditStore == nil {
		return
	}
	in.Metadata = RedactSensitiveMap(in.Metadata)
	if _, err := s.auditStore.Append(ctx, in); err != nil {
		s.logError(ctx, "audit append failed", map[string]any{
			"merchant_id": in.MerchantID,
			"action":      string(in.Action),
			"error":       err.Error(),
		})
	}
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
