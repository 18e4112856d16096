package gocommand

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	merchantauth "github.com/goliatone/go-merchant-auth"
	authcommand "github.com/goliatone/go-merchant-auth/command"
	"github.com/goliatone/go-merchant-auth/core"
	authquery "github.com/goliatone/go-merchant-auth/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "merchant_auth.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "merchant_auth.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "merchant_auth.command.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "merchant_auth.command.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("merchant_auth.command.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestSubscribeFacade_WiresAllHandlers(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	svc := &stubFacadeService{}

	facade, err := merchantauth.NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	subscriptions, err := SubscribeFacade(adapter, facade)
	if err != nil {
		t.Fatalf("subscribe facade: %v", err)
	}
	defer func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
	}()
	if len(subscriptions) != 8 {
		t.Fatalf("expected 8 subscriptions, got %d", len(subscriptions))
	}

	if err := Dispatch(context.Background(), authcommand.RevokeMessage{MerchantID: "store-42"}); err != nil {
		t.Fatalf("dispatch revoke: %v", err)
	}
	if svc.lastRevokedMerchant != "store-42" {
		t.Fatalf("revoke did not reach the service: %q", svc.lastRevokedMerchant)
	}

	snapshot, err := Query[authquery.CredentialStatusMessage, core.CredentialSnapshot](
		context.Background(),
		authquery.CredentialStatusMessage{MerchantID: "store-42"},
	)
	if err != nil {
		t.Fatalf("query credential status: %v", err)
	}
	if snapshot.MerchantID != "store-42" || !snapshot.Active {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestSubscribeFacade_RequiresFacade(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	if _, err := SubscribeFacade(adapter, nil); err == nil {
		t.Fatalf("expected nil facade error")
	}
}

type stubFacadeService struct {
	lastRevokedMerchant string
}

func (s *stubFacadeService) BeginAuthorization(context.Context, core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error) {
	return core.BeginAuthorizationResponse{State: "abc"}, nil
}

func (s *stubFacadeService) HandleCallback(context.Context, core.CallbackRequest) (core.CallbackResult, error) {
	return core.CallbackResult{MerchantID: "store-42"}, nil
}

func (s *stubFacadeService) Refresh(_ context.Context, merchantID string) (core.RefreshOutcome, error) {
	return core.RefreshOutcome{MerchantID: merchantID, Refreshed: true}, nil
}

func (s *stubFacadeService) RefreshIfDue(_ context.Context, merchantID string, _ time.Duration) (core.RefreshOutcome, error) {
	return core.RefreshOutcome{MerchantID: merchantID}, nil
}

func (s *stubFacadeService) Revoke(_ context.Context, merchantID string, _ core.ClientContext) error {
	s.lastRevokedMerchant = merchantID
	return nil
}

func (s *stubFacadeService) PurgeExpiredStates(context.Context) (int, error) {
	return 0, nil
}

func (s *stubFacadeService) Status(_ context.Context, merchantID string) (core.CredentialSnapshot, error) {
	return core.CredentialSnapshot{MerchantID: merchantID, Active: true}, nil
}

func (s *stubFacadeService) AuthHeaders(context.Context, string) (map[string]string, error) {
	return map[string]string{"Role": "Manager"}, nil
}

func (s *stubFacadeService) AuditTrail(context.Context, core.AuditFilter) ([]core.AuditEntry, error) {
	return nil, nil
}

var _ merchantauth.CommandQueryService = (*stubFacadeService)(nil)
