package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-merchant-auth/core"
)

// MutatingService is the slice of the credential service that command
// handlers drive.
type MutatingService interface {
	BeginAuthorization(ctx context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error)
	HandleCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
	Refresh(ctx context.Context, merchantID string) (core.RefreshOutcome, error)
	RefreshIfDue(ctx context.Context, merchantID string, buffer time.Duration) (core.RefreshOutcome, error)
	Revoke(ctx context.Context, merchantID string, client core.ClientContext) error
	PurgeExpiredStates(ctx context.Context) (int, error)
}

type BeginAuthorizationCommand struct {
	service MutatingService
}

func NewBeginAuthorizationCommand(service MutatingService) *BeginAuthorizationCommand {
	return &BeginAuthorizationCommand{service: service}
}

func (c *BeginAuthorizationCommand) Execute(ctx context.Context, msg BeginAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	out, err := c.service.BeginAuthorization(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.HandleCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	service MutatingService
}

func NewRefreshCommand(service MutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	var out core.RefreshOutcome
	var err error
	if msg.Force {
		out, err = c.service.Refresh(ctx, msg.MerchantID)
	} else {
		out, err = c.service.RefreshIfDue(ctx, msg.MerchantID, 0)
	}
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RevokeCommand struct {
	service MutatingService
}

func NewRevokeCommand(service MutatingService) *RevokeCommand {
	return &RevokeCommand{service: service}
}

func (c *RevokeCommand) Execute(ctx context.Context, msg RevokeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke service is required")
	}
	return c.service.Revoke(ctx, msg.MerchantID, msg.Client)
}

type PurgeStatesCommand struct {
	service MutatingService
}

func NewPurgeStatesCommand(service MutatingService) *PurgeStatesCommand {
	return &PurgeStatesCommand{service: service}
}

func (c *PurgeStatesCommand) Execute(ctx context.Context, msg PurgeStatesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: state purge service is required")
	}
	purged, err := c.service.PurgeExpiredStates(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, purged)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
