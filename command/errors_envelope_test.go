package command

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-merchant-auth/core"
)

func TestCompleteCallbackMessage_ValidateReturnsRichError(t *testing.T) {
	err := (CompleteCallbackMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.AuthErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.AuthErrorBadInput, rich.TextCode)
	}
}

func TestRefreshMessage_ValidateRequiresMerchant(t *testing.T) {
	if err := (RefreshMessage{MerchantID: "merchant-1"}).Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	err := (RefreshMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
}

func TestBeginAuthorizationCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *BeginAuthorizationCommand
	err := cmd.Execute(context.Background(), BeginAuthorizationMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.AuthErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.AuthErrorInternal, rich.TextCode)
	}
}
