package query

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-merchant-auth/core"
)

func TestCredentialStatusQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *CredentialStatusQuery

	_, err := q.Query(context.Background(), CredentialStatusMessage{MerchantID: "store-1"})
	if err == nil {
		t.Fatal("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("unexpected category: %v", rich.Category)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected code: %d", rich.Code)
	}
	if rich.TextCode != core.AuthErrorInternal {
		t.Fatalf("unexpected text code: %q", rich.TextCode)
	}
}

func TestAuditTrailQuery_NilReaderReturnsRichError(t *testing.T) {
	_, err := NewAuditTrailQuery(nil).Query(context.Background(), AuditTrailMessage{})
	if err == nil {
		t.Fatal("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if rich.TextCode != core.AuthErrorInternal {
		t.Fatalf("unexpected text code: %q", rich.TextCode)
	}
}
