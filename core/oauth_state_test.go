package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateStateIsUniqueAndHighEntropy(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 64; i++ {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("generate state: %v", err)
		}
		// 32 bytes of entropy encode to 43 url-safe characters.
		if len(state) < 43 {
			t.Fatalf("state too short: %q", state)
		}
		if _, dup := seen[state]; dup {
			t.Fatalf("duplicate state generated")
		}
		seen[state] = struct{}{}
	}
}

func TestHashStateIsStableHexDigest(t *testing.T) {
	first := HashState("value-1")
	second := HashState("value-1")
	if first != second {
		t.Fatalf("expected deterministic digest")
	}
	if len(first) != 64 {
		t.Fatalf("expected sha-256 hex digest, got %d chars", len(first))
	}
	if HashState("value-2") == first {
		t.Fatalf("expected distinct digests for distinct values")
	}
}

func TestMemoryStateStoreConsumeIsSingleUseUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	state := "contended-state"
	if _, err := store.Save(ctx, SaveStateInput{
		StateHash:  HashState(state),
		MerchantID: "merchant-1",
		ExpiresAt:  time.Now().UTC().Add(time.Minute),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.VerifyAndConsume(ctx, state); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", count)
	}
}

func TestMemoryStateStoreRejectsExpiredState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	state := "stale-state"
	if _, err := store.Save(ctx, SaveStateInput{
		StateHash:  HashState(state),
		MerchantID: "merchant-1",
		ExpiresAt:  time.Now().UTC().Add(-time.Second),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := store.VerifyAndConsume(ctx, state)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expired state rejection, got %v", err)
	}
}

func TestIsPendingMerchant(t *testing.T) {
	if !IsPendingMerchant(PendingMerchantPrefix + "abc") {
		t.Fatalf("expected placeholder to be pending")
	}
	if IsPendingMerchant("merchant-1") {
		t.Fatalf("expected real merchant id to not be pending")
	}
}
