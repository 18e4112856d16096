package security

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestTokenCipherRoundTrip(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := cipher.Encrypt(ctx, "access-token-value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, "merchant-auth.token.v1:") {
		t.Fatalf("expected envelope prefix, got %q", sealed)
	}
	if strings.Contains(sealed, "access-token-value") {
		t.Fatalf("plaintext leaked into ciphertext")
	}

	opened, err := cipher.Decrypt(ctx, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if opened != "access-token-value" {
		t.Fatalf("round trip mismatch: %q", opened)
	}
}

func TestTokenCipherEncryptIsNonDeterministic(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	first, err := cipher.Encrypt(ctx, "same-plaintext")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := cipher.Encrypt(ctx, "same-plaintext")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ciphertexts for repeated plaintext")
	}
}

func TestTokenCipherRejectsEmptyPlaintext(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	if _, err := cipher.Encrypt(ctx, ""); err == nil {
		t.Fatalf("expected empty plaintext rejection")
	}
}

func TestTokenCipherDecryptRejectsTamperedEnvelope(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := cipher.Encrypt(ctx, "value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tampered := strings.Replace(sealed, `"alg":"aes-256-gcm"`, `"alg":"aes-256-gcm","ciphertext":"AAAA"`, 1)
	if _, err := cipher.Decrypt(ctx, tampered); err == nil {
		t.Fatalf("expected tampered envelope rejection")
	}

	if _, err := cipher.Decrypt(ctx, "not-an-envelope"); err == nil || !strings.Contains(err.Error(), "decrypt token") {
		t.Fatalf("expected typed decrypt failure, got %v", err)
	}
}

func TestTokenCipherDecryptRejectsShortNonce(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	// Well-formed JSON envelope whose nonce decodes to 4 bytes instead of
	// the GCM nonce size. Must return a typed failure, never panic.
	forged := envelopePrefix + `{"kid":"token-key","ver":1,"alg":"aes-256-gcm","nonce":"` +
		base64.StdEncoding.EncodeToString([]byte("shrt")) + `","ciphertext":"` +
		base64.StdEncoding.EncodeToString([]byte("sealed-bytes")) + `"}`

	if _, err := cipher.Decrypt(ctx, forged); err == nil || !strings.Contains(err.Error(), "invalid nonce length") {
		t.Fatalf("expected nonce length rejection, got %v", err)
	}
}

func TestTokenCipherDecryptRejectsWrongKey(t *testing.T) {
	ctx := context.Background()
	first, err := NewTokenCipherFromBase64(testKey(t))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	other := make([]byte, 32)
	for i := range other {
		other[i] = byte(255 - i)
	}
	second, err := NewTokenCipherFromBase64(base64.StdEncoding.EncodeToString(other))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := first.Encrypt(ctx, "value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := second.Decrypt(ctx, sealed); err == nil {
		t.Fatalf("expected authentication failure under wrong key")
	}
}

func TestNewTokenCipherFromBase64EnforcesKeyLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, err := NewTokenCipherFromBase64(short); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected key length error, got %v", err)
	}
	if _, err := NewTokenCipherFromBase64("%%%not-base64%%%"); err == nil {
		t.Fatalf("expected base64 error")
	}
	if _, err := NewTokenCipherFromBase64(""); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestTokenCipherKeyMetadataOptions(t *testing.T) {
	cipher, err := NewTokenCipher([]byte("raw-material"), WithKeyID("primary"), WithVersion(3))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	if cipher.KeyID() != "primary" || cipher.Version() != 3 {
		t.Fatalf("expected key metadata applied, got %q v%d", cipher.KeyID(), cipher.Version())
	}

	sealed, err := cipher.Encrypt(context.Background(), "value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	mismatched, err := NewTokenCipher([]byte("raw-material"), WithKeyID("secondary"), WithVersion(3))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	if _, err := mismatched.Decrypt(context.Background(), sealed); err == nil || !strings.Contains(err.Error(), "key id mismatch") {
		t.Fatalf("expected key id mismatch, got %v", err)
	}
}
