package core

import "time"

const DefaultRefreshBuffer = 30 * time.Minute

// CredentialTokenState captures the expiry posture of an active credential.
type CredentialTokenState struct {
	ExpiresAt       time.Time
	HasRefreshToken bool
	IsExpired       bool
	IsExpiringSoon  bool
}

// ResolveCredentialTokenState evaluates expiry flags for a credential against
// the refresh buffer.
func ResolveCredentialTokenState(now time.Time, credential Credential, buffer time.Duration) CredentialTokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}

	state := CredentialTokenState{
		ExpiresAt:       credential.ExpiresAt.UTC(),
		HasRefreshToken: credential.RefreshCiphertext != "",
	}
	if credential.ExpiresAt.IsZero() {
		return state
	}
	if !state.ExpiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !state.ExpiresAt.After(now.Add(buffer))
	return state
}

// ShouldRefreshCredential reports whether a refresh attempt is due. A
// credential with remaining lifetime above the buffer is left alone.
func ShouldRefreshCredential(now time.Time, state CredentialTokenState, buffer time.Duration) bool {
	if state.ExpiresAt.IsZero() {
		return false
	}
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	return !state.ExpiresAt.After(now.Add(buffer))
}
