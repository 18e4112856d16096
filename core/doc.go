// Package core implements the merchant OAuth credential lifecycle: the
// authorization handshake against the Zid platform, encrypted storage of the
// resulting token set, transparent refresh of expiring credentials, and an
// append-only audit trail of every lifecycle transition.
package core
