// Package rest exposes the merchant authorization flows over HTTP: begin
// authorization, OAuth callback, credential status, forced refresh, and
// revocation. Handlers translate service errors into the shared error
// envelope; internal failure detail never reaches the response body.
package rest
