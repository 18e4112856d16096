// Package zid implements the upstream OAuth client for the Zid
// merchant platform: authorization URL construction, authorization-code
// and refresh-token exchanges against the Zid token endpoint, and
// manager profile lookup against the Zid merchant API.
package zid
