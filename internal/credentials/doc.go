// Package credentials resolves the access tokens lab2hub uses for the source and destination platforms.
//
// Tokens are declared as "env:NAME" or "file:/path" sources. When no source is
// configured, the well-known platform environment variables are consulted in
// preference order.
package credentials
