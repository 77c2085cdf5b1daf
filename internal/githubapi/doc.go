// Package githubapi adapts the GitHub REST client to the destination contracts lab2hub consumes.
//
// It probes repository existence, creates private repositories under an
// organization or the authenticated user, and reports whether a repository has
// any commits yet. GitHub Enterprise endpoints are supported through a base URL.
package githubapi
