// Package gitlabapi adapts the GitLab REST client to the source-platform contracts lab2hub consumes:
// paginated project listing, wiki pages, and project issues.
package gitlabapi
