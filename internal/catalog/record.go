package catalog

import "context"

// ProjectRecord is one source project as observed during a single fetch.
type ProjectRecord struct {
	ID                int
	PathWithNamespace string
	Path              string
	CloneURL          string
	Description       string
	IsEmpty           bool
}

// ProjectLister returns one page of source projects. An empty page marks the end of the listing.
type ProjectLister interface {
	ListProjects(executionContext context.Context, page int, perPage int) ([]ProjectRecord, error)
}
