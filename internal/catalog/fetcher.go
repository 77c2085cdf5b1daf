package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// PageSize is the number of projects requested per page.
	PageSize = 100
	// FirstPage is the index of the first requested page.
	FirstPage = 1

	pageErrorTemplateConstant        = "project listing page %d failed: %v"
	pageFetchedMessageConstant       = "Fetched project page"
	catalogCompletedMessageConstant  = "Fetched project catalog"
	pageLogFieldNameConstant         = "page"
	pageSizeLogFieldNameConstant     = "page_size"
	projectCountLogFieldNameConstant = "projects"
	requestCountLogFieldNameConstant = "requests"
)

// ErrProjectListerNotConfigured indicates that a Fetcher was created without a lister.
var ErrProjectListerNotConfigured = errors.New("catalog project lister not configured")

// PageError reports the page whose request failed.
type PageError struct {
	Page  int
	Cause error
}

// Error describes the failing page.
func (pageError PageError) Error() string {
	return fmt.Sprintf(pageErrorTemplateConstant, pageError.Page, pageError.Cause)
}

// Unwrap exposes the lister error.
func (pageError PageError) Unwrap() error {
	return pageError.Cause
}

// Fetcher builds the complete, ordered project catalog.
type Fetcher struct {
	lister ProjectLister
	logger *zap.Logger
}

// NewFetcher constructs a Fetcher. A nil logger is replaced with a no-op logger.
func NewFetcher(lister ProjectLister, logger *zap.Logger) (*Fetcher, error) {
	if lister == nil {
		return nil, ErrProjectListerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{lister: lister, logger: logger}, nil
}

// FetchAllProjects requests pages of PageSize starting at FirstPage until a page has no elements.
// Any failing page aborts the fetch; a partial catalog is never returned.
func (fetcher *Fetcher) FetchAllProjects(executionContext context.Context) ([]ProjectRecord, error) {
	projects := make([]ProjectRecord, 0, PageSize)
	requestCount := 0

	for page := FirstPage; ; page++ {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, PageError{Page: page, Cause: contextError}
		}

		pageProjects, listError := fetcher.lister.ListProjects(executionContext, page, PageSize)
		requestCount++
		if listError != nil {
			return nil, PageError{Page: page, Cause: listError}
		}

		fetcher.logger.Debug(pageFetchedMessageConstant,
			zap.Int(pageLogFieldNameConstant, page),
			zap.Int(pageSizeLogFieldNameConstant, len(pageProjects)),
		)
		if len(pageProjects) == 0 {
			break
		}
		projects = append(projects, pageProjects...)
	}

	SortByPath(projects)
	fetcher.logger.Info(catalogCompletedMessageConstant,
		zap.Int(projectCountLogFieldNameConstant, len(projects)),
		zap.Int(requestCountLogFieldNameConstant, requestCount),
	)
	return projects, nil
}

// SortByPath orders projects by case-insensitive Path. Equal keys keep their relative order.
func SortByPath(projects []ProjectRecord) {
	sort.SliceStable(projects, func(leftIndex int, rightIndex int) bool {
		return strings.ToLower(projects[leftIndex].Path) < strings.ToLower(projects[rightIndex].Path)
	})
}
