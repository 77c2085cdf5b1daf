package projectdata

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	// MigratedWikiTitlePrefix starts the title of every issue created from a wiki page.
	MigratedWikiTitlePrefix = "(migrated wiki) "

	listWikiPagesErrorTemplate    = "list wiki pages: %w"
	listIssueTitlesErrorTemplate  = "list existing issues: %w"
	readWikiPageErrorTemplate     = "read wiki page %s: %w"
	createIssueErrorTemplate      = "create issue for wiki page %s: %w"
	wikiIssueCreatedMessage       = "Converted wiki page to issue"
	wikiIssueSkippedMessage       = "Wiki page already converted"
	wikiMigrationFinishedMessage  = "Finished wiki conversion"
	projectLogFieldName           = "project"
	slugLogFieldName              = "slug"
	createdIssuesLogFieldName     = "created_issues"
	missingWikiSourceErrorMessage = "wiki source not configured"
)

// ErrWikiSourceNotConfigured indicates that a WikiMigrator was created without a source.
var ErrWikiSourceNotConfigured = errors.New(missingWikiSourceErrorMessage)

// WikiPage is a single wiki page. Content is only populated by WikiSource.GetWikiPage.
type WikiPage struct {
	Slug    string
	Title   string
	Content string
}

// WikiSource reads wiki pages and manages issues of a source project.
type WikiSource interface {
	ListWikiPages(executionContext context.Context, projectID int) ([]WikiPage, error)
	GetWikiPage(executionContext context.Context, projectID int, slug string) (WikiPage, error)
	ListIssueTitles(executionContext context.Context, projectID int) ([]string, error)
	CreateIssue(executionContext context.Context, projectID int, title string, description string) error
}

// WikiProject identifies the project whose wiki is converted.
type WikiProject struct {
	ID                int
	PathWithNamespace string
}

// WikiMigrator turns wiki pages into issues, once per page.
type WikiMigrator struct {
	source WikiSource
	logger *zap.Logger
}

// NewWikiMigrator constructs a WikiMigrator.
func NewWikiMigrator(source WikiSource, logger *zap.Logger) (*WikiMigrator, error) {
	if source == nil {
		return nil, ErrWikiSourceNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WikiMigrator{source: source, logger: logger}, nil
}

// WikiIssueTitle builds the issue title used for a wiki page slug.
func WikiIssueTitle(slug string) string {
	return MigratedWikiTitlePrefix + slug
}

// MigrateWikis creates one issue per wiki page, walking the listing in reverse, and returns the number
// of issues created. Pages whose issue title already exists are skipped, so a rerun creates nothing.
func (migrator *WikiMigrator) MigrateWikis(executionContext context.Context, project WikiProject) (int, error) {
	pages, listError := migrator.source.ListWikiPages(executionContext, project.ID)
	if listError != nil {
		return 0, fmt.Errorf(listWikiPagesErrorTemplate, listError)
	}
	if len(pages) == 0 {
		return 0, nil
	}

	existingTitles, titlesError := migrator.source.ListIssueTitles(executionContext, project.ID)
	if titlesError != nil {
		return 0, fmt.Errorf(listIssueTitlesErrorTemplate, titlesError)
	}
	knownTitles := make(map[string]struct{}, len(existingTitles)+len(pages))
	for _, title := range existingTitles {
		knownTitles[title] = struct{}{}
	}

	createdIssues := 0
	for pageIndex := len(pages) - 1; pageIndex >= 0; pageIndex-- {
		slug := pages[pageIndex].Slug
		issueTitle := WikiIssueTitle(slug)
		if _, alreadyConverted := knownTitles[issueTitle]; alreadyConverted {
			migrator.logger.Debug(wikiIssueSkippedMessage, zap.String(projectLogFieldName, project.PathWithNamespace), zap.String(slugLogFieldName, slug))
			continue
		}

		page, readError := migrator.source.GetWikiPage(executionContext, project.ID, slug)
		if readError != nil {
			return createdIssues, fmt.Errorf(readWikiPageErrorTemplate, slug, readError)
		}
		if createError := migrator.source.CreateIssue(executionContext, project.ID, issueTitle, page.Content); createError != nil {
			return createdIssues, fmt.Errorf(createIssueErrorTemplate, slug, createError)
		}

		knownTitles[issueTitle] = struct{}{}
		createdIssues++
		migrator.logger.Info(wikiIssueCreatedMessage, zap.String(projectLogFieldName, project.PathWithNamespace), zap.String(slugLogFieldName, slug))
	}

	migrator.logger.Info(wikiMigrationFinishedMessage, zap.String(projectLogFieldName, project.PathWithNamespace), zap.Int(createdIssuesLogFieldName, createdIssues))
	return createdIssues, nil
}
