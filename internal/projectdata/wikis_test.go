package projectdata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/projectdata"
)

type createdIssue struct {
	title       string
	description string
}

type fakeWikiSource struct {
	pages         []projectdata.WikiPage
	issueTitles   []string
	createdIssues []createdIssue
	pageReads     []string
	createFailure error
}

func (source *fakeWikiSource) ListWikiPages(context.Context, int) ([]projectdata.WikiPage, error) {
	listed := make([]projectdata.WikiPage, 0, len(source.pages))
	for _, page := range source.pages {
		listed = append(listed, projectdata.WikiPage{Slug: page.Slug, Title: page.Title})
	}
	return listed, nil
}

func (source *fakeWikiSource) GetWikiPage(_ context.Context, _ int, slug string) (projectdata.WikiPage, error) {
	source.pageReads = append(source.pageReads, slug)
	for _, page := range source.pages {
		if page.Slug == slug {
			return page, nil
		}
	}
	return projectdata.WikiPage{}, errors.New("404 wiki page not found")
}

func (source *fakeWikiSource) ListIssueTitles(context.Context, int) ([]string, error) {
	return append([]string{}, source.issueTitles...), nil
}

func (source *fakeWikiSource) CreateIssue(_ context.Context, _ int, title string, description string) error {
	if source.createFailure != nil {
		return source.createFailure
	}
	source.createdIssues = append(source.createdIssues, createdIssue{title: title, description: description})
	source.issueTitles = append(source.issueTitles, title)
	return nil
}

func TestWikiMigratorCreatesIssuesInReverseOrderAndIsIdempotent(testInstance *testing.T) {
	source := &fakeWikiSource{
		pages: []projectdata.WikiPage{
			{Slug: "home", Content: "welcome"},
			{Slug: "setup", Content: "run make"},
			{Slug: "faq", Content: "ask"},
		},
		issueTitles: []string{"(migrated wiki) setup", "unrelated"},
	}
	migrator, creationError := projectdata.NewWikiMigrator(source, zap.NewNop())
	require.NoError(testInstance, creationError)
	project := projectdata.WikiProject{ID: 7, PathWithNamespace: "team/a"}

	firstRunCount, firstRunError := migrator.MigrateWikis(context.Background(), project)

	require.NoError(testInstance, firstRunError)
	require.Equal(testInstance, 2, firstRunCount)
	require.Equal(testInstance, []createdIssue{
		{title: "(migrated wiki) faq", description: "ask"},
		{title: "(migrated wiki) home", description: "welcome"},
	}, source.createdIssues)
	require.Equal(testInstance, []string{"faq", "home"}, source.pageReads)

	secondRunCount, secondRunError := migrator.MigrateWikis(context.Background(), project)

	require.NoError(testInstance, secondRunError)
	require.Zero(testInstance, secondRunCount)
	require.Len(testInstance, source.createdIssues, 2)
}

func TestWikiMigratorReportsCreationFailure(testInstance *testing.T) {
	source := &fakeWikiSource{
		pages:         []projectdata.WikiPage{{Slug: "home", Content: "welcome"}},
		createFailure: errors.New("403 forbidden"),
	}
	migrator, creationError := projectdata.NewWikiMigrator(source, nil)
	require.NoError(testInstance, creationError)

	createdCount, migrationError := migrator.MigrateWikis(context.Background(), projectdata.WikiProject{ID: 1})

	require.Error(testInstance, migrationError)
	require.Contains(testInstance, migrationError.Error(), "home")
	require.Zero(testInstance, createdCount)
}

func TestNewWikiMigratorRequiresSource(testInstance *testing.T) {
	_, creationError := projectdata.NewWikiMigrator(nil, zap.NewNop())
	require.ErrorIs(testInstance, creationError, projectdata.ErrWikiSourceNotConfigured)
}
