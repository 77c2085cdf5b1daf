package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/catalog"
	"github.com/temirov/lab2hub/internal/projectdata"
)

const (
	projectOrderFieldConstant        = "id"
	projectSortDirectionConstant     = "asc"
	issuePageSizeConstant            = 100
	clientCreationErrorTemplate      = "unable to create GitLab client for %s: %w"
	listProjectsErrorTemplate        = "list projects page %d: %w"
	listGroupProjectsErrorTemplate   = "list projects of group %s page %d: %w"
	listWikisErrorTemplate           = "list wiki pages of project %d: %w"
	getWikiPageErrorTemplate         = "read wiki page %s of project %d: %w"
	listIssuesErrorTemplate          = "list issues of project %d page %d: %w"
	createIssueErrorTemplate         = "create issue %q in project %d: %w"
	issueCreatedMessageConstant      = "Created GitLab issue"
	projectLogFieldNameConstant      = "project_id"
	issueTitleLogFieldNameConstant   = "title"
	missingBaseURLErrorMessage       = "GitLab base URL not configured"
	missingTokenErrorMessageConstant = "GitLab token not configured"
)

// ErrBaseURLNotConfigured indicates that the GitLab base URL is empty.
var ErrBaseURLNotConfigured = errors.New(missingBaseURLErrorMessage)

// ErrTokenNotConfigured indicates that the GitLab token is empty.
var ErrTokenNotConfigured = errors.New(missingTokenErrorMessageConstant)

// Configuration describes how to reach the source GitLab instance.
type Configuration struct {
	BaseURL        string
	Token          string
	Group          string
	MembershipOnly bool
	MaxRetries     int
}

// Client exposes the GitLab operations needed for a migration run.
type Client struct {
	client         *gitlab.Client
	group          string
	membershipOnly bool
	logger         *zap.Logger
}

// NewClient constructs a Client authenticated with a private token.
func NewClient(configuration Configuration, logger *zap.Logger) (*Client, error) {
	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	if len(strings.TrimSpace(configuration.Token)) == 0 {
		return nil, ErrTokenNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(baseURL)}
	if configuration.MaxRetries >= 0 {
		clientOptions = append(clientOptions, gitlab.WithCustomRetryMax(configuration.MaxRetries))
	}

	gitlabClient, creationError := gitlab.NewClient(configuration.Token, clientOptions...)
	if creationError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplate, baseURL, creationError)
	}

	return &Client{
		client:         gitlabClient,
		group:          strings.TrimSpace(configuration.Group),
		membershipOnly: configuration.MembershipOnly,
		logger:         logger,
	}, nil
}

// ListProjects returns one page of projects, scoped to the configured group and its subgroups when set.
func (client *Client) ListProjects(executionContext context.Context, page int, perPage int) ([]catalog.ProjectRecord, error) {
	listOptions := gitlab.ListOptions{Page: page, PerPage: perPage}

	var projects []*gitlab.Project
	var listError error
	if len(client.group) > 0 {
		projects, _, listError = client.client.Groups.ListGroupProjects(client.group, &gitlab.ListGroupProjectsOptions{
			ListOptions:      listOptions,
			IncludeSubGroups: gitlab.Ptr(true),
			OrderBy:          gitlab.Ptr(projectOrderFieldConstant),
			Sort:             gitlab.Ptr(projectSortDirectionConstant),
		}, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, fmt.Errorf(listGroupProjectsErrorTemplate, client.group, page, listError)
		}
	} else {
		projectOptions := &gitlab.ListProjectsOptions{
			ListOptions: listOptions,
			OrderBy:     gitlab.Ptr(projectOrderFieldConstant),
			Sort:        gitlab.Ptr(projectSortDirectionConstant),
		}
		if client.membershipOnly {
			projectOptions.Membership = gitlab.Ptr(true)
		}
		projects, _, listError = client.client.Projects.ListProjects(projectOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, fmt.Errorf(listProjectsErrorTemplate, page, listError)
		}
	}

	records := make([]catalog.ProjectRecord, 0, len(projects))
	for _, project := range projects {
		if project == nil {
			continue
		}
		records = append(records, catalog.ProjectRecord{
			ID:                project.ID,
			PathWithNamespace: project.PathWithNamespace,
			Path:              project.Path,
			CloneURL:          project.HTTPURLToRepo,
			Description:       project.Description,
			IsEmpty:           project.EmptyRepo,
		})
	}
	return records, nil
}

// ListWikiPages returns the wiki pages of a project in listing order, without content.
func (client *Client) ListWikiPages(executionContext context.Context, projectID int) ([]projectdata.WikiPage, error) {
	wikis, _, listError := client.client.Wikis.ListWikis(projectID, &gitlab.ListWikisOptions{}, gitlab.WithContext(executionContext))
	if listError != nil {
		return nil, fmt.Errorf(listWikisErrorTemplate, projectID, listError)
	}

	pages := make([]projectdata.WikiPage, 0, len(wikis))
	for _, wiki := range wikis {
		if wiki == nil {
			continue
		}
		pages = append(pages, projectdata.WikiPage{Slug: wiki.Slug, Title: wiki.Title})
	}
	return pages, nil
}

// GetWikiPage returns a wiki page including its content.
func (client *Client) GetWikiPage(executionContext context.Context, projectID int, slug string) (projectdata.WikiPage, error) {
	wiki, _, getError := client.client.Wikis.GetWikiPage(projectID, slug, &gitlab.GetWikiPageOptions{}, gitlab.WithContext(executionContext))
	if getError != nil {
		return projectdata.WikiPage{}, fmt.Errorf(getWikiPageErrorTemplate, slug, projectID, getError)
	}
	return projectdata.WikiPage{Slug: wiki.Slug, Title: wiki.Title, Content: wiki.Content}, nil
}

// ListIssueTitles returns the titles of every issue in the project across all pages.
func (client *Client) ListIssueTitles(executionContext context.Context, projectID int) ([]string, error) {
	titles := make([]string, 0, issuePageSizeConstant)
	for page := 1; page > 0; {
		issues, response, listError := client.client.Issues.ListProjectIssues(projectID, &gitlab.ListProjectIssuesOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: issuePageSizeConstant},
		}, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, fmt.Errorf(listIssuesErrorTemplate, projectID, page, listError)
		}
		for _, issue := range issues {
			if issue != nil {
				titles = append(titles, issue.Title)
			}
		}
		if response == nil || len(issues) == 0 {
			break
		}
		page = response.NextPage
	}
	return titles, nil
}

// CreateIssue opens an issue in the project.
func (client *Client) CreateIssue(executionContext context.Context, projectID int, title string, description string) error {
	_, _, createError := client.client.Issues.CreateIssue(projectID, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(title),
		Description: gitlab.Ptr(description),
	}, gitlab.WithContext(executionContext))
	if createError != nil {
		return fmt.Errorf(createIssueErrorTemplate, title, projectID, createError)
	}
	client.logger.Debug(issueCreatedMessageConstant,
		zap.Int(projectLogFieldNameConstant, projectID),
		zap.String(issueTitleLogFieldNameConstant, title),
	)
	return nil
}
