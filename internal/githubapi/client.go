package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v61/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	repositoryRootPathConstant        = "/"
	missingTokenErrorMessageConstant  = "GitHub token not configured"
	enterpriseURLErrorTemplate        = "invalid GitHub Enterprise base URL %s: %w"
	getRepositoryErrorTemplate        = "look up repository %s/%s: %w"
	createRepositoryErrorTemplate     = "create repository %s/%s: %w"
	readContentsErrorTemplate         = "read contents of %s/%s: %w"
	repositoryCreatedMessageConstant  = "Created GitHub repository"
	ownerLogFieldNameConstant         = "owner"
	repositoryLogFieldNameConstant    = "repository"
	privateLogFieldNameConstant       = "private"
	cloneURLMissingErrorTemplate      = "repository %s/%s has no clone URL"
	repositoryFullNameTemplate        = "%s/%s"
	defaultRepositoryOwnerTypeLiteral = OrganizationOwnerType
)

// ErrTokenNotConfigured indicates that the GitHub token is empty.
var ErrTokenNotConfigured = errors.New(missingTokenErrorMessageConstant)

// ErrRepositoryNotFound indicates that a repository expected to exist is missing.
var ErrRepositoryNotFound = errors.New("repository not found")

// Configuration describes how to reach the destination GitHub instance.
type Configuration struct {
	Token     string
	BaseURL   string
	OwnerType OwnerType
}

// Repository identifies a destination repository.
type Repository struct {
	FullName string
	CloneURL string
}

// Client exposes the GitHub operations needed for a migration run.
type Client struct {
	client    *github.Client
	ownerType OwnerType
	logger    *zap.Logger
}

// NewClient constructs a Client authenticated through an OAuth2 static token source.
func NewClient(executionContext context.Context, configuration Configuration, logger *zap.Logger) (*Client, error) {
	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrTokenNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := oauth2.NewClient(executionContext, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	githubClient := github.NewClient(httpClient)

	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) > 0 {
		enterpriseClient, enterpriseError := githubClient.WithEnterpriseURLs(baseURL, baseURL)
		if enterpriseError != nil {
			return nil, fmt.Errorf(enterpriseURLErrorTemplate, baseURL, enterpriseError)
		}
		githubClient = enterpriseClient
	}

	ownerType := configuration.OwnerType
	if len(ownerType) == 0 {
		ownerType = defaultRepositoryOwnerTypeLiteral
	}

	return &Client{client: githubClient, ownerType: ownerType, logger: logger}, nil
}

// RepositoryExists reports whether owner/name exists. It does not inspect the repository contents.
func (client *Client) RepositoryExists(executionContext context.Context, owner string, name string) (bool, error) {
	_, found, lookupError := client.lookupRepository(executionContext, owner, name)
	return found, lookupError
}

// GetRepository returns an existing repository.
func (client *Client) GetRepository(executionContext context.Context, owner string, name string) (Repository, error) {
	repository, found, lookupError := client.lookupRepository(executionContext, owner, name)
	if lookupError != nil {
		return Repository{}, lookupError
	}
	if !found {
		return Repository{}, fmt.Errorf(getRepositoryErrorTemplate, owner, name, ErrRepositoryNotFound)
	}
	return repository, nil
}

// CreateRepository creates owner/name with the supplied description and visibility.
func (client *Client) CreateRepository(executionContext context.Context, owner string, name string, description string, private bool) (Repository, error) {
	createdRepository, _, createError := client.client.Repositories.Create(executionContext, client.ownerType.creationOwner(owner), &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(private),
	})
	if createError != nil {
		return Repository{}, fmt.Errorf(createRepositoryErrorTemplate, owner, name, createError)
	}

	client.logger.Info(repositoryCreatedMessageConstant,
		zap.String(ownerLogFieldNameConstant, owner),
		zap.String(repositoryLogFieldNameConstant, name),
		zap.Bool(privateLogFieldNameConstant, private),
	)
	return toRepository(owner, name, createdRepository)
}

// HasContent reports whether owner/name has at least one commit. GitHub answers 404 for the root of an empty repository.
func (client *Client) HasContent(executionContext context.Context, owner string, name string) (bool, error) {
	_, _, response, contentsError := client.client.Repositories.GetContents(executionContext, owner, name, repositoryRootPathConstant, nil)
	if contentsError != nil {
		if isNotFound(response, contentsError) {
			return false, nil
		}
		return false, fmt.Errorf(readContentsErrorTemplate, owner, name, contentsError)
	}
	return true, nil
}

func (client *Client) lookupRepository(executionContext context.Context, owner string, name string) (Repository, bool, error) {
	repository, response, getError := client.client.Repositories.Get(executionContext, owner, name)
	if getError != nil {
		if isNotFound(response, getError) {
			return Repository{}, false, nil
		}
		return Repository{}, false, fmt.Errorf(getRepositoryErrorTemplate, owner, name, getError)
	}
	converted, conversionError := toRepository(owner, name, repository)
	if conversionError != nil {
		return Repository{}, false, conversionError
	}
	return converted, true, nil
}

func toRepository(owner string, name string, repository *github.Repository) (Repository, error) {
	cloneURL := repository.GetCloneURL()
	if len(cloneURL) == 0 {
		return Repository{}, fmt.Errorf(cloneURLMissingErrorTemplate, owner, name)
	}
	fullName := repository.GetFullName()
	if len(fullName) == 0 {
		fullName = fmt.Sprintf(repositoryFullNameTemplate, owner, name)
	}
	return Repository{FullName: fullName, CloneURL: cloneURL}, nil
}

func isNotFound(response *github.Response, requestError error) bool {
	if response != nil && response.StatusCode == http.StatusNotFound {
		return true
	}
	var errorResponse *github.ErrorResponse
	if errors.As(requestError, &errorResponse) && errorResponse.Response != nil {
		return errorResponse.Response.StatusCode == http.StatusNotFound
	}
	return false
}
