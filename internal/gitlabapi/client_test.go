package gitlabapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/catalog"
	"github.com/temirov/lab2hub/internal/gitlabapi"
)

const (
	testTokenConstant       = "glpat-test"
	privateTokenHeaderName  = "PRIVATE-TOKEN"
	projectsEndpointPath    = "/api/v4/projects"
	groupProjectsEndpoint   = "/api/v4/groups/platform/projects"
	wikisEndpointPath       = "/api/v4/projects/7/wikis"
	wikiPageEndpointPath    = "/api/v4/projects/7/wikis/setup"
	issuesEndpointPath      = "/api/v4/projects/7/issues"
	contentTypeHeaderName   = "Content-Type"
	jsonContentTypeConstant = "application/json"
)

func writeJSON(responseWriter http.ResponseWriter, payload any) {
	responseWriter.Header().Set(contentTypeHeaderName, jsonContentTypeConstant)
	_ = json.NewEncoder(responseWriter).Encode(payload)
}

func newTestClient(testInstance *testing.T, handler http.Handler, group string) *gitlabapi.Client {
	testInstance.Helper()
	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	client, creationError := gitlabapi.NewClient(gitlabapi.Configuration{
		BaseURL:    server.URL,
		Token:      testTokenConstant,
		Group:      group,
		MaxRetries: 0,
	}, zap.NewNop())
	require.NoError(testInstance, creationError)
	return client
}

func TestClientListProjectsMapsRecords(testInstance *testing.T) {
	var observedQuery map[string]string
	var observedToken string
	mux := http.NewServeMux()
	mux.HandleFunc(projectsEndpointPath, func(responseWriter http.ResponseWriter, request *http.Request) {
		observedToken = request.Header.Get(privateTokenHeaderName)
		observedQuery = map[string]string{
			"page":     request.URL.Query().Get("page"),
			"per_page": request.URL.Query().Get("per_page"),
			"order_by": request.URL.Query().Get("order_by"),
		}
		writeJSON(responseWriter, []map[string]any{
			{
				"id":                  7,
				"path":                "a",
				"path_with_namespace": "team2/a",
				"http_url_to_repo":    "https://gitlab.example.com/team2/a.git",
				"description":         "service a",
				"empty_repo":          true,
			},
		})
	})
	client := newTestClient(testInstance, mux, "")

	records, listError := client.ListProjects(context.Background(), 3, 100)

	require.NoError(testInstance, listError)
	require.Equal(testInstance, testTokenConstant, observedToken)
	require.Equal(testInstance, map[string]string{"page": "3", "per_page": "100", "order_by": "id"}, observedQuery)
	require.Equal(testInstance, []catalog.ProjectRecord{{
		ID:                7,
		PathWithNamespace: "team2/a",
		Path:              "a",
		CloneURL:          "https://gitlab.example.com/team2/a.git",
		Description:       "service a",
		IsEmpty:           true,
	}}, records)
}

func TestClientListProjectsScopesToGroup(testInstance *testing.T) {
	var includeSubgroups string
	mux := http.NewServeMux()
	mux.HandleFunc(groupProjectsEndpoint, func(responseWriter http.ResponseWriter, request *http.Request) {
		includeSubgroups = request.URL.Query().Get("include_subgroups")
		writeJSON(responseWriter, []map[string]any{})
	})
	client := newTestClient(testInstance, mux, "platform")

	records, listError := client.ListProjects(context.Background(), 1, 100)

	require.NoError(testInstance, listError)
	require.Empty(testInstance, records)
	require.Equal(testInstance, "true", includeSubgroups)
}

func TestClientListProjectsMembershipOnly(testInstance *testing.T) {
	testCases := []struct {
		name               string
		membershipOnly     bool
		expectedMembership string
	}{
		{name: "membership_only", membershipOnly: true, expectedMembership: "true"},
		{name: "all_visible", membershipOnly: false, expectedMembership: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var observedMembership string
			mux := http.NewServeMux()
			mux.HandleFunc(projectsEndpointPath, func(responseWriter http.ResponseWriter, request *http.Request) {
				observedMembership = request.URL.Query().Get("membership")
				writeJSON(responseWriter, []map[string]any{})
			})
			server := httptest.NewServer(mux)
			testInstance.Cleanup(server.Close)

			client, creationError := gitlabapi.NewClient(gitlabapi.Configuration{
				BaseURL:        server.URL,
				Token:          testTokenConstant,
				MembershipOnly: testCase.membershipOnly,
			}, zap.NewNop())
			require.NoError(testInstance, creationError)

			_, listError := client.ListProjects(context.Background(), 1, 100)

			require.NoError(testInstance, listError)
			require.Equal(testInstance, testCase.expectedMembership, observedMembership)
		})
	}
}

func TestClientListProjectsReportsFailures(testInstance *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(projectsEndpointPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		http.Error(responseWriter, `{"message":"403 Forbidden"}`, http.StatusForbidden)
	})
	client := newTestClient(testInstance, mux, "")

	_, listError := client.ListProjects(context.Background(), 1, 100)

	require.Error(testInstance, listError)
	require.Contains(testInstance, listError.Error(), "page 1")
}

func TestClientWikiAndIssueOperations(testInstance *testing.T) {
	var createdIssue map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc(wikisEndpointPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, []map[string]any{
			{"slug": "home", "title": "Home", "format": "markdown"},
			{"slug": "setup", "title": "Setup", "format": "markdown"},
		})
	})
	mux.HandleFunc(wikiPageEndpointPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, map[string]any{"slug": "setup", "title": "Setup", "content": "# Setup\nrun make"})
	})
	mux.HandleFunc(issuesEndpointPath, func(responseWriter http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case http.MethodGet:
			if request.URL.Query().Get("page") == "1" {
				responseWriter.Header().Set("X-Next-Page", "2")
				writeJSON(responseWriter, []map[string]any{{"id": 1, "iid": 1, "title": "first"}})
				return
			}
			writeJSON(responseWriter, []map[string]any{{"id": 2, "iid": 2, "title": "(migrated wiki) home"}})
		case http.MethodPost:
			body, _ := io.ReadAll(request.Body)
			_ = json.Unmarshal(body, &createdIssue)
			writeJSON(responseWriter, map[string]any{"id": 3, "iid": 3, "title": createdIssue["title"]})
		}
	})
	client := newTestClient(testInstance, mux, "")

	pages, listError := client.ListWikiPages(context.Background(), 7)
	require.NoError(testInstance, listError)
	require.Len(testInstance, pages, 2)
	require.Equal(testInstance, "home", pages[0].Slug)

	page, getError := client.GetWikiPage(context.Background(), 7, "setup")
	require.NoError(testInstance, getError)
	require.Equal(testInstance, "# Setup\nrun make", page.Content)

	titles, titlesError := client.ListIssueTitles(context.Background(), 7)
	require.NoError(testInstance, titlesError)
	require.Equal(testInstance, []string{"first", "(migrated wiki) home"}, titles)

	require.NoError(testInstance, client.CreateIssue(context.Background(), 7, "(migrated wiki) setup", page.Content))
	require.Equal(testInstance, "(migrated wiki) setup", createdIssue["title"])
	require.Equal(testInstance, "# Setup\nrun make", createdIssue["description"])
}

func TestNewClientValidatesConfiguration(testInstance *testing.T) {
	_, missingURLError := gitlabapi.NewClient(gitlabapi.Configuration{Token: testTokenConstant}, nil)
	require.ErrorIs(testInstance, missingURLError, gitlabapi.ErrBaseURLNotConfigured)

	_, missingTokenError := gitlabapi.NewClient(gitlabapi.Configuration{BaseURL: "https://gitlab.example.com"}, nil)
	require.ErrorIs(testInstance, missingTokenError, gitlabapi.ErrTokenNotConfigured)
}
