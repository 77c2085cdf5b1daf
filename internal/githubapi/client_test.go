package githubapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/githubapi"
)

const (
	testTokenConstant         = "ghp-test"
	authorizationHeaderName   = "Authorization"
	existingRepositoryPath    = "/api/v3/repos/acme/existing"
	missingRepositoryPath     = "/api/v3/repos/acme/missing"
	brokenRepositoryPath      = "/api/v3/repos/acme/broken"
	existingContentsPath      = "/api/v3/repos/acme/existing/contents/"
	emptyContentsPath         = "/api/v3/repos/acme/empty/contents/"
	organizationReposPath     = "/api/v3/orgs/acme/repos"
	userReposPath             = "/api/v3/user/repos"
	contentTypeHeaderName     = "Content-Type"
	jsonContentTypeConstant   = "application/json"
	existingCloneURLConstant  = "https://github.example.com/acme/existing.git"
	createdCloneURLConstant   = "https://github.example.com/acme/a-team2.git"
	notFoundBodyConstant      = `{"message":"Not Found"}`
	emptyRepositoryBody       = `{"message":"This repository is empty."}`
	serverErrorBodyConstant   = `{"message":"Server Error"}`
	createdRepositoryFullName = "acme/a-team2"
)

type recordedCreation struct {
	path    string
	payload map[string]any
}

func writeJSON(responseWriter http.ResponseWriter, statusCode int, body string) {
	responseWriter.Header().Set(contentTypeHeaderName, jsonContentTypeConstant)
	responseWriter.WriteHeader(statusCode)
	_, _ = io.WriteString(responseWriter, body)
}

func newTestServer(testInstance *testing.T, creations *[]recordedCreation, authorizations *[]string) *httptest.Server {
	testInstance.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(existingRepositoryPath, func(responseWriter http.ResponseWriter, request *http.Request) {
		*authorizations = append(*authorizations, request.Header.Get(authorizationHeaderName))
		writeJSON(responseWriter, http.StatusOK, `{"name":"existing","full_name":"acme/existing","clone_url":"`+existingCloneURLConstant+`"}`)
	})
	mux.HandleFunc(missingRepositoryPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusNotFound, notFoundBodyConstant)
	})
	mux.HandleFunc(brokenRepositoryPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusInternalServerError, serverErrorBodyConstant)
	})
	mux.HandleFunc(existingContentsPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, `[{"type":"file","name":"README.md","path":"README.md"}]`)
	})
	mux.HandleFunc(emptyContentsPath, func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusNotFound, emptyRepositoryBody)
	})
	createHandler := func(responseWriter http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		payload := map[string]any{}
		_ = json.Unmarshal(body, &payload)
		*creations = append(*creations, recordedCreation{path: request.URL.Path, payload: payload})
		writeJSON(responseWriter, http.StatusCreated, `{"name":"a-team2","full_name":"`+createdRepositoryFullName+`","clone_url":"`+createdCloneURLConstant+`"}`)
	}
	mux.HandleFunc(organizationReposPath, createHandler)
	mux.HandleFunc(userReposPath, createHandler)

	server := httptest.NewServer(mux)
	testInstance.Cleanup(server.Close)
	return server
}

func newTestClient(testInstance *testing.T, server *httptest.Server, ownerType githubapi.OwnerType) *githubapi.Client {
	testInstance.Helper()
	client, creationError := githubapi.NewClient(context.Background(), githubapi.Configuration{
		Token:     testTokenConstant,
		BaseURL:   server.URL + "/",
		OwnerType: ownerType,
	}, zap.NewNop())
	require.NoError(testInstance, creationError)
	return client
}

func TestClientRepositoryExists(testInstance *testing.T) {
	var creations []recordedCreation
	var authorizations []string
	client := newTestClient(testInstance, newTestServer(testInstance, &creations, &authorizations), githubapi.OrganizationOwnerType)

	testCases := []struct {
		name           string
		repository     string
		expectedExists bool
		expectError    bool
	}{
		{name: "existing", repository: "existing", expectedExists: true},
		{name: "missing", repository: "missing", expectedExists: false},
		{name: "server_error", repository: "broken", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			exists, lookupError := client.RepositoryExists(context.Background(), "acme", testCase.repository)
			if testCase.expectError {
				require.Error(testInstance, lookupError)
				return
			}
			require.NoError(testInstance, lookupError)
			require.Equal(testInstance, testCase.expectedExists, exists)
		})
	}

	require.Equal(testInstance, []string{"Bearer " + testTokenConstant}, authorizations)
}

func TestClientGetRepository(testInstance *testing.T) {
	var creations []recordedCreation
	var authorizations []string
	client := newTestClient(testInstance, newTestServer(testInstance, &creations, &authorizations), githubapi.OrganizationOwnerType)

	repository, getError := client.GetRepository(context.Background(), "acme", "existing")
	require.NoError(testInstance, getError)
	require.Equal(testInstance, githubapi.Repository{FullName: "acme/existing", CloneURL: existingCloneURLConstant}, repository)

	_, missingError := client.GetRepository(context.Background(), "acme", "missing")
	require.ErrorIs(testInstance, missingError, githubapi.ErrRepositoryNotFound)
}

func TestClientCreateRepository(testInstance *testing.T) {
	testCases := []struct {
		name         string
		ownerType    githubapi.OwnerType
		expectedPath string
	}{
		{name: "organization_owner", ownerType: githubapi.OrganizationOwnerType, expectedPath: organizationReposPath},
		{name: "user_owner", ownerType: githubapi.UserOwnerType, expectedPath: userReposPath},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var creations []recordedCreation
			var authorizations []string
			client := newTestClient(testInstance, newTestServer(testInstance, &creations, &authorizations), testCase.ownerType)

			repository, createError := client.CreateRepository(context.Background(), "acme", "a-team2", "service a", true)

			require.NoError(testInstance, createError)
			require.Equal(testInstance, githubapi.Repository{FullName: createdRepositoryFullName, CloneURL: createdCloneURLConstant}, repository)
			require.Len(testInstance, creations, 1)
			require.Equal(testInstance, testCase.expectedPath, creations[0].path)
			require.Equal(testInstance, "a-team2", creations[0].payload["name"])
			require.Equal(testInstance, "service a", creations[0].payload["description"])
			require.Equal(testInstance, true, creations[0].payload["private"])
		})
	}
}

func TestClientHasContent(testInstance *testing.T) {
	var creations []recordedCreation
	var authorizations []string
	client := newTestClient(testInstance, newTestServer(testInstance, &creations, &authorizations), githubapi.OrganizationOwnerType)

	hasContent, contentError := client.HasContent(context.Background(), "acme", "existing")
	require.NoError(testInstance, contentError)
	require.True(testInstance, hasContent)

	isPopulated, emptyError := client.HasContent(context.Background(), "acme", "empty")
	require.NoError(testInstance, emptyError)
	require.False(testInstance, isPopulated)
}

func TestParseOwnerType(testInstance *testing.T) {
	testCases := []struct {
		value     string
		expected  githubapi.OwnerType
		expectErr bool
	}{
		{value: "org", expected: githubapi.OrganizationOwnerType},
		{value: " Organization ", expected: githubapi.OrganizationOwnerType},
		{value: "USER", expected: githubapi.UserOwnerType},
		{value: "", expectErr: true},
		{value: "team", expectErr: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.value, func(testInstance *testing.T) {
			ownerType, parseError := githubapi.ParseOwnerType(testCase.value)
			if testCase.expectErr {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, ownerType)
		})
	}
}

func TestNewClientRequiresToken(testInstance *testing.T) {
	_, creationError := githubapi.NewClient(context.Background(), githubapi.Configuration{}, nil)
	require.ErrorIs(testInstance, creationError, githubapi.ErrTokenNotConfigured)
}
