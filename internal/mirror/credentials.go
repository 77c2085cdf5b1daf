package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// GitLabTokenUsername is the basic-auth user GitLab expects with access tokens.
	GitLabTokenUsername = "oauth2"
	// GitHubTokenUsername is the basic-auth user GitHub expects with access tokens.
	GitHubTokenUsername = "x-access-token"

	parseURLErrorTemplate     = "parse repository URL: %w"
	unsupportedSchemeTemplate = "repository URL scheme %q cannot carry token credentials"
	httpsSchemeConstant       = "https"
	httpSchemeConstant        = "http"
)

// URLCredentials is the userinfo placed into an HTTP(S) remote URL.
type URLCredentials struct {
	Username string
	Token    string
}

// AuthenticatedURL returns rawURL with the credentials as userinfo. Empty tokens leave the URL unchanged.
func AuthenticatedURL(rawURL string, credentials URLCredentials) (string, error) {
	if len(strings.TrimSpace(credentials.Token)) == 0 {
		return rawURL, nil
	}
	parsedURL, parseError := url.Parse(strings.TrimSpace(rawURL))
	if parseError != nil {
		return "", fmt.Errorf(parseURLErrorTemplate, parseError)
	}
	if parsedURL.Scheme != httpsSchemeConstant && parsedURL.Scheme != httpSchemeConstant {
		return "", fmt.Errorf(unsupportedSchemeTemplate, parsedURL.Scheme)
	}
	parsedURL.User = url.UserPassword(credentials.Username, credentials.Token)
	return parsedURL.String(), nil
}

// splitURLCredentials removes userinfo from rawURL and returns it separately.
func splitURLCredentials(rawURL string) (string, URLCredentials, error) {
	parsedURL, parseError := url.Parse(strings.TrimSpace(rawURL))
	if parseError != nil {
		return "", URLCredentials{}, fmt.Errorf(parseURLErrorTemplate, parseError)
	}
	if parsedURL.User == nil {
		return parsedURL.String(), URLCredentials{}, nil
	}
	token, _ := parsedURL.User.Password()
	credentials := URLCredentials{Username: parsedURL.User.Username(), Token: token}
	parsedURL.User = nil
	return parsedURL.String(), credentials, nil
}
