package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	pathutils "github.com/temirov/lab2hub/internal/utils/path"
)

const (
	tokenSourceSeparatorConstant               = ":"
	environmentTokenSourceTypeValueConstant    = "env"
	fileTokenSourceTypeValueConstant           = "file"
	tokenSourceMissingErrorMessageConstant     = "token source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	filePathMissingErrorMessageConstant        = "token file path must be provided"
	environmentTokenMissingTemplateConstant    = "environment variable %s is not set"
	fileReadErrorTemplateConstant              = "unable to read token file %s: %w"
	fileTokenEmptyErrorTemplateConstant        = "token file %s is empty"
	unsupportedTokenSourceTemplateConstant     = "unsupported token source type %q"
	literalTokenEmptyErrorMessageConstant      = "literal token is empty"
	fallbackTokenMissingTemplateConstant       = "no token source configured and none of %s is set"
	fallbackNamesSeparatorConstant             = ", "
)

// Environment variables consulted when a platform token source is not configured.
var (
	GitLabTokenEnvironmentVariables = []string{"GITLAB_TOKEN", "GL_TOKEN"}
	GitHubTokenEnvironmentVariables = []string{"GH_TOKEN", "GITHUB_TOKEN", "GITHUB_API_TOKEN"}
)

// ErrTokenNotFound indicates that no configured or fallback source produced a token.
var ErrTokenNotFound = errors.New("token not found")

// TokenSourceType enumerates the supported token retrieval mechanisms.
type TokenSourceType string

// Token source type enumerations.
const (
	TokenSourceTypeEnvironment TokenSourceType = TokenSourceType(environmentTokenSourceTypeValueConstant)
	TokenSourceTypeFile        TokenSourceType = TokenSourceType(fileTokenSourceTypeValueConstant)
	TokenSourceTypeLiteral     TokenSourceType = "literal"
)

// TokenSourceConfiguration specifies how to locate a credentials token.
type TokenSourceConfiguration struct {
	Type      TokenSourceType
	Reference string
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// TokenResolver retrieves authentication tokens from configured sources.
type TokenResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
	homeExpander      *pathutils.HomeExpander
}

// NewTokenResolver creates a token resolver with optional dependency overrides.
func NewTokenResolver(environmentLookup EnvironmentLookup, fileReader FileReader) *TokenResolver {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if fileReader == nil {
		fileReader = os.ReadFile
	}
	return &TokenResolver{
		environmentLookup: environmentLookup,
		fileReader:        fileReader,
		homeExpander:      pathutils.NewHomeExpander(),
	}
}

// ParseTokenSource interprets textual token source declarations. Values without an env: or file: prefix
// are literal tokens.
func ParseTokenSource(sourceValue string) (TokenSourceConfiguration, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return TokenSourceConfiguration{}, errors.New(tokenSourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return TokenSourceConfiguration{Type: TokenSourceTypeLiteral, Reference: trimmedValue}, nil
	}

	reference := strings.TrimSpace(components[1])
	switch strings.ToLower(strings.TrimSpace(components[0])) {
	case environmentTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeEnvironment, Reference: reference}, nil
	case fileTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeFile, Reference: reference}, nil
	default:
		return TokenSourceConfiguration{Type: TokenSourceTypeLiteral, Reference: trimmedValue}, nil
	}
}

// ResolveToken reads the token named by the source.
func (resolver *TokenResolver) ResolveToken(resolutionContext context.Context, source TokenSourceConfiguration) (string, error) {
	_ = resolutionContext
	switch source.Type {
	case TokenSourceTypeEnvironment:
		value, found := resolver.environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant+": %w", source.Reference, ErrTokenNotFound)
		}
		return trimmedValue, nil
	case TokenSourceTypeFile:
		tokenPath := resolver.homeExpander.ResolvePath(source.Reference)
		contents, readError := resolver.fileReader(tokenPath)
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, tokenPath, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(fileTokenEmptyErrorTemplateConstant+": %w", tokenPath, ErrTokenNotFound)
		}
		return trimmedValue, nil
	case TokenSourceTypeLiteral:
		trimmedValue := strings.TrimSpace(source.Reference)
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(literalTokenEmptyErrorMessageConstant+": %w", ErrTokenNotFound)
		}
		return trimmedValue, nil
	default:
		return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Type)
	}
}

// Resolve parses the configured source and reads it. An empty source falls back to the first non-empty
// variable among fallbackVariables.
func (resolver *TokenResolver) Resolve(resolutionContext context.Context, sourceValue string, fallbackVariables []string) (string, error) {
	if len(strings.TrimSpace(sourceValue)) > 0 {
		source, parseError := ParseTokenSource(sourceValue)
		if parseError != nil {
			return "", parseError
		}
		return resolver.ResolveToken(resolutionContext, source)
	}

	for _, variableName := range fallbackVariables {
		if value, found := resolver.environmentLookup(variableName); found {
			trimmedValue := strings.TrimSpace(value)
			if len(trimmedValue) > 0 {
				return trimmedValue, nil
			}
		}
	}
	return "", fmt.Errorf(fallbackTokenMissingTemplateConstant+": %w", strings.Join(fallbackVariables, fallbackNamesSeparatorConstant), ErrTokenNotFound)
}
