package projectdata

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

const (
	projectIDReplacementPrefix  = "projectId: "
	repositoryReplacementFormat = "repo: '%s'"
	readSettingsErrorTemplate   = "read settings file %s: %w"
	writeSettingsErrorTemplate  = "write settings file %s: %w"
	statSettingsErrorTemplate   = "inspect settings file %s: %w"
)

var (
	projectIDPattern  = regexp.MustCompile(`(?m)projectId: \d*`)
	repositoryPattern = regexp.MustCompile(`(?m)repo: '.*'`)
)

// PatchSettings rewrites every "projectId: <digits>" and "repo: '<text>'" occurrence with the given values.
// Content without either pattern is returned unchanged.
func PatchSettings(content string, projectID int, repositoryName string) string {
	patched := projectIDPattern.ReplaceAllLiteralString(content, projectIDReplacementPrefix+strconv.Itoa(projectID))
	return repositoryPattern.ReplaceAllLiteralString(patched, fmt.Sprintf(repositoryReplacementFormat, repositoryName))
}

// RewriteSettingsFile applies PatchSettings to the file in place and keeps its permissions.
func RewriteSettingsFile(settingsPath string, projectID int, repositoryName string) error {
	fileInfo, statError := os.Stat(settingsPath)
	if statError != nil {
		return fmt.Errorf(statSettingsErrorTemplate, settingsPath, statError)
	}
	content, readError := os.ReadFile(settingsPath)
	if readError != nil {
		return fmt.Errorf(readSettingsErrorTemplate, settingsPath, readError)
	}

	patched := PatchSettings(string(content), projectID, repositoryName)
	if writeError := os.WriteFile(settingsPath, []byte(patched), fileInfo.Mode().Perm()); writeError != nil {
		return fmt.Errorf(writeSettingsErrorTemplate, settingsPath, writeError)
	}
	return nil
}
