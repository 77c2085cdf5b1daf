package migrate

import (
	"strings"

	"github.com/temirov/lab2hub/internal/catalog"
)

// DestinationName returns the override registered for the project's full path, or its short path.
func DestinationName(record catalog.ProjectRecord, overrides map[string]string) string {
	if override, exists := overrides[record.PathWithNamespace]; exists {
		trimmedOverride := strings.TrimSpace(override)
		if len(trimmedOverride) > 0 {
			return trimmedOverride
		}
	}
	return record.Path
}
