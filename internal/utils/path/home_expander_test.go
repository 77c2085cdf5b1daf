package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/lab2hub/internal/utils/path"
)

func TestHomeExpanderResolvePath(testInstance *testing.T) {
	homeDirectory := filepath.Join(string(filepath.Separator), "home", "migrator")
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return homeDirectory, nil
	})

	testCases := []struct {
		name         string
		candidate    string
		expectedPath string
	}{
		{name: "empty_stays_empty", candidate: "   ", expectedPath: ""},
		{name: "bare_tilde", candidate: "~", expectedPath: homeDirectory},
		{name: "tilde_prefix", candidate: " ~/tools/node-gitlab-2-github ", expectedPath: filepath.Join(homeDirectory, "tools", "node-gitlab-2-github")},
		{name: "other_user_untouched", candidate: "~other/tools", expectedPath: "~other/tools"},
		{name: "absolute_cleaned", candidate: "/opt//tools/./", expectedPath: "/opt/tools"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPath, expander.ResolvePath(testCase.candidate))
		})
	}
}

func TestHomeExpanderLeavesPathWhenHomeUnavailable(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})

	require.Equal(testInstance, "~/settings.ts", expander.Expand("~/settings.ts"))
}
