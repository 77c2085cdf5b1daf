package report_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lab2hub/internal/report"
)

var ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestWriterReporterPrintsLinesAndPlainSummary(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := report.NewWriterReporter(&output, false)

	reporter.Printf("Migrating %s to %s...", "team2/a", "a-team2")
	reporter.Printf("%s already exists\n", "b")
	reporter.PrintSummary(report.Summary{Migrated: 2, AlreadyPresent: 0, Total: 3, CreatedEmpty: 1})

	require.Equal(testInstance,
		"Migrating team2/a to a-team2...\n"+
			"b already exists\n"+
			"Summary: migrated 2, already present 0, total 3 (created empty 1, skipped 0, failed 0)\n",
		output.String())
}

func TestFormatSummaryMarksDryRun(testInstance *testing.T) {
	summary := report.FormatSummary(report.Summary{Migrated: 1, Total: 1, DryRun: true})
	require.Equal(testInstance, "Summary (dry run): migrated 1, already present 0, total 1 (created empty 0, skipped 0, failed 0)\n", summary)
}

func TestWriterReporterStyledSummaryKeepsCountsInOrder(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := report.NewWriterReporter(&output, true)

	reporter.PrintSummary(report.Summary{Migrated: 4, AlreadyPresent: 5, Total: 12, CreatedEmpty: 1, Skipped: 1, Failed: 1})

	plain := ansiEscapePattern.ReplaceAllString(output.String(), "")
	require.Regexp(testInstance, `^Summary\s+migrated 4\s+already present 5\s+total 12\s+created empty 1\s+skipped 1\s+failed 1\n$`, plain)
}
