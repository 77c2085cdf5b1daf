package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/lab2hub/internal/utils"
)

const (
	summaryTemplateConstant         = "%s: %s %d, %s %d, %s %d (%s %d, %s %d, %s %d)\n"
	summaryTitleConstant            = "Summary"
	dryRunSummaryTitleConstant      = "Summary (dry run)"
	migratedLabelConstant           = "migrated"
	alreadyPresentLabelConstant     = "already present"
	totalLabelConstant              = "total"
	createdEmptyLabelConstant       = "created empty"
	skippedLabelConstant            = "skipped"
	failedLabelConstant             = "failed"
	lineTerminatorConstant          = "\n"
	successColorConstant            = "10"
	warningColorConstant            = "11"
	failureColorConstant            = "9"
	mutedColorConstant              = "8"
	styledSummarySeparatorConstant  = "  "
	styledSummaryPairTemplate       = "%s %s"
	styledSummaryFailureCountFormat = "%d"
)

// Summary holds the per-outcome counts of a run. Migrated, AlreadyPresent and Total lead the report in that order.
type Summary struct {
	Migrated       int
	AlreadyPresent int
	Total          int
	CreatedEmpty   int
	Skipped        int
	Failed         int
	DryRun         bool
}

// Reporter emits progress lines and the run summary.
type Reporter interface {
	Printf(format string, args ...any)
	PrintSummary(summary Summary)
}

type writerReporter struct {
	writer io.Writer
	styled bool
}

// NewWriterReporter constructs a Reporter writing plain lines to writer, or styled summaries when styled is set.
func NewWriterReporter(writer io.Writer, styled bool) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &writerReporter{writer: utils.NewFlushingWriter(writer), styled: styled}
}

// Printf writes one progress line; a trailing newline is added when missing.
func (reporter *writerReporter) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, lineTerminatorConstant) {
		line += lineTerminatorConstant
	}
	_, _ = io.WriteString(reporter.writer, line)
}

// PrintSummary writes the closing summary line.
func (reporter *writerReporter) PrintSummary(summary Summary) {
	if reporter.styled {
		_, _ = io.WriteString(reporter.writer, renderStyledSummary(summary)+lineTerminatorConstant)
		return
	}
	_, _ = io.WriteString(reporter.writer, FormatSummary(summary))
}

// FormatSummary renders the summary as a single plain line.
func FormatSummary(summary Summary) string {
	return fmt.Sprintf(summaryTemplateConstant,
		summaryTitle(summary),
		migratedLabelConstant, summary.Migrated,
		alreadyPresentLabelConstant, summary.AlreadyPresent,
		totalLabelConstant, summary.Total,
		createdEmptyLabelConstant, summary.CreatedEmpty,
		skippedLabelConstant, summary.Skipped,
		failedLabelConstant, summary.Failed,
	)
}

func summaryTitle(summary Summary) string {
	if summary.DryRun {
		return dryRunSummaryTitleConstant
	}
	return summaryTitleConstant
}

func renderStyledSummary(summary Summary) string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColorConstant))
	successStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(successColorConstant))
	warningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(warningColorConstant))
	failureStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(failureColorConstant))

	failedCountStyle := labelStyle
	if summary.Failed > 0 {
		failedCountStyle = failureStyle
	}

	pair := func(label string, count int, countStyle lipgloss.Style) string {
		return fmt.Sprintf(styledSummaryPairTemplate, labelStyle.Render(label), countStyle.Render(fmt.Sprintf(styledSummaryFailureCountFormat, count)))
	}

	return strings.Join([]string{
		titleStyle.Render(summaryTitle(summary)),
		pair(migratedLabelConstant, summary.Migrated, successStyle),
		pair(alreadyPresentLabelConstant, summary.AlreadyPresent, titleStyle),
		pair(totalLabelConstant, summary.Total, titleStyle),
		pair(createdEmptyLabelConstant, summary.CreatedEmpty, warningStyle),
		pair(skippedLabelConstant, summary.Skipped, warningStyle),
		pair(failedLabelConstant, summary.Failed, failedCountStyle),
	}, styledSummarySeparatorConstant)
}
