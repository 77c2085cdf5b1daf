// Package report prints the operator-facing progress lines of a migration run and its closing summary.
package report
