// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions lab2hub uses to run
// git mirror transfers and the npm data tool in a testable manner. Credentials
// embedded in remote URLs are redacted before anything is logged.
package execshell
