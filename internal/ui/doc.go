// Package ui renders command lifecycle events as concise console lines.
//
// Console output stays readable for operators watching a migration while the
// detailed telemetry continues to flow through the structured logger.
package ui
