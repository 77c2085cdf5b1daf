// Package projectdata carries the optional per-project steps that run beside the repository mirror:
// converting wiki pages into issues and driving the external data migration tool.
package projectdata
