// Package migrate reconciles a GitLab project catalog against a GitHub
// organization. Each project is mirrored at most once, existing destinations
// are left untouched, and per-project failures never abort the run.
package migrate
