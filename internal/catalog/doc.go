// Package catalog enumerates every project on the source platform.
//
// Fetcher walks the paginated project listing until an empty page comes back
// and returns the records ordered by their case-insensitive project path, so
// same-named projects from different namespaces appear next to each other.
package catalog
