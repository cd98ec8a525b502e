// Package query validates evidence queries and fills in their defaults
// before they reach a storage backend.
package query
