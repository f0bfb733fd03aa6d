// Package cache persists catalog data between runs.
//
// Responses is a bbolt-backed key/value store for raw provider search
// results with a per-read freshness limit. Archives is a write-once
// directory of downloaded subtitle archives keyed by provider and
// subtitle id. Neither stores ranking output; ranks are always recomputed.
package cache
