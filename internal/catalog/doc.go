// Package catalog defines the contract between the resolver and remote
// subtitle catalogs.
//
// A Provider searches titles, searches subtitles (flattening whatever
// pagination the remote uses) and downloads archives. Providers are built
// by factories held in a Registry that the CLI populates at startup; the
// resolved providers travel in a Session that callers create once and pass
// to every resolution. WithResponseCache wraps a provider so repeated
// searches are served from the on-disk response cache.
package catalog
