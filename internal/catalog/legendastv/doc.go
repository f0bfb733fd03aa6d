// Package legendastv implements the Legendas.TV catalog provider.
//
// The site exposes a JSON title search, an HTML subtitle listing that is
// paginated through "load more" links, and archive downloads keyed by a
// subtitle hash. All requests share one cookie jar so the login performed
// when the provider is opened carries over to downloads.
package legendastv
