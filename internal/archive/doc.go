// Package archive unpacks subtitle archives downloaded from catalogs.
//
// The archive format is sniffed from content once (Sniff) and dispatched
// through the Archive interface, with ZIP and RAR implementations. Extract
// writes every entry below a destination directory, recurses into nested
// archives and returns the files matching an extension filter. Entry names
// stored in legacy DOS or Latin encodings are re-encoded to UTF-8.
package archive
