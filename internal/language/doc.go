// Package language maps the language codes used across the catalogs.
//
// Users configure languages with the short codes Legendas.TV made common
// (pb for Brazilian Portuguese, pt for European Portuguese, en, es, ...).
// This package translates those codes to ISO 639-2, display names, the
// numeric Legendas.TV language ids and flag names, and the OpenSubtitles
// REST language tags.
package language
