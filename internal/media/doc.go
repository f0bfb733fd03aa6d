// Package media holds the value types shared by the resolution engine:
// guessed queries, catalog title and subtitle candidates, their scored
// forms, and season/episode marker parsing.
package media
