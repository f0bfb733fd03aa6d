// Package history records the outcome of every resolution attempt in a
// SQLite database so past runs can be listed with `legendastv history`.
package history
