// Package logs reads the daily legendastv log files.
//
// Tail returns the last lines of a file or everything appended after a
// byte offset, optionally polling until new lines arrive, with bounded
// memory. Filter selects JSON log records by level, request correlation id,
// video or provider so a single resolution can be followed through a busy
// batch log.
package logs
