// Package services defines shared utilities consumed by the resolver and the
// catalog integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, stage names and the
//     video being resolved for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (not found vs failed) without string matching.
//   - A call limiter with retry and exponential backoff for remote catalogs.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
