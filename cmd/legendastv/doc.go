// Package main hosts the legendastv CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into resolver
// runs, catalog searches, ranking previews, subtitle cleanup and history
// queries. It centralizes configuration loading, logger setup and catalog
// session wiring so subcommands only deal with presentation.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
