// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     reporting consistent across pipeline stages.
//   - Details extraction that turns a wrapped stage error into the single
//     human-readable message surfaced to the user.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
