// Package logging wraps log/slog with the helpers the pipeline uses for
// structured output.
//
// Key pieces:
//   - New/NewFromConfig: logger construction with console or JSON handlers
//   - Attr helpers (String, Int, Error, Args) shared by all call sites
//   - Context carriers that stamp job id and stage onto derived loggers
//   - ProgressSampler: suppresses repetitive progress log lines
package logging
