// Package logging provides a shared zap logger for the CLI and library
// packages.
//
// Logging is silent by default so the CLI output stays clean; set the
// EXTALIFE_LOG_LEVEL environment variable ("debug", "info", "warn",
// "error") to enable it. Debug level includes per-frame protocol dumps
// with passwords masked.
package logging
