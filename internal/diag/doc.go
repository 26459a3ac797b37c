// Package diag defines the diagnostic model shared by the engine, the
// inspectors and the reporters.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - RuleID – stable kebab-case identifier of the rule that produced it.
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span and its resolved Location (path, start/end line and column).
//   - Suppressed – set by the suppression resolver; suppressed diagnostics are
//     kept in every list so totals stay inspectable.
//   - Data – free-form key/value details (e.g. the computed complexity).
//   - Notes – optional secondary spans/messages for additional context.
//
// Two diagnostics are the same finding when they share (RuleID, span); see Key.
//
// # Producers and consumers
//
// Rules emit through a Reporter, usually via the ReportBuilder helpers.
// Per-unit lists are collected in a Bag; the driver merges units into a
// Collector whose Result is deduplicated and ordered by path, line, column and
// rule id regardless of worker completion order.
//
// Package diag does not perform formatting or IO. Rendering lives in
// internal/diagfmt.
package diag
