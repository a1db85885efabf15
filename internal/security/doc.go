// Package security derives the engine's security posture report from its
// validated configuration.
//
// # What this package must NOT do
//
//   - Import the root pinauth package (the engine maps its config into
//     ReportInput).
//   - Inspect live state; the report reflects configuration only.
package security
