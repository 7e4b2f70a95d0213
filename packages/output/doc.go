// Package output renders request results, failures and latency statistics
// for the CLI.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, one document per call
//
// Both implement Formatter; New picks one by name.
package output
