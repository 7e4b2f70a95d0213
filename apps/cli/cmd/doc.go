// Package cmd implements the apidriver CLI commands using Cobra.
//
// Available commands:
//   - get, delete: Send a request with an optional querystring
//   - post, put: Send a request with a raw, JSON, YAML or form body
//   - fixtures: Set, get and list persisted fixture values
//   - version: Show apidriver version information
//   - completion: Generate shell completion scripts
package cmd
