// Package output renders command results for the synckit CLI.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables, with wide-only columns
//   - json.go, yaml.go: machine-readable output
package output
