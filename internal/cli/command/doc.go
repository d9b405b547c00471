// Package command defines the synckit CLI commands.
//
// It uses urfave/cli/v2. Every command loads configuration the same way:
// defaults, then the --config file, then SYNCKIT_ environment variables,
// then flags that were set explicitly.
package command
