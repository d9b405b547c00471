// Package config defines the synckit configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of loaded values
//   - duration.go: Duration type shared by koanf decoding and YAML output
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// SYNCKIT_ environment variables and command-line flags.
package config
