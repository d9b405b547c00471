// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (SYNCKIT_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// A Watcher reports changes to the configuration file so callers can
// call Loader.Reload and apply the settings that are safe to change at
// runtime.
package confloader
