// Package config provides configuration loading, merging, and path management
// for the hook dispatcher.
//
// # Configuration Loading
//
// LoadFS searches for and merges configuration from multiple sources in
// priority order:
//
//  1. Global config ($XDG_CONFIG_HOME/actingweb/hooks.*)
//  2. Project config (<dir>/actingweb.* and <dir>/.actingweb/hooks.*)
//  3. ACTINGWEB_CONFIG file
//  4. ACTINGWEB_CONFIG_CONTENT inline JSON
//  5. Environment variables
//
// Load is LoadFS over the OS file system; tests use afero.NewMemMapFs.
//
// # Supported Formats
//
//   - *.json  - Standard JSON configuration
//   - *.jsonc - JSON with comments, processed using tidwall/jsonc
//   - *.yaml, *.yml - YAML, decoded with gopkg.in/yaml.v3
//
// # Variable Interpolation
//
// Configuration files support two types of variable interpolation:
//   - {env:VAR_NAME} - Expands to environment variable values
//   - {file:path} - Expands to file contents (escaped for JSON files)
//
// Relative {file:path} placeholders resolve against the directory of the
// config file; ~/ expands to $HOME.
//
// # Merging
//
// Server and dispatch settings merge field by field, later sources
// winning. The permission and log blocks are replaced as a whole. Hooks
// accumulate in load order, so a project file adds to the global hooks
// rather than replacing them.
//
// # Environment Overrides
//
//   - ACTINGWEB_PORT, ACTINGWEB_HOSTNAME
//   - ACTINGWEB_DISPATCH_MODE ("blocking" | "cooperative")
//   - ACTINGWEB_DISPATCH_TIMEOUT (Go duration)
//   - ACTINGWEB_PERMISSION (JSON permission block)
//
// # Reloading
//
// Watcher observes the directories of the candidate files with fsnotify
// and reloads the configuration after a short quiet period. Only the
// permission rules are expected to change at runtime; hooks are wired
// once.
package config
