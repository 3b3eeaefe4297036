// Package configs embeds the configuration template written by
// `trovo config init`.
//
// The precedence the template documents is implemented by
// internal/config Load():
//  1. Hardcoded defaults (NewConfig)
//  2. User config ($XDG_CONFIG_HOME/trovo/config.yaml)
//  3. --config file
//  4. Environment variables (TROVO_*)
package configs

import _ "embed"

// UserConfigTemplate is the commented user configuration.
//
//go:embed config.example.yaml
var UserConfigTemplate string
