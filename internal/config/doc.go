// Package config provides configuration management for the broker and worker
// nodes. Configuration is loaded from defaults, a YAML file, environment
// variables and command-line overrides, in increasing order of precedence.
package config
