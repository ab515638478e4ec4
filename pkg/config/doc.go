// Package config loads vuru settings from a TOML file and the
// environment. Resolution is layered: built-in defaults first, then
// the config file at $XDG_CONFIG_HOME/vuru/config.toml (or an explicit
// path), then VURU_* environment variables, each layer replacing the
// one below. A missing file at the default location is not an error.
package config
