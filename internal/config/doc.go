// Package config resolves installer settings from, in order of precedence,
// command-line flags, PLUGIN_INSTALLER_* environment variables, the optional
// plugin-installer.yaml in the project root, and built-in defaults.
package config
