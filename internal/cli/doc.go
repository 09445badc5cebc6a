// Package cli defines the Cobra command tree for the plugin-installer CLI.
// Each file builds one top-level command. Commands only parse arguments and
// format output; the hooks live in the installer package.
package cli
