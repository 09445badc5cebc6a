// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool or point it at a
// different registry namespace without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName           string `yaml:"cli_name"`
	DisplayName       string `yaml:"display_name"`
	Description       string `yaml:"description"`
	EnvPrefix         string `yaml:"env_prefix"`
	ConfigName        string `yaml:"config_name"`
	RegistryNamespace string `yaml:"registry_namespace"`
	RegistryFile      string `yaml:"registry_file"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:           "plugin-installer",
			DisplayName:       "Plugin Installer",
			Description:       "Keeps the CMS plugin registry in sync with installed packages",
			EnvPrefix:         "PLUGIN_INSTALLER",
			ConfigName:        "plugin-installer",
			RegistryNamespace: "craftcms",
			RegistryFile:      "plugins.hcl",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "plugin-installer").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "PLUGIN_INSTALLER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigName returns the base name of the project config file, without extension.
func ConfigName() string { load(); return defaults.ConfigName }

// RegistryNamespace returns the vendor subdirectory that holds the registry
// artifact (e.g., "craftcms" for vendor/craftcms/plugins.hcl).
func RegistryNamespace() string { load(); return defaults.RegistryNamespace }

// RegistryFile returns the registry artifact file name.
func RegistryFile() string { load(); return defaults.RegistryFile }

// EnvVar returns the environment variable viper reads for a setting key,
// e.g. EnvVar("vendor_dir") → "PLUGIN_INSTALLER_VENDOR_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
