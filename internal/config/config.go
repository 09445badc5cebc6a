package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentx-labs/plugin-installer/internal/branding"
	"github.com/agentx-labs/plugin-installer/internal/logging"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const fileType = "yaml"

// Setting keys.
const (
	KeyRootDir   = "root_dir"
	KeyVendorDir = "vendor_dir"
	KeyNamespace = "namespace"
	KeySourceExt = "source_ext"
	KeyLock      = "lock"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
)

// Keys lists every setting accepted by Get and Set.
var Keys = []string{
	KeyRootDir,
	KeyVendorDir,
	KeyNamespace,
	KeySourceExt,
	KeyLock,
	KeyLogLevel,
	KeyLogFormat,
}

// Settings is the resolved configuration. Paths are absolute and cleaned.
type Settings struct {
	RootDir   string
	VendorDir string
	Namespace string
	SourceExt string
	Lock      bool
	LogLevel  string
	LogFormat string
}

// Config wraps a private viper instance.
type Config struct {
	v *viper.Viper
}

// New returns a Config with defaults and environment lookup in place.
func New() *Config {
	v := viper.New()
	v.SetDefault(KeyNamespace, branding.RegistryNamespace())
	v.SetDefault(KeySourceExt, ".php")
	v.SetDefault(KeyLock, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// BindFlags binds each flag whose name matches a setting key with "-" in
// place of "_".
func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range Keys {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := c.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", flag.Name, err)
		}
	}
	return nil
}

// Override sets a value that takes precedence over every other source.
func (c *Config) Override(key string, value any) {
	c.v.Set(key, value)
}

// FilePath returns the config file path for the project root.
func (c *Config) FilePath() (string, error) {
	root, err := c.rootDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, branding.ConfigName()+"."+fileType), nil
}

// Load reads the project config file if it exists.
func (c *Config) Load() error {
	path, err := c.FilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	c.v.SetConfigFile(path)
	c.v.SetConfigType(fileType)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Current returns the resolved settings.
func (c *Config) Current() (Settings, error) {
	root, err := c.rootDir()
	if err != nil {
		return Settings{}, err
	}

	vendor := c.v.GetString(KeyVendorDir)
	switch {
	case vendor == "":
		vendor = filepath.Join(root, "vendor")
	case !filepath.IsAbs(vendor):
		vendor = filepath.Join(root, vendor)
	}

	lock, err := cast.ToBoolE(c.v.Get(KeyLock))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyLock, err)
	}

	s := Settings{
		RootDir:   root,
		VendorDir: filepath.Clean(vendor),
		Namespace: c.v.GetString(KeyNamespace),
		SourceExt: c.v.GetString(KeySourceExt),
		Lock:      lock,
		LogLevel:  c.v.GetString(KeyLogLevel),
		LogFormat: c.v.GetString(KeyLogFormat),
	}
	if s.Namespace == "" {
		s.Namespace = branding.RegistryNamespace()
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Get returns a setting as a string.
func (c *Config) Get(key string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", unknownKey(key)
	}
	return c.v.GetString(key), nil
}

// Set writes key to the project config file, creating it if needed. Only
// keys already in the file and the new one are written.
func (c *Config) Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return unknownKey(key)
	}
	if key == KeyRootDir {
		return fmt.Errorf("%s cannot be set in the project config file", key)
	}

	var typed any = value
	if key == KeyLock {
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		typed = b
	}
	if key == KeyLogLevel {
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
	}

	path, err := c.FilePath()
	if err != nil {
		return err
	}

	file := viper.New()
	file.SetConfigType(fileType)
	if _, err := os.Stat(path); err == nil {
		file.SetConfigFile(path)
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	file.Set(key, typed)

	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}

	c.v.Set(key, typed)
	return nil
}

func (c *Config) rootDir() (string, error) {
	root := c.v.GetString(KeyRootDir)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	return abs, nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
}
