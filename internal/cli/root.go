package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/plugin-installer/internal/alias"
	"github.com/agentx-labs/plugin-installer/internal/branding"
	"github.com/agentx-labs/plugin-installer/internal/config"
	"github.com/agentx-labs/plugin-installer/internal/installer"
	"github.com/agentx-labs/plugin-installer/internal/library"
	"github.com/agentx-labs/plugin-installer/internal/logging"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/agentx-labs/plugin-installer/internal/registry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	version string
	commit  string
	date    string
}

// app holds what the commands share once flags and config are resolved.
type app struct {
	build    buildInfo
	cfg      *config.Config
	settings config.Settings
	fs       afero.Fs
	noLock   bool
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	cmd := newRootCmd(buildInfo{version: version, commit: commit, date: date})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(build buildInfo) *cobra.Command {
	a := &app{build: build, cfg: config.New(), fs: afero.NewOsFs()}

	root := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` keeps the CMS plugin registry in sync with the packages
installed into the vendor directory. Each install, update or uninstall runs the
file-level step first and then rewrites <vendor>/<namespace>/plugins.hcl.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("root-dir", "", "Project root (default: current directory) "+envHint(config.KeyRootDir))
	flags.String("vendor-dir", "", "Vendor directory (default: <root-dir>/vendor) "+envHint(config.KeyVendorDir))
	flags.String("namespace", "", "Registry namespace under the vendor directory (default: "+branding.RegistryNamespace()+") "+envHint(config.KeyNamespace))
	flags.String("log-level", "", "Log level: debug, info, warn or error "+envHint(config.KeyLogLevel))
	flags.String("log-format", "", "Log format: text or json "+envHint(config.KeyLogFormat))
	flags.BoolVar(&a.noLock, "no-lock", false, "Do not take the registry file lock")
	// Flags are registered above, so binding cannot fail.
	_ = a.cfg.BindFlags(flags)

	root.AddCommand(
		newInstallCmd(a),
		newUpdateCmd(a),
		newUninstallCmd(a),
		newRegisterRootCmd(a),
		newListCmd(a),
		newValidateCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and puts a logger on the command context.
// envHint names the environment variable that also sets a flag's key.
func envHint(key string) string {
	return "[$" + branding.EnvVar(key) + "]"
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.noLock {
		a.cfg.Override(config.KeyLock, false)
	}
	if err := a.cfg.Load(); err != nil {
		return err
	}
	settings, err := a.cfg.Current()
	if err != nil {
		return err
	}
	a.settings = settings

	logger, err := logging.New(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logger))
	return nil
}

func (a *app) store() *registry.Store {
	return registry.NewStore(a.fs, a.settings.VendorDir, a.settings.RootDir, a.settings.Namespace)
}

func (a *app) resolver(workingDir string) *alias.Resolver {
	r := alias.New(a.fs, a.settings.VendorDir, workingDir)
	r.SourceExt = a.settings.SourceExt
	return r
}

func (a *app) installer() *installer.Installer {
	store := a.store()
	var opts []installer.Option
	if a.settings.Lock {
		opts = append(opts, installer.WithLocker(registry.NewFileLock(store.LockPath())))
	}
	return installer.New(
		library.New(a.fs, a.settings.VendorDir),
		plugin.NewBuilder(a.resolver(a.settings.RootDir)),
		store,
		opts...,
	)
}

// resolvePackage reads the manifest at arg, which may be a manifest file or
// a package directory. An arg that does not exist on disk but looks like
// "vendor/name" is taken as a bare package name.
func resolvePackage(arg string) (*manifest.Package, error) {
	if _, err := os.Stat(arg); errors.Is(err, fs.ErrNotExist) && looksLikePackageName(arg) {
		return &manifest.Package{
			Name:       strings.ToLower(arg),
			PrettyName: arg,
			Version:    manifest.DefaultVersion,
		}, nil
	}
	return manifest.ParseFile(arg)
}

func looksLikePackageName(s string) bool {
	vendor, name, ok := strings.Cut(s, "/")
	return ok && vendor != "" && name != "" && !strings.Contains(name, "/") && filepath.Ext(s) == ""
}
