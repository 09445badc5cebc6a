package cli

import (
	"fmt"
	"path/filepath"

	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/spf13/cobra"
)

func newRegisterRootCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register-root [manifest]",
		Short: "Register the project's own manifest as a plugin",
		Long: `Register the root project as a plugin. Autoload paths are resolved against the
project root. The manifest defaults to composer.json in the project root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.settings.RootDir, manifest.DefaultFileName)
			if len(args) == 1 {
				path = args[0]
			}

			pkg, err := manifest.ParseFile(path)
			if err != nil {
				return err
			}
			res, err := a.installer().RegisterRoot(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered root package %s as %s\n", res.Package, res.Descriptor.Handle)
			return nil
		},
	}
}
