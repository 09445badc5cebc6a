package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <manifest>...",
		Short: "Install packages and register their plugins",
		Long: `Copy each package into the vendor directory and add its plugin to the registry.
Arguments are manifest files or package directories containing composer.json.
If a manifest does not describe a valid plugin, the copied files are removed again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst := a.installer()
			for _, arg := range args {
				pkg, err := resolvePackage(arg)
				if err != nil {
					return err
				}
				res, err := inst.Install(cmd.Context(), pkg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s (%s)\n", res.Package, res.Descriptor.Handle, res.Descriptor.Version)
			}
			return nil
		},
	}
}
