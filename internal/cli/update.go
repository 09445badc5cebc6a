package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <initial-manifest> <target-manifest>",
		Short: "Replace an installed package with another version",
		Long: `Replace the installed files of the initial package with the target package and
re-register the plugin. If the target does not describe a valid plugin, the
initial version is put back and its registry entry restored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial, err := resolvePackage(args[0])
			if err != nil {
				return err
			}
			target, err := resolvePackage(args[1])
			if err != nil {
				return err
			}

			res, err := a.installer().Update(cmd.Context(), initial, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s from %s to %s\n", res.Package, initial.Version, res.Descriptor.Version)
			return nil
		},
	}
}
