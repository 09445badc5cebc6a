package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <manifest|vendor/name>...",
		Short: "Remove packages and unregister their plugins",
		Long: `Remove each package from the vendor directory and drop its plugin from the
registry. The registry entry is kept when the files cannot be removed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst := a.installer()
			for _, arg := range args {
				pkg, err := resolvePackage(arg)
				if err != nil {
					return err
				}
				res, err := inst.Uninstall(cmd.Context(), pkg)
				if err != nil {
					return err
				}
				if res.Descriptor == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", res.Package)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unregistered %s\n", res.Package)
			}
			return nil
		},
	}
}
