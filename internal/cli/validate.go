package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Check manifests without installing them",
		Long: `Lint each manifest against the package schema, then build its plugin descriptor
with autoload paths resolved against the manifest's own directory. Nothing is
copied and the registry is not touched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, arg := range args {
				path := arg
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, manifest.DefaultFileName)
				}

				ok, err := a.validateOne(out, path)
				if err != nil {
					return err
				}
				if !ok {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d manifest(s) failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) validateOne(out io.Writer, path string) (bool, error) {
	result, err := manifest.ValidateFile(path)
	if err != nil {
		return false, err
	}
	if !result.Valid {
		fmt.Fprintf(out, "✗ %s\n", path)
		for _, issue := range result.Issues {
			fmt.Fprintf(out, "    %s: %s\n", issue.Path, issue.Message)
		}
		return false, nil
	}

	pkg, err := manifest.ParseFile(path)
	if err != nil {
		return false, err
	}
	d, warnings, err := plugin.NewBuilder(a.resolver(pkg.Dir)).Build(pkg, true)
	if err != nil {
		fmt.Fprintf(out, "✗ %s\n    %v\n", path, err)
		return false, nil
	}

	fmt.Fprintf(out, "✓ %s: %s (%s)\n", pkg.Name, d.Handle, d.Class)
	for _, w := range warnings {
		fmt.Fprintf(out, "    warning: %s\n", w)
	}
	return true, nil
}
