package cli

import (
	"encoding/json"
	"fmt"

	"github.com/agentx-labs/plugin-installer/internal/pathtag"
	"github.com/agentx-labs/plugin-installer/internal/registry"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.store().Load()
			if err != nil {
				return err
			}

			if asJSON {
				return printListJSON(cmd, reg)
			}
			if len(reg) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plugins registered yet.")
				return nil
			}
			tagger := pathtag.New(a.settings.VendorDir, a.settings.RootDir)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(reg, tagger))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func renderTable(reg registry.Registry, tagger pathtag.Tagger) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("PACKAGE", "HANDLE", "VERSION", "CLASS", "BASE PATH").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, name := range reg.Names() {
		d := reg[name]
		version := d.Version
		if version == "" {
			version = "-"
		}
		t.Row(name, d.Handle, version, d.Class, tagger.Tag(d.BasePath))
	}
	return t.Render()
}

func printListJSON(cmd *cobra.Command, reg registry.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
