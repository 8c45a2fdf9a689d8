package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/finchly/parley/internal/config"
	"github.com/finchly/parley/internal/util"
)

var rolesPattern string

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the available discussion roles",
	Long: `List the builtin roles plus any YAML-defined roles from the configured
roles directory. The same glob patterns accepted by 'run --roles' can be
used to preview a selection.`,
	RunE: runRoles,
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.Flags().StringVarP(&rolesPattern, "roles", "r", "", "glob to preview a role selection")
}

var (
	roleNameStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Width(14)
	roleSpecialtyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
)

func runRoles(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	selected, err := registry.Match(rolesPattern)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range selected {
		fmt.Fprintf(out, "%s %s %s %s\n",
			r.Label,
			roleNameStyle.Render(r.Name),
			roleSpecialtyStyle.Render(r.Specialty),
			util.TruncateString(r.PromptTemplate, 70))
	}
	fmt.Fprintf(out, "\n%s\n", util.Pluralize(len(selected), "role", "roles"))
	return nil
}
