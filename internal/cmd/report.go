package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finchly/parley/internal/config"
)

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Show saved discussion reports",
	Long: `With no arguments, list the reports in the report directory, newest
first. With a file argument, print that report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	dir := cfg.Report.ResolveDir()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		path := args[0]
		// Bare filenames resolve against the report directory.
		if !strings.ContainsRune(path, os.PathSeparator) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading report: %w", err)
		}
		fmt.Fprint(out, string(data))
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(out, "no reports yet (directory %s does not exist)\n", dir)
			return nil
		}
		return err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if len(names) == 0 {
		fmt.Fprintf(out, "no reports in %s\n", dir)
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
