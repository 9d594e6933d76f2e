package main

import (
	"strings"

	"github.com/spf13/cobra"

	"docsearch/internal/service"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether documents changed since the last build",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	names, err := a.store.ListDocumentFiles()
	if err != nil {
		return err
	}
	cmd.Printf("Documents: %d in %s\n", len(names), a.store.Dir())
	if categories := service.CategoryMap(cfg.Categories).Categories(); len(categories) > 0 {
		cmd.Printf("Categories: %s\n", strings.Join(categories, ", "))
	}
	if a.session.NeedsDecision() {
		cmd.Println("Changes detected since the last build. Run `docsearch train` to rebuild the indexes.")
		return nil
	}
	cmd.Println("Indexes are up to date.")
	return nil
}
