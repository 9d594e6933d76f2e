package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docsearch/internal/service"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents with their modification dates",
	Long: `Lists every document in the documents directory with its last
modification date and configured category. Use "docsearch open NAME" to open one.`,
	Args: cobra.NoArgs,
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output the list as JSON")
	rootCmd.AddCommand(documentsCmd)
}

// documentInfo is one row of the document list.
type documentInfo struct {
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
	Category string    `json:"category,omitempty"`
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	fp, err := a.store.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	categories := service.CategoryMap(cfg.Categories)
	docs := make([]documentInfo, 0, len(fp))
	for _, name := range fp.Names() {
		category, _ := categories.Category(name)
		docs = append(docs, documentInfo{
			Name:     name,
			Modified: time.Unix(0, int64(fp[name]*1e9)),
			Category: category,
		})
	}

	if documentsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found in %s\n", a.store.Dir())
		return nil
	}
	cmd.Printf("Documents in %s:\n\n", a.store.Dir())
	for _, d := range docs {
		cmd.Printf("  %s\n", d.Name)
		cmd.Printf("    Modified: %s\n", d.Modified.Format("2006-01-02 15:04:05"))
		if d.Category != "" {
			cmd.Printf("    Category: %s\n", d.Category)
		}
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}
