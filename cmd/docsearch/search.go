package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsearch/internal/domain"
	"docsearch/internal/service"
)

var (
	searchLimit    int
	searchMethod   string
	searchCategory string
	searchJSON     bool
	searchRetrain  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search documents",
	Long: `Ranks documents against the query with the TF-IDF index, the doc2vec
index, or both. Indexes are loaded from disk and trained on first use.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringVarP(&searchMethod, "method", "m", "", "search method: sparse, dense or both (default from config)")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", service.AllCategories, "restrict results to a configured category")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchRetrain, "retrain", false, "rebuild the indexes before searching")
	rootCmd.AddCommand(searchCmd)
}

// methodResults pairs a search method with its ranked results.
type methodResults struct {
	Method  string                `json:"method"`
	Results []domain.SearchResult `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	methods, err := searchMethods(searchMethod, cfg.Search.Method)
	if err != nil {
		return err
	}
	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Search.TopN
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	if !searchRetrain && a.session.NeedsDecision() {
		a.logger.Warn("documents changed since the last build, results may be stale; use --retrain or `docsearch train`")
	}
	r, err := a.session.Open(cmd.Context(), searchRetrain)
	if err != nil {
		return err
	}

	out := make([]methodResults, 0, len(methods))
	for _, m := range methods {
		search := r.SearchSparse
		if m == "dense" {
			search = r.SearchDense
		}
		res, err := search(query, limit, searchCategory)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		out = append(out, methodResults{Method: m, Results: res})
	}

	if searchJSON {
		return outputSearchJSON(cmd, out)
	}
	outputSearchTable(cmd, out)
	return nil
}

func searchMethods(flag, fallback string) ([]string, error) {
	m := strings.ToLower(strings.TrimSpace(flag))
	if m == "" {
		m = fallback
	}
	switch m {
	case "sparse", "tfidf":
		return []string{"sparse"}, nil
	case "dense", "doc2vec":
		return []string{"dense"}, nil
	case "both", "":
		return []string{"sparse", "dense"}, nil
	default:
		return nil, fmt.Errorf("unknown search method %q: must be one of sparse, dense, both", m)
	}
}

func outputSearchJSON(cmd *cobra.Command, results []methodResults) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []methodResults) {
	for _, mr := range results {
		title := "TF-IDF"
		if mr.Method == "dense" {
			title = "Doc2Vec"
		}
		cmd.Printf("%s results:\n", title)
		if len(mr.Results) == 0 {
			cmd.Println("  No results found.")
		}
		for i, r := range mr.Results {
			cmd.Printf("  [%d] %s (%.4f)\n", i+1, r.Name, r.Score)
		}
		cmd.Println()
	}
}
