package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docsearch/internal/tui"
)

var tuiCategory string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive search screen",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiCategory, "category", "c", "", "restrict results to a configured category")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	retrain := false
	if a.session.NeedsDecision() {
		final, err := tea.NewProgram(tui.NewConfirm("Documents changed since the last build. Retrain the models?", false)).Run()
		if err != nil {
			return err
		}
		confirm := final.(tui.ConfirmModel)
		if confirm.Aborted() {
			return nil
		}
		retrain = confirm.Answer()
	}
	if retrain {
		cmd.Println("Training models, this may take a while...")
	}
	r, err := a.session.Open(cmd.Context(), retrain)
	if err != nil {
		return err
	}

	method := tui.MethodSparse
	if cfg.Search.Method == "dense" {
		method = tui.MethodDense
	}
	m := tui.New(r, a.preview, a.opener.Open, tui.Options{
		TopN:     cfg.Search.TopN,
		Method:   method,
		Category: tuiCategory,
		Summary:  fmt.Sprintf("%d documents in %s", len(r.Documents()), a.store.Dir()),
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
