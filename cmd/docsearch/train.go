package main

import (
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Rebuild both indexes from the documents directory",
	Long: `Loads every document, retrains the TF-IDF and doc2vec models from scratch
and persists them. Training the doc2vec model can take several minutes on
large collections.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	r, err := a.session.Open(cmd.Context(), true)
	if err != nil {
		return err
	}
	cmd.Printf("Trained indexes over %d documents.\n", len(r.Documents()))
	return nil
}
