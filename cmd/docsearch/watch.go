package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docsearch/internal/watch"
)

var watchRetrain bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the documents directory for changes",
	Long: `Watches the documents directory and reports when documents are added,
removed or modified. With --retrain the indexes are rebuilt on every change.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchRetrain, "retrain", false, "rebuild the indexes when documents change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(a.store.Dir(), a.store, watch.WithLogger(a.logger))
	return w.Run(ctx, func(ctx context.Context) error {
		if !watchRetrain {
			a.session.Invalidate()
			cmd.Println("Documents changed. Run `docsearch train` to rebuild the indexes.")
			return nil
		}
		r, err := a.session.Open(ctx, true)
		if err != nil {
			return err
		}
		cmd.Printf("Documents changed. Rebuilt indexes over %d documents.\n", len(r.Documents()))
		return nil
	})
}
