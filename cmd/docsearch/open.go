package main

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [document]",
	Short: "Open a document in the system viewer",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.opener.Open(args[0]); err != nil {
		return err
	}
	cmd.Printf("Opened %s\n", args[0])
	return nil
}
