package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "racfctl",
		Short:         "racfctl parses RACF listings and renders RACF command operands",
		Long:          `racfctl runs the provider's grammar interpreter and renderer locally, for grammar development and troubleshooting.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("grammar", "", "YAML grammar file overlaid on the built-in grammars")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newRenderCmd())
	return cmd
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
