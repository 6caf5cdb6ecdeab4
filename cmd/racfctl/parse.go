package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

func newParseCmd() *cobra.Command {
	var (
		entity   string
		segments []string
		noBase   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a LISTUSER or LISTGRP response into JSON",
		Long: `Reads a captured listing from file (or stdin) and prints the parsed
attributes as a JSON object keyed by SEGMENT.FIELD.

Without --segments every segment whose header appears in the text is parsed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammars, err := loadGrammars(cmd)
			if err != nil {
				return err
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			entity = strings.ToUpper(strings.TrimSpace(entity))
			if entity != "USER" && entity != "GROUP" {
				return fmt.Errorf("entity must be USER or GROUP, got %q", entity)
			}
			if len(segments) == 0 {
				segments = racf.PrintedSegments(grammars, entity, text)
			}

			listing, err := racf.ParseListing(grammars, entity, text, !noBase, segments)
			if err != nil {
				return fmt.Errorf("failed to parse listing: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(listing.Attributes.ToMap())
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "USER", "profile type of the listing: USER or GROUP")
	cmd.Flags().StringSliceVarP(&segments, "segments", "s", nil, "non-base segments to split out (default: all printed)")
	cmd.Flags().BoolVar(&noBase, "no-base", false, "the listing was requested with NORACF")
	return cmd
}

func loadGrammars(cmd *cobra.Command) (*racf.GrammarSet, error) {
	grammars, err := racf.DefaultGrammars()
	if err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("grammar")
	if path == "" {
		return grammars, nil
	}
	overlay, err := racf.LoadGrammarFile(path)
	if err != nil {
		return nil, err
	}
	return grammars.Merge(overlay), nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
