package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

func newRenderCmd() *cobra.Command {
	var (
		prefix         string
		lists          []string
		deletes        []string
		deleteSegments []string
		modifiers      []string
		verify         bool
	)

	cmd := &cobra.Command{
		Use:   "render [FIELD=value ...]",
		Short: "Render attribute edits as RACF command operands",
		Long: `Renders each FIELD=value argument (SEGMENT.FIELD for non-base segments)
in the order given and prints the resulting operands, prefixed by --prefix.

With --verify every quoted operand is unquoted again and compared with its
input value.`,
		Example: `  racfctl render --prefix "ALTUSER JOE" "NAME=JOE O'BRIEN" OMVS.HOME=/u/joe --delete-segment CICS`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := racf.RenderInput{DeleteSegments: deleteSegments}
			in.Flags.Modifiers = modifiers

			for _, arg := range args {
				name, value, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return fmt.Errorf("edit %q must have the form FIELD=value", arg)
				}
				in.Edits = append(in.Edits, racf.SetEdit(name, value))
			}
			for _, arg := range lists {
				name, value, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return fmt.Errorf("list edit %q must have the form FIELD=a,b", arg)
				}
				in.Edits = append(in.Edits, racf.SetListEdit(name, strings.Split(value, ",")))
			}
			for _, name := range deletes {
				in.Edits = append(in.Edits, racf.DeleteEdit(name))
			}

			if verify {
				if err := verifyEdits(in.Edits); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(prefix+racf.Render(in)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "command and target to print before the operands")
	cmd.Flags().StringArrayVarP(&lists, "list", "l", nil, "list edit FIELD=a,b (repeatable)")
	cmd.Flags().StringArrayVarP(&deletes, "delete", "d", nil, "field to remove (repeatable)")
	cmd.Flags().StringSliceVar(&deleteSegments, "delete-segment", nil, "segments to remove")
	cmd.Flags().StringSliceVarP(&modifiers, "flag", "f", nil, "bare keywords appended after all segments")
	cmd.Flags().BoolVar(&verify, "verify", false, "check that every operand unquotes to its input")
	return cmd
}

// verifyEdits round-trips each set value through Quote and Unquote.
func verifyEdits(edits []racf.AttributeEdit) error {
	for _, e := range edits {
		if e.Delete {
			continue
		}
		_, field, ok := strings.Cut(e.Name, ".")
		if !ok {
			field = e.Name
		}
		for _, value := range e.Value.List() {
			if got := racf.Unquote(racf.Quote(field, value)); got != value {
				return fmt.Errorf("%s: operand %q does not round-trip (got %q)", e.Name, value, got)
			}
		}
	}
	return nil
}
