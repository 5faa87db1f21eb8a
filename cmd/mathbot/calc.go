package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hassan123789/mathbot/internal/mathexpr"
)

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate an expression the way the calculator tool does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := mathexpr.Evaluate(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), result)
			if strings.HasPrefix(result, mathexpr.ErrorPrefix) {
				return fmt.Errorf("could not evaluate %q", strings.Join(args, " "))
			}
			return nil
		},
	}
}
