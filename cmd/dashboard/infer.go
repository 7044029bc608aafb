package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

func newInferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer-role PATH...",
		Short: "Print the role navigation infers from each dashboard path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, domain.InferRoleFromPath(p))
			}
			return nil
		},
	}
}
