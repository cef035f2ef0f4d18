package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/figures"
	"github.com/jonathan/figure-planner/internal/observability"
	"github.com/jonathan/figure-planner/internal/types"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		intent    types.Intent
		create    bool
		overrides figures.Overrides
		status    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new figure proposal",
		Long: `Ask the LLM for a historical figure not yet in the catalogue. The proposal
is validated and regenerated up to three times. With --create the
accepted proposal is stored as a new figure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.cfg, appParts{generator: true})
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.manager.GenerateProposal(cmd.Context(), intent)
			if err != nil {
				return err
			}

			var fig *types.Figure
			if create {
				overrides.Status = types.Status(status)
				if fig, err = a.manager.CreateFromProposal(cmd.Context(), p, &overrides); err != nil {
					return err
				}
			}

			if root.jsonOutput {
				out := map[string]any{"proposal": p}
				if fig != nil {
					out["figure"] = fig
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			printer := observability.NewPrinter(cmd.OutOrStdout())
			printer.PrintProposal(p)
			printer.PrintFigure(fig)
			return nil
		},
	}

	cmd.Flags().StringVar(&intent.Theme, "theme", "", "Theme to steer the proposal")
	cmd.Flags().StringVar(&intent.Era, "era", "", "Historical era")
	cmd.Flags().StringVar(&intent.Focus, "focus", "", "Angle or lesson to focus on")
	cmd.Flags().StringSliceVar(&intent.ForbidNames, "forbid", nil, "Additional names to exclude (repeatable)")
	cmd.Flags().BoolVar(&create, "create", false, "Store the accepted proposal as a new figure")
	cmd.Flags().StringVar(&overrides.Title, "title", "", "Override the proposed title when creating")
	cmd.Flags().StringVar(&status, "status", "", "Initial status when creating")
	cmd.Flags().StringVar(&overrides.Bio, "bio", "", "Biography when creating")
	cmd.Flags().StringVar(&overrides.Notes, "notes", "", "Override the proposed notes when creating")
	return cmd
}
