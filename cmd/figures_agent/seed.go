package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/figure-planner/internal/types"
)

//go:embed fixtures/figures.yaml
var defaultFixture []byte

// fixture is the YAML seed file layout.
type fixture struct {
	Figures []*types.Figure `yaml:"figures"`
}

func loadFixture(path string) (*fixture, error) {
	data := defaultFixture
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read fixture: %w", err)
		}
	}

	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load figures from a YAML fixture",
		Long:  "Insert the figures of a YAML fixture under their own ids. Figures whose id already exists are skipped. Without --file the built-in catalogue is loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadFixture(file)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), root.cfg, appParts{})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			added, skipped := 0, 0
			for _, fig := range f.Figures {
				created, err := a.store.Import(cmd.Context(), fig)
				if err != nil {
					return err
				}
				if created {
					added++
					_, _ = fmt.Fprintf(out, "added   %s %s\n", fig.ID, fig.Name)
				} else {
					skipped++
					_, _ = fmt.Fprintf(out, "skipped %s %s (exists)\n", fig.ID, fig.Name)
				}
			}
			_, _ = fmt.Fprintf(out, "%d added, %d skipped\n", added, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixture file (defaults to the built-in catalogue)")
	return cmd
}
