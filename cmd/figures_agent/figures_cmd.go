package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/figures"
	"github.com/jonathan/figure-planner/internal/observability"
	"github.com/jonathan/figure-planner/internal/types"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var status, query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.cfg, appParts{})
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.manager.ListFigures(cmd.Context(), figures.Filter{Status: types.Status(status), Query: query})
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"figures": list})
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintFigures(list)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list figures with this status")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only list figures whose id, name or title contains this text")
	return cmd
}

func newCreateCmd(root *rootOptions) *cobra.Command {
	var input types.NewFigureInput
	var status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a figure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.cfg, appParts{})
			if err != nil {
				return err
			}
			defer a.Close()

			input.Status = types.Status(status)
			fig, err := a.manager.CreateFigure(cmd.Context(), &input)
			if err != nil {
				return err
			}
			return printFigure(cmd, root, fig)
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Figure name (required)")
	cmd.Flags().StringVar(&input.Title, "title", "", "YouTube title (required)")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default ready)")
	cmd.Flags().StringVar(&input.Bio, "bio", "", "Short biography")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "Editorial notes")
	cmd.Flags().StringSliceVar(&input.Tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&input.ThumbnailKey, "thumbnail-key", "", "Thumbnail object key")
	cmd.Flags().StringVar(&input.PortraitKey, "portrait-key", "", "Portrait object key")
	return cmd
}

// updateFlags maps flags to the record attributes they set.
var updateFlags = []struct {
	flag, usage string
}{
	{"name", "New name"},
	{"title", "New YouTube title"},
	{"status", "New status"},
	{"bio", "New biography"},
	{"notes", "New notes"},
	{"thumbnail-key", "Thumbnail object key"},
	{"portrait-key", "Portrait object key"},
}

func newUpdateCmd(root *rootOptions) *cobra.Command {
	var clearFields []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a figure",
		Long: `Update only the given fields of a figure. Use --clear to remove optional
fields (bio, notes, tags, aiPlan, thumbnail-key, portrait-key).

Setting both asset keys on a figure that is still ready marks it available
unless --status is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := changesFromFlags(cmd, clearFields)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), root.cfg, appParts{})
			if err != nil {
				return err
			}
			defer a.Close()

			fig, err := a.manager.UpdateFigure(cmd.Context(), args[0], changes)
			if err != nil {
				return err
			}
			return printFigure(cmd, root, fig)
		},
	}

	for _, f := range updateFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringSlice("tag", nil, "Replace tags (repeatable)")
	cmd.Flags().StringSliceVar(&clearFields, "clear", nil, "Fields to remove (repeatable)")
	return cmd
}

// changesFromFlags builds a change set from the flags that were given.
func changesFromFlags(cmd *cobra.Command, clearFields []string) (*types.FigureChanges, error) {
	var c types.FigureChanges
	str := func(flag string) (string, bool) {
		if !cmd.Flags().Changed(flag) {
			return "", false
		}
		v, _ := cmd.Flags().GetString(flag)
		return v, true
	}

	if v, ok := str("name"); ok {
		c.Name = types.Some(v)
	}
	if v, ok := str("title"); ok {
		c.Title = types.Some(v)
	}
	if v, ok := str("status"); ok {
		c.Status = types.Some(types.Status(v))
	}
	if v, ok := str("bio"); ok {
		c.Bio = types.Some(v)
	}
	if v, ok := str("notes"); ok {
		c.Notes = types.Some(v)
	}
	if v, ok := str("thumbnail-key"); ok {
		c.ThumbnailKey = types.Some(v)
	}
	if v, ok := str("portrait-key"); ok {
		c.PortraitKey = types.Some(v)
	}
	if cmd.Flags().Changed("tag") {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		c.Tags = types.Some(tags)
	}

	for _, field := range clearFields {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "bio":
			c.Bio = types.Null[string]()
		case "notes":
			c.Notes = types.Null[string]()
		case "tags":
			c.Tags = types.Null[[]string]()
		case "aiplan", "plan":
			c.Plan = types.Null[*types.ProposalPlan]()
		case "thumbnail-key", "thumbnailkey":
			c.ThumbnailKey = types.Null[string]()
		case "portrait-key", "portraitkey":
			c.PortraitKey = types.Null[string]()
		default:
			return nil, fmt.Errorf("cannot clear %q", field)
		}
	}
	return &c, nil
}

func printFigure(cmd *cobra.Command, root *rootOptions, fig *types.Figure) error {
	if root.jsonOutput {
		return printJSON(cmd.OutOrStdout(), fig)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintFigure(fig)
	return nil
}
