package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"asindir/client/internal/domain"
	"asindir/client/internal/taxonomy"

	"github.com/spf13/cobra"
)

type levelCommand struct {
	level      domain.Level
	use        string
	parentFlag string
}

var (
	levelCategories = levelCommand{level: domain.LevelCategory, use: "categories"}
	levelRanges     = levelCommand{level: domain.LevelRange, use: "ranges", parentFlag: "category"}
	levelProducts   = levelCommand{level: domain.LevelProduct, use: "products", parentFlag: "range"}
)

func newLevelCmd(lc levelCommand) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   lc.use,
		Short: fmt.Sprintf("list, create and delete %s", lc.use),
	}
	if lc.parentFlag != "" {
		cmd.PersistentFlags().StringVar(&parentID, lc.parentFlag, "",
			fmt.Sprintf("%s id to work in, instead of the saved selection", lc.parentFlag))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("print the %s of the current selection", lc.use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prepareLevel(cmd.Context(), lc, parentID); err != nil {
				return failed(err)
			}
			printNodes(cmd.OutOrStdout(), listLevel(lc.level))
			return app.SaveSelection(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: fmt.Sprintf("create a %s under the current selection", lc.level),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := prepareLevel(ctx, lc, parentID); err != nil {
				return failed(err)
			}
			if err := app.Taxonomy.StartCreating(lc.level); err != nil {
				return err
			}

			created, err := createNode(ctx, lc.level, strings.Join(args, " "))
			if err != nil {
				app.Taxonomy.CancelCreating()
				return failed(err)
			}
			printNodes(cmd.OutOrStdout(), []domain.Node{created})
			return app.SaveSelection(ctx)
		},
	})

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("delete a %s and everything filed under it", lc.level),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := prepareLevel(ctx, lc, parentID); err != nil {
				return failed(err)
			}

			pending, err := app.Taxonomy.RequestDelete(lc.level, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pending.Warning)

			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				app.Taxonomy.CancelDelete()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := app.Taxonomy.ConfirmDelete(ctx); err != nil {
				return failed(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", lc.level, pending.Item.NodeName())
			return app.SaveSelection(ctx)
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.AddCommand(deleteCmd)

	return cmd
}

// prepareLevel loads the lists the level's commands act on. parentID, when
// set, replaces the saved cursor of the level above.
func prepareLevel(ctx context.Context, lc levelCommand, parentID string) error {
	m := app.Taxonomy
	if lc.level == domain.LevelCategory {
		return m.Load(ctx)
	}

	if err := app.RestoreSelection(ctx); err != nil {
		return err
	}

	switch lc.level {
	case domain.LevelRange:
		if parentID != "" {
			return m.SelectCategory(ctx, parentID)
		}
		if categoryID, _, _ := taxonomy.Cursor(m.Selection()); categoryID == "" {
			return taxonomy.ErrNoCategorySelected
		}
	case domain.LevelProduct:
		if parentID != "" {
			return m.SelectRange(ctx, parentID)
		}
		if _, rangeID, _ := taxonomy.Cursor(m.Selection()); rangeID == "" {
			return taxonomy.ErrNoRangeSelected
		}
	}
	return nil
}

func listLevel(level domain.Level) []domain.Node {
	var nodes []domain.Node
	switch level {
	case domain.LevelCategory:
		for _, c := range app.Taxonomy.Categories() {
			nodes = append(nodes, c)
		}
	case domain.LevelRange:
		for _, r := range app.Taxonomy.Ranges() {
			nodes = append(nodes, r)
		}
	case domain.LevelProduct:
		for _, p := range app.Taxonomy.Products() {
			nodes = append(nodes, p)
		}
	}
	return nodes
}

func createNode(ctx context.Context, level domain.Level, name string) (domain.Node, error) {
	m := app.Taxonomy
	categoryID, rangeID, _ := taxonomy.Cursor(m.Selection())

	switch level {
	case domain.LevelCategory:
		c, err := m.CreateCategory(ctx, name)
		if err != nil {
			return nil, err
		}
		return *c, nil
	case domain.LevelRange:
		r, err := m.CreateRange(ctx, name, categoryID)
		if err != nil {
			return nil, err
		}
		return *r, nil
	default:
		p, err := m.CreateProduct(ctx, name, rangeID)
		if err != nil {
			return nil, err
		}
		return *p, nil
	}
}

func printNodes(w io.Writer, nodes []domain.Node) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\n", n.NodeID(), n.NodeName())
	}
	tw.Flush()
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N] ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// failed prefers the backend's message, which the manager keeps as its alert.
func failed(err error) error {
	if alert := app.Taxonomy.Alert(); alert != "" {
		return fmt.Errorf("%s: %w", alert, err)
	}
	return err
}
