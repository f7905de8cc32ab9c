package main

import (
	"fmt"

	"asindir/client/internal/taxonomy"

	"github.com/spf13/cobra"
)

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [CATEGORY_ID [RANGE_ID [PRODUCT_ID]]]",
		Short: "set the saved taxonomy cursor; no arguments clears it",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := make([]string, 3)
			copy(ids, args)

			sel := taxonomy.FromCursor(ids[0], ids[1], ids[2])
			if err := app.Taxonomy.Restore(ctx, sel); err != nil {
				return failed(err)
			}
			if err := app.SaveSelection(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), describeSelection(app.Taxonomy.Selection()))
			return nil
		},
	}
}

func describeSelection(sel taxonomy.Selection) string {
	switch s := sel.(type) {
	case taxonomy.CategorySelected:
		return fmt.Sprintf("category %s", s.CategoryID)
	case taxonomy.RangeSelected:
		return fmt.Sprintf("category %s > range %s", s.CategoryID, s.RangeID)
	case taxonomy.ProductSelected:
		return fmt.Sprintf("category %s > range %s > product %s", s.CategoryID, s.RangeID, s.ProductID)
	default:
		return "nothing selected"
	}
}

func newMoveCmd() *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "move ASIN_RECORD_ID...",
		Short: "file ASIN records under a product",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := app.Taxonomy

			var err error
			if productID != "" {
				err = m.MoveAsinsToProduct(ctx, args, productID)
			} else {
				if err := app.RestoreSelection(ctx); err != nil {
					return failed(err)
				}
				err = m.MoveSelected(ctx, args)
			}
			if err != nil {
				return failed(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d ASINs\n", len(args))
			return nil
		},
	}
	cmd.Flags().StringVarP(&productID, "product", "p", "", "target product id, instead of the selected product")

	return cmd
}
