package commands

import (
	"context"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/printer"
	"github.com/spf13/cobra"
)

func newCategoriesCmd(owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*owner)
			if err != nil {
				return err
			}
			defer e.close()

			names, err := service.NewCategoryService(e.store).ListCategories(context.Background(), *owner)
			if err != nil {
				return fmt.Errorf("listing categories failed: %w", err)
			}
			if len(names) == 0 {
				printer.Warning("No cards yet\n")
				return nil
			}
			printer.Categories(names)
			return nil
		},
	}
}
