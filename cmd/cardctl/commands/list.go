package commands

import (
	"context"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/printer"
	"github.com/spf13/cobra"
)

func newListCmd(owner *string) *cobra.Command {
	var category, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*owner)
			if err != nil {
				return err
			}
			defer e.close()

			cards, err := service.NewCardService(e.store, nil).List(context.Background(), *owner,
				models.ParseFilter(category), store.ParseOrder(order))
			if err != nil {
				return fmt.Errorf("listing cards failed: %w", err)
			}
			if len(cards) == 0 {
				printer.Warning("No cards found\n")
				return nil
			}
			printer.Cards(cards)
			printer.Info("%d cards\n", len(cards))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only cards of this category")
	cmd.Flags().StringVar(&order, "order", "newest", "Sort order: newest or oldest")
	return cmd
}
