package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/printer"
	"github.com/spf13/cobra"
)

func newDrawCmd(owner *string) *cobra.Command {
	var category, previous string

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw a random card",
		Long: `Draw a random card, optionally from one category.

Pass the id of the card shown last with --previous to avoid seeing it again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(context.Background(), *owner, category, previous)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", `Category to draw from, "all" for every card`)
	cmd.Flags().StringVarP(&previous, "previous", "p", "", "Id of the card drawn last")
	return cmd
}

func runDraw(ctx context.Context, owner, category, previous string) error {
	e, err := openEnv(owner)
	if err != nil {
		return err
	}
	defer e.close()

	filter := models.ParseFilter(category)
	card, err := e.drawService().DrawRandomCard(ctx, owner, filter, previous)
	switch {
	case errors.Is(err, service.ErrNoCards):
		return printer.Error(
			"no cards",
			fmt.Sprintf("There are no cards in category %q.", filter.String()),
			[]string{"List the categories:\n  cardctl categories --owner " + owner},
		)
	case errors.Is(err, service.ErrNoOtherCard):
		return printer.Error(
			"no other card",
			"The previous card is the only one available.",
			[]string{"Choose another category or add more cards"},
		)
	case err != nil:
		return fmt.Errorf("draw failed: %w", err)
	}

	printer.Card(*card)
	return nil
}
