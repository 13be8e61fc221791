package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avvvet/tarjetas/internal/cardsvc/importer"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/printer"
	"github.com/spf13/cobra"
)

func newImportCmd(owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import cards from a CSV file",
		Long: `Import cards from a CSV file of at most 1 MiB.

The header must have a "Spanish Text" column. "English Translation",
"Russian Translation" and "Category" are optional. Rows without Spanish
text reject the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(context.Background(), *owner, args[0])
		},
	}
}

func runImport(ctx context.Context, owner, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return printer.Error("cannot read file", err.Error(), nil)
	}
	if info.Size() > importer.MaxFileSize {
		return printer.Error(
			"file too large",
			fmt.Sprintf("%s is %d bytes, the limit is %d.", path, info.Size(), importer.MaxFileSize),
			[]string{"Split the file and import the parts separately"},
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return printer.Error("cannot read file", err.Error(), nil)
	}
	defer f.Close()

	rows, err := importer.ParseCSV(f)
	if err != nil {
		return printer.Error("invalid CSV file", err.Error(), []string{
			`The first row must name the columns, including "Spanish Text"`,
		})
	}

	e, err := openEnv(owner)
	if err != nil {
		return err
	}
	defer e.close()

	cards, err := service.NewImportService(e.store, nil).Import(ctx, owner, rows)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return printer.Error("import rejected", err.Error(), []string{"Fill in the Spanish text of every row"})
		}
		return fmt.Errorf("import failed: %w", err)
	}

	printer.Success("Imported %d cards\n", len(cards))
	return nil
}
