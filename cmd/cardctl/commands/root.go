package commands

import (
	"os"

	config "github.com/avvvet/tarjetas/configs"
	cfg "github.com/avvvet/tarjetas/internal/cardsvc/config"
	"github.com/avvvet/tarjetas/internal/cardsvc/db"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/printer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the cardctl command tree.
func NewRootCmd() *cobra.Command {
	var owner string

	rootCmd := &cobra.Command{
		Use:   "cardctl",
		Short: "cardctl - manage Spanish conversation cards",
		Long: `cardctl works on the card store directly, using the same environment as
the card service (CARD_STORE, POSTGRES_URL, MONGODB_URI, SQLITE_PATH).

Every command acts on the cards of one owner, given with --owner.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if os.Getenv("LOG_LEVEL") == "" {
				log.SetLevel(log.WarnLevel)
			}
			config.LoadEnv("cardctl")
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "Owner (user id) of the cards")

	rootCmd.AddCommand(
		newImportCmd(&owner),
		newDrawCmd(&owner),
		newCategoriesCmd(&owner),
		newListCmd(&owner),
	)
	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// env is what a command needs from the store.
type env struct {
	conf  cfg.Config
	store store.Gateway
	close func()
}

func openEnv(owner string) (*env, error) {
	if owner == "" {
		return nil, printer.Error(
			"owner is required",
			"Cards always belong to one user.",
			[]string{"Pass the user id:\n  cardctl <command> --owner <user-id>"},
		)
	}

	c, err := cfg.Load()
	if err != nil {
		return nil, printer.Error("invalid configuration", err.Error(), []string{
			"Set CARD_STORE to postgres, mongo, sqlite or memory and provide its connection setting",
		})
	}

	s, closeFn, err := db.OpenStore(c)
	if err != nil {
		return nil, printer.Error("card store unavailable", err.Error(), nil)
	}
	return &env{conf: c, store: s, close: closeFn}, nil
}

func (e *env) drawService() *service.DrawService {
	return service.NewDrawService(e.store, e.conf.DrawMax)
}
