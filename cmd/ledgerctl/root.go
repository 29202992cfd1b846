package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go-site-inventory/internal/config"
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/logger"
	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/internal/service"
	"go-site-inventory/pkg/database"
	"go-site-inventory/pkg/jwt"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env holds what every subcommand needs once the database is open.
type env struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *gorm.DB
	sites     repository.SiteRepository
	inventory service.InventoryService
	reports   service.ReportService
	auth      service.AuthService
	out       io.Writer
}

var app *env

// cliActor stamps rows changed from the command line.
var cliActor = service.Actor{ID: "ledgerctl", Name: "ledgerctl"}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (env vars still apply)")
	rootCmd.PersistentFlags().String("site", "", "Site code, e.g. BLR01")
}

var rootCmd = &cobra.Command{
	Use:          "ledgerctl",
	Short:        "Maintenance tools for the site inventory ledger",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		log := logger.NewWithWriter(os.Stderr, cfg.Log.Level)

		if cfg.Ledger.DefaultRodLength > 0 {
			ledger.DefaultRodLength = decimal.NewFromFloat(cfg.Ledger.DefaultRodLength)
		}
		tolerance, err := decimal.NewFromString(cfg.Ledger.TallyTolerance)
		if err != nil {
			return fmt.Errorf("ledger.tally_tolerance: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		sites := repository.NewSiteRepo(db)
		repos := []repository.LedgerRepository{
			repository.NewSteelRepo(db),
			repository.NewCementRepo(db),
			repository.NewDieselRepo(db),
		}
		// no attachments are written from the command line
		inventory := service.NewInventoryService(db, sites, repos, nil, nil, log)
		signer := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

		app = &env{
			cfg:       cfg,
			log:       log,
			db:        db,
			sites:     sites,
			inventory: inventory,
			reports:   service.NewReportService(db, sites, inventory, repos, tolerance, log),
			auth:      service.NewAuthService(repository.NewUserRepo(db), signer, time.Hour, log),
			out:       cmd.OutOrStdout(),
		}
		return nil
	},
}

// siteFlag resolves --site to a site row.
func siteFlag(ctx context.Context, cmd *cobra.Command) (*model.Site, error) {
	code, _ := cmd.Flags().GetString("site")
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("--site is required")
	}
	site, err := app.sites.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", code, err)
	}
	return site, nil
}
