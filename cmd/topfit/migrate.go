package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/config"
	"github.com/kentavrex/topfit/internal/database"
	"github.com/kentavrex/topfit/migrations"
)

func newMigrateCmd(logger func() (*zap.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := database.New(cfg, log.Named("database"))
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			return database.RunMigrations(db, migrations.FS, log.Named("migrations"))
		},
	}
}
