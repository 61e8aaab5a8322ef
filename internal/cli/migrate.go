package cli

import (
	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/config"
	"github.com/Tanishka82/nexa-app/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update every table used by the cache and the per-owner records.
No model credentials are needed.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false
	db, err := storage.Open(dbCfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := storage.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	logger.Info("Database schema is up to date", "driver", dbCfg.Driver)
	return nil
}
