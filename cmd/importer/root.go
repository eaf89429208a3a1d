package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/config"
	"ddionrails/database"
	"ddionrails/services"
)

// env ist die gemeinsame Umgebung aller Unterbefehle.
type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
	runner *services.ImportRunner
}

func newRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:          "importer",
		Short:        "Import study metadata into the DDI on Rails catalog",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	setup := func() (*env, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger, err := newLogger(verbose)
		if err != nil {
			return nil, err
		}
		db, err := database.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		runner := services.NewImportRunner(cfg, db, logger, services.LogIndexer{Logger: logger})
		return &env{cfg: cfg, db: db, logger: logger, runner: runner}, nil
	}

	cmd.AddCommand(newAllCmd(setup), newEntityCmd(setup), newImagesCmd(setup), newStagesCmd())
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
