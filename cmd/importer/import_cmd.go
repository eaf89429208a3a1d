package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ddionrails/providers/filesystem"
	"ddionrails/services"
)

type setupFunc func() (*env, error)

type entityOutput struct {
	Command    string `json:"command"`
	Study      string `json:"study"`
	Entity     string `json:"entity"`
	DurationMS int64  `json:"duration_ms"`
}

func newAllCmd(setup setupFunc) *cobra.Command {
	var study string
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Import all entities of a study in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			report, err := e.runner.ImportAll(cmd.Context(), study)
			if report != nil {
				if werr := writeJSON(report); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&study, "study", "", "Study name (required)")
	_ = cmd.MarkFlagRequired("study")
	return cmd
}

func newEntityCmd(setup setupFunc) *cobra.Command {
	var study, entity string
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Import a single entity kind of a study",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			start := time.Now()
			if err := e.runner.ImportEntity(cmd.Context(), study, entity); err != nil {
				return err
			}
			return writeJSON(entityOutput{
				Command:    "entity",
				Study:      study,
				Entity:     entity,
				DurationMS: time.Since(start).Milliseconds(),
			})
		},
	}
	cmd.Flags().StringVar(&study, "study", "", "Study name (required)")
	cmd.Flags().StringVar(&entity, "entity", "", "Entity kind, see 'importer stages' (required)")
	_ = cmd.MarkFlagRequired("study")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newImagesCmd(setup setupFunc) *cobra.Command {
	var study, file string
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Import variable images from a local CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			abs, err := filepath.Abs(file)
			if err != nil {
				return fmt.Errorf("invalid --file: %w", err)
			}
			s, err := services.FindOrCreateStudy(cmd.Context(), e.db, study)
			if err != nil {
				return err
			}
			m := services.NewStudyImportManager(s, filesystem.NewSource(filepath.Dir(abs)), e.db, e.logger)
			m.ImageBatchSize = e.cfg.ImageBatchSize

			start := time.Now()
			if err := m.ImportEntityFile(cmd.Context(), "variables_images", filepath.Base(abs)); err != nil {
				return err
			}
			return writeJSON(entityOutput{
				Command:    "images",
				Study:      s.Name,
				Entity:     "variables_images",
				DurationMS: time.Since(start).Milliseconds(),
			})
		},
	}
	cmd.Flags().StringVar(&study, "study", "", "Study name (required)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the images CSV (required)")
	_ = cmd.MarkFlagRequired("study")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List entity kinds in import order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(services.Stages())
		},
	}
}
