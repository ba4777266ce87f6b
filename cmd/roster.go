package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nenorae/PIFACE/internal/config"
	"github.com/Nenorae/PIFACE/internal/constants"
	"github.com/Nenorae/PIFACE/internal/database/postgres"
	"github.com/Nenorae/PIFACE/internal/extract"
	"github.com/Nenorae/PIFACE/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the face embedding roster",
	Long: `Manage the face embedding roster.
The roster maps student names to averaged face embeddings. It is built
from a dataset directory, written to a local snapshot the server loads
at startup, and optionally mirrored into PostgreSQL so other machines
can pull it without re-running extraction.`,
}

var rosterBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the roster snapshot from a dataset directory",
	Long: `Build the roster snapshot from a dataset directory.
The dataset holds one folder per student, each containing face sample
images. Every sample is run through the embedding service and the
results are averaged into one embedding per student.`,
	RunE: runRosterBuild,
}

var rosterPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the local roster snapshot to PostgreSQL",
	RunE:  runRosterPush,
}

var rosterPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the roster from PostgreSQL into the local snapshot",
	RunE:  runRosterPull,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterBuildCmd)
	rosterCmd.AddCommand(rosterPushCmd)
	rosterCmd.AddCommand(rosterPullCmd)
}

func effectiveModel(cfg *config.Config) string {
	if cfg.Embedding.Model != "" {
		return cfg.Embedding.Model
	}
	return constants.DefaultEmbeddingModel
}

func runRosterBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	model := effectiveModel(cfg)

	client := extract.NewClient(cfg.Embedding.URL, model)
	chain := extract.NewChain(client, extract.DefaultPrimaryDetector, extract.DefaultFallbackDetectors)

	fmt.Printf("Building roster from %s with model %s\n", cfg.DatasetPath(), model)
	identities, stats, err := roster.Build(cmd.Context(), cfg.DatasetPath(), chain)
	if err != nil {
		return fmt.Errorf("roster build failed: %w", err)
	}

	if err := roster.WriteSnapshot(cfg.SnapshotPath(), model, identities); err != nil {
		return fmt.Errorf("failed to write roster snapshot: %w", err)
	}

	fmt.Printf("\nRoster written to %s\n", cfg.SnapshotPath())
	fmt.Printf("  People:         %d\n", stats.People)
	fmt.Printf("  Images:         %d (%d failed)\n", stats.ImagesTotal, stats.ImagesFailed)
	if stats.PeopleSkipped > 0 {
		fmt.Printf("  People skipped: %d (no usable samples)\n", stats.PeopleSkipped)
	}
	return nil
}

func runRosterPush(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	identities, err := roster.ReadSnapshot(cfg.SnapshotPath())
	if err != nil {
		return fmt.Errorf("failed to read roster snapshot: %w", err)
	}

	pool, err := postgres.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	model := effectiveModel(cfg)
	repo := postgres.NewRosterRepository(pool)
	if err := repo.PushRoster(context.Background(), model, identities); err != nil {
		return fmt.Errorf("failed to push roster: %w", err)
	}

	fmt.Printf("Pushed %d identities (model %s) to the roster mirror\n", len(identities), model)
	return nil
}

func runRosterPull(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	model := effectiveModel(cfg)
	repo := postgres.NewRosterRepository(pool)
	identities, err := repo.LoadRoster(context.Background(), model)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if len(identities) == 0 {
		return fmt.Errorf("no roster entries for model %s", model)
	}

	if err := roster.WriteSnapshot(cfg.SnapshotPath(), model, identities); err != nil {
		return fmt.Errorf("failed to write roster snapshot: %w", err)
	}

	fmt.Printf("Pulled %d identities (model %s) into %s\n", len(identities), model, cfg.SnapshotPath())
	return nil
}
