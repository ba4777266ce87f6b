package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nenorae/PIFACE/internal/config"
	"github.com/Nenorae/PIFACE/internal/constants"
	"github.com/Nenorae/PIFACE/internal/database/postgres"
	"github.com/Nenorae/PIFACE/internal/extract"
	"github.com/Nenorae/PIFACE/internal/match"
	"github.com/Nenorae/PIFACE/internal/roster"
	"github.com/Nenorae/PIFACE/internal/session"
	"github.com/Nenorae/PIFACE/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance server",
	Long: `Start the attendance server.
The server exposes the session and recognition API the camera agents
and the lecturer's control page talk to. It needs a PostgreSQL database
(DATABASE_URL), a roster snapshot built with 'piface roster build' and
a running embedding service (EMBEDDING_URL).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	store := roster.NewStore(cfg.SnapshotPath())
	if err := store.Load(); err != nil {
		fmt.Printf("Warning: roster snapshot not loaded: %v\n", err)
		fmt.Printf("Run 'piface roster build' and POST /api/reload_embeddings\n")
	} else {
		fmt.Printf("Roster loaded: %d identities from %s\n", store.Size(), store.Path())
	}

	model := cfg.Embedding.Model
	if model == "" {
		model = constants.DefaultEmbeddingModel
	}
	client := extract.NewClient(cfg.Embedding.URL, model)
	chain := extract.NewChain(client, extract.DefaultPrimaryDetector, extract.DefaultFallbackDetectors)

	threshold := cfg.SimilarityThreshold()
	fmt.Printf("Matching with model %s, threshold %.2f\n", model, threshold)

	coordinator := session.NewCoordinator(
		postgres.NewSessionRepository(pool),
		postgres.NewAttendanceRepository(pool),
		postgres.NewStudentRepository(pool),
	)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(web.Deps{
		Coordinator: coordinator,
		Roster:      store,
		Matcher:     match.New(store, threshold),
		Extractor:   chain,
		Model:       model,
	}, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Shutdown error: %v\n", err)
		}
	}()

	return server.Start()
}
