package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsvoboda/geoattend/internal/config"
	"github.com/jsvoboda/geoattend/internal/database"
	"github.com/jsvoboda/geoattend/internal/recognize"
	"github.com/jsvoboda/geoattend/internal/server"
	"github.com/jsvoboda/geoattend/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance server",
	Long: `Start the attendance server. It verifies client locations against
the venue geofence, recognizes faces in uploaded snapshots and stores
attendance records.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// loadEnrollments rebuilds the in-memory recognition index from the database.
func loadEnrollments(ctx context.Context, db *database.DB, index *recognize.Index) error {
	enrollments, err := db.ListEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}
	for _, e := range enrollments {
		if err := index.Add(e.UserID, e.Embedding); err != nil {
			return fmt.Errorf("failed to index enrollment %d: %w", e.ID, err)
		}
	}
	fmt.Printf("Recognition index ready with %d embeddings for %d user(s)\n",
		index.Len(), len(index.Users()))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	snapshots, err := storage.NewSnapshotStore(cfg.Server.TempDir)
	if err != nil {
		return fmt.Errorf("failed to set up snapshot storage: %w", err)
	}

	embeddings := recognize.NewEmbeddingClient(cfg.Recognition.EmbeddingURL, cfg.Recognition.EmbeddingModel)
	index := recognize.NewIndex()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := loadEnrollments(ctx, db, index); err != nil {
		return err
	}

	matcher := recognize.NewMatcher(embeddings, index)
	checker := recognize.NewFaceChecker(cfg.Recognition.OpenAIToken)
	if checker != nil {
		fmt.Println("Snapshot screening enabled (OpenAI)")
	}

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	srv := server.NewServer(cfg, port, host, db, snapshots, matcher, embeddings, index, checker)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance server on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
