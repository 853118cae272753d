package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/api"
	"github.com/maltedev/yt-comment-scraper/internal/jobs"
	"github.com/maltedev/yt-comment-scraper/internal/queue"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API. Jobs are kept in memory and scraped one at a time.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, closeRunner := newRunner(cfg, log)
		defer closeRunner()

		manager := jobs.NewManager(r, queue.NewInMemoryQueue(), log)
		defer manager.Close()

		workerCtx, stopWorker := context.WithCancel(ctx)
		defer stopWorker()
		go manager.StartWorker(workerCtx)

		handlers := api.NewHandlers(manager, newTranscriptClient(cfg, log), log)

		server := &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:      api.NewRouter(handlers, api.RouterOptions{RequestTimeout: cfg.Server.WriteTimeout}),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			log.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown failed", "error", err)
			}
		}()

		log.Info("server starting", "addr", server.Addr, "redis_events", cfg.Redis.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		log.Info("server stopped")
		return nil
	},
}
