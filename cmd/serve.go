package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-dedupe/internal/api"
	"github.com/sells-group/crm-dedupe/internal/dedupe"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the duplicate-review HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		gen := dedupe.NewGenerator(s, cfg.Dedupe.SimilarityThreshold, cfg.Dedupe.ScoreWorkers)
		merger := dedupe.NewMerger(s)
		server := api.NewServer(gen, merger, s, cfg.Server.DetectRatePerMin)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
