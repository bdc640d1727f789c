package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/config"
	"github.com/kashguard/go-xrpl-custody/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the signing service",
		Long: `Starts the custodial co-signing service: the HTTP surface,
the per-account handle pool and the remote signing engine.`,
		Run: func(_ *cobra.Command, _ []string) {
			run()
		},
	}
}

func run() {
	cfg := config.DefaultServiceConfigFromEnv()
	config.InitLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start()
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			return nil
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
