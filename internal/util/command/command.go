package command

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/router"
	"github.com/kashguard/go-xrpl-custody/internal/config"
)

// NewSubcommandGroup returns a command that only exists to group its
// subcommands.
func NewSubcommandGroup(name string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: name,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(subcommands...)
	return cmd
}

// WithServer constructs a fully wired server, runs f with it and guarantees
// teardown afterwards.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	s, err := api.NewServer(cfg)
	if err != nil {
		return err
	}
	router.Init(s)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Custody.RequestTimeout)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	return f(ctx, s)
}
