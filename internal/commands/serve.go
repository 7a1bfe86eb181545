package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/api"
	"github.com/cleared-dev/ledgerbridge/internal/session"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var (
		addr        string
		maxSessions int
		sessionTTL  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			p.log = p.log.Output(cmd.ErrOrStderr())
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var reconciler session.Reconciler
			if gen, err := p.generator(ctx); err != nil {
				p.log.Warn().Err(err).Msg("reconciliation disabled")
			} else {
				reconciler = p.batcher(gen)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(reconciler, p.log,
					session.WithMaxSessions(maxSessions),
					session.WithTTL(sessionTTL),
				).Handler(),
				ReadHeaderTimeout: 15 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				p.log.Info().Str("addr", addr).Msg("starting API server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			p.log.Info().Msg("shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errc
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", session.DefaultMaxSessions, "live sessions kept before the least recently used is evicted")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", session.DefaultTTL, "drop sessions unused for this long")
	return cmd
}
