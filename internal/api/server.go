package api

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/config"
	"github.com/kashguard/go-xrpl-custody/internal/custody"
	"github.com/kashguard/go-xrpl-custody/internal/dispatcher"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/pool"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
)

// Router holds the echo route groups handlers attach to.
type Router struct {
	Routes        []*echo.Route
	Management    *echo.Group
	APIV1Accounts *echo.Group
	APIV1Pool     *echo.Group
}

// Server bundles the service's components behind the HTTP surface.
type Server struct {
	Config     config.Server
	Echo       *echo.Echo
	Router     *Router
	Registry   *prometheus.Registry
	Custody    custody.Client
	Codec      ledger.Codec
	Pool       *pool.Manager
	Dispatcher *dispatcher.Dispatcher

	ready atomic.Bool
}

// NewServer constructs the full component graph from configuration: custody
// client, codec, pool and dispatcher.
func NewServer(cfg config.Server) (*Server, error) {
	signingKey, err := custody.LoadRSAPrivateKey(cfg.Custody.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	custodyClient := custody.NewAPIClient(
		cfg.Custody.BaseURL,
		cfg.Custody.APIKey,
		signingKey,
		&http.Client{Timeout: cfg.Custody.RequestTimeout},
	)

	return NewServerWithComponents(cfg, custodyClient, ledger.NewJSONCodec()), nil
}

// NewServerWithComponents wires a server around externally supplied custody
// client and codec. Tests use this to inject fakes.
func NewServerWithComponents(cfg config.Server, custodyClient custody.Client, codec ledger.Codec) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	newClient := func(_ context.Context) (ledger.Client, error) {
		client := ledger.NewRPCClient(cfg.Ledger.RPCURL, codec, nil)
		client.SubmitPollInterval = cfg.Ledger.SubmitPollInterval
		return client, nil
	}

	poolManager := pool.NewManager(pool.Config{
		MaxSize:         cfg.Pool.MaxSize,
		IdleTimeout:     cfg.Pool.IdleTimeout,
		CleanupInterval: cfg.Pool.CleanupInterval,
		AssetID:         cfg.Ledger.AssetID,
		Signing: signing.Options{
			PollInterval: cfg.Signing.PollInterval,
			MaxWait:      cfg.Signing.MaxWait,
		},
	}, custodyClient, codec, newClient, registry)

	disp := dispatcher.New(poolManager)
	disp.RegisterDefaults(cfg.Ledger.AssetID)

	return &Server{
		Config:     cfg,
		Registry:   registry,
		Custody:    custodyClient,
		Codec:      codec,
		Pool:       poolManager,
		Dispatcher: disp,
	}
}

// Ready reports whether the server accepts traffic.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Start runs the HTTP listener. Blocks until shutdown.
func (s *Server) Start() error {
	s.ready.Store(true)
	log.Info().Str("listen_address", s.Config.Echo.ListenAddress).Msg("Starting server")
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown stops the HTTP listener and tears down the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	log.Warn().Msg("Shutting down server")

	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down echo server")
		}
	}
	return s.Pool.Shutdown(ctx)
}
