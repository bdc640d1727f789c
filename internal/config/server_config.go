package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EchoServer configures the HTTP surface.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableRequestLoggerMiddleware  bool
	EnablePrometheusMiddleware     bool
}

// Logger configures zerolog.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

// Custody configures the custody service client.
type Custody struct {
	BaseURL        string
	APIKey         string
	PrivateKeyPath string
	RequestTimeout time.Duration
}

// Ledger configures the ledger transport.
type Ledger struct {
	RPCURL             string
	AssetID            string
	SubmitPollInterval time.Duration
}

// Pool configures the per-account handle pool.
type Pool struct {
	MaxSize         int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// Signing configures the remote signing protocol engine.
type Signing struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Server is the full service configuration.
type Server struct {
	Echo    EchoServer
	Logger  Logger
	Custody Custody
	Ledger  Ledger
	Pool    Pool
	Signing Signing
}

// DefaultServiceConfigFromEnv returns the configuration resolved from the
// environment (prefixed XRPL_CUSTODY_, dots become underscores), with a .env
// file loaded first if present.
func DefaultServiceConfigFromEnv() Server {
	// Local development convenience; missing files are fine.
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("XRPL_CUSTODY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.hide_internal_server_error_details", true)
	v.SetDefault("echo.enable_recover_middleware", true)
	v.SetDefault("echo.enable_request_logger_middleware", true)
	v.SetDefault("echo.enable_prometheus_middleware", true)

	v.SetDefault("logger.level", zerolog.LevelInfoValue)
	v.SetDefault("logger.pretty_print_console", false)

	v.SetDefault("custody.base_url", "https://api.custody.example.com")
	v.SetDefault("custody.api_key", "")
	v.SetDefault("custody.private_key_path", "")
	v.SetDefault("custody.request_timeout", 30*time.Second)

	v.SetDefault("ledger.rpc_url", "http://localhost:5005")
	v.SetDefault("ledger.asset_id", "XRP")
	v.SetDefault("ledger.submit_poll_interval", 2*time.Second)

	v.SetDefault("pool.max_size", 8)
	v.SetDefault("pool.idle_timeout", 10*time.Minute)
	v.SetDefault("pool.cleanup_interval", time.Minute)

	v.SetDefault("signing.poll_interval", 3*time.Second)
	v.SetDefault("signing.max_wait", time.Duration(0))

	return Server{
		Echo: EchoServer{
			ListenAddress:                  v.GetString("echo.listen_address"),
			HideInternalServerErrorDetails: v.GetBool("echo.hide_internal_server_error_details"),
			EnableRecoverMiddleware:        v.GetBool("echo.enable_recover_middleware"),
			EnableRequestLoggerMiddleware:  v.GetBool("echo.enable_request_logger_middleware"),
			EnablePrometheusMiddleware:     v.GetBool("echo.enable_prometheus_middleware"),
		},
		Logger: Logger{
			Level:              v.GetString("logger.level"),
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		Custody: Custody{
			BaseURL:        v.GetString("custody.base_url"),
			APIKey:         v.GetString("custody.api_key"),
			PrivateKeyPath: v.GetString("custody.private_key_path"),
			RequestTimeout: v.GetDuration("custody.request_timeout"),
		},
		Ledger: Ledger{
			RPCURL:             v.GetString("ledger.rpc_url"),
			AssetID:            v.GetString("ledger.asset_id"),
			SubmitPollInterval: v.GetDuration("ledger.submit_poll_interval"),
		},
		Pool: Pool{
			MaxSize:         v.GetInt("pool.max_size"),
			IdleTimeout:     v.GetDuration("pool.idle_timeout"),
			CleanupInterval: v.GetDuration("pool.cleanup_interval"),
		},
		Signing: Signing{
			PollInterval: v.GetDuration("signing.poll_interval"),
			MaxWait:      v.GetDuration("signing.max_wait"),
		},
	}
}
