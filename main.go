package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-xrpl-custody/cmd/probe"
	"github.com/kashguard/go-xrpl-custody/cmd/server"
	"github.com/kashguard/go-xrpl-custody/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "go-xrpl-custody",
		Short: "Custodial XRPL remote co-signing service",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.AddCommand(
		server.New(),
		probe.New(),
	)

	config.InitLogger(config.DefaultServiceConfigFromEnv().Logger)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
