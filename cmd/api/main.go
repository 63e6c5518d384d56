package main

import (
	"fmt"
	"os"

	"community-service/configs"
	"community-service/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "community-service",
	Short:         "Case management API for support workers and participants",
	SilenceUsage:  true,
	SilenceErrors: true,
	// tanpa subcommand langsung jalankan server
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and opens the log files shared by every command.
func setup() (configs.Config, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return configs.Config{}, err
	}
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		return configs.Config{}, err
	}
	return cfg, nil
}
