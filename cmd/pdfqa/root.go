package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/pdf-qa/config"
	"github.com/upb/pdf-qa/handlers"
	"github.com/upb/pdf-qa/internal/observability"
	"go.uber.org/zap"
)

func NewRootCmd(version string) *cobra.Command {
	handlers.Version = version

	rootCmd := &cobra.Command{
		Use:           "pdfqa",
		Short:         "Ask questions about an uploaded document",
		Long:          `Index one PDF or text document and answer questions about it with retrieval-augmented generation.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewVersionCmd(version),
	)

	return rootCmd
}

// loadConfig reads configuration and builds the logger for a command
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return nil, nil, fmt.Errorf("set config file: %w", err)
		}
	}

	cfg, err := config.New(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, nil
}

func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pdfqa %s\n", version)
		},
	}
}
