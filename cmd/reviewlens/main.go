package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/config"
)

var version = "dev"

func main() {
	var (
		configPath string
		inputPath  string
	)

	rootCmd := &cobra.Command{
		Use:   "reviewlens",
		Short: "customer review management backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run reviewlens server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config file (json or yaml)")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "ingest reviews from a json file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			count, err := runIngest(cmd.Context(), cfg, inputPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d reviews\n", count)
			return nil
		},
	}
	ingestCmd.Flags().StringVar(&configPath, "config", "", "path to config file (json or yaml)")
	ingestCmd.Flags().StringVar(&inputPath, "file", "", "path to a json array of reviews")

	rootCmd.AddCommand(runCmd, ingestCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}
