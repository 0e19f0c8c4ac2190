package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Figu3/trevee-supply-api/config"
	"github.com/Figu3/trevee-supply-api/constant"
	"github.com/Figu3/trevee-supply-api/core"
	"github.com/Figu3/trevee-supply-api/logger"
)

const flagHome = "home"

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String(flagHome, constant.DefaultNodeHome, "node home directory")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(versionCmd())
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config to the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			if err := config.Save(cfg, home); err != nil {
				return err
			}

			configFile := filepath.Join(home, constant.ConfigSubdir, constant.ConfigFileName)
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", configFile)
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the supply reporting service",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}

			cfg, err := config.Load(home)
			if err != nil {
				return fmt.Errorf("failed to load config from %s: %w", home, err)
			}
			cfg.NodeHome = home

			log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogSampler)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			service, err := core.NewService(ctx, &cfg, log)
			if err != nil {
				return err
			}
			return service.Start()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tsupplyd version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Name:    %s\n", constant.AppName)
			fmt.Printf("Version: %s\n", constant.Version)
			fmt.Printf("Commit:  %s\n", constant.Commit)
		},
	}
}
