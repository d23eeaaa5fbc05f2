package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dipbot/internal/app"
	"dipbot/internal/config"
	"dipbot/internal/logger"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "dipbot",
		Short:         "dipbot - buys spot dips and sells the rebound",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv(config.EnvPrefix + "_CONFIG")
			}
			if cfgPath == "" {
				cfgPath = defaultConfigPath
			}
			return run(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (env "+config.EnvPrefix+"_CONFIG, default "+defaultConfigPath+")")
	return cmd
}

func run(parent context.Context, cfgPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("load config failed: %v", err)
		return err
	}
	logFile, err := logger.OpenFileSink(cfg.App.LogPath)
	if err != nil {
		log.Printf("open log file failed: %v", err)
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (env=%s, exchange=%s, path=%s)", cfg.App.Env, cfg.Exchange.Name, cfgPath)

	a, err := app.NewApp(cfg)
	if err != nil {
		logger.Errorf("init app failed: %v", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnf("close app: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx); err != nil {
		logger.Errorf("dipbot stopped with error: %v", err)
		return err
	}
	logger.Infof("dipbot stopped")
	return nil
}
