package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/client"
	"github.com/noahxzhu/lighthouse/internal/config"
	"github.com/noahxzhu/lighthouse/internal/logging"
	"github.com/noahxzhu/lighthouse/internal/safety"
	"github.com/noahxzhu/lighthouse/internal/storage"
)

var (
	configPath string

	cfg        *config.Config
	logger     *zap.Logger
	localStore storage.Store
	adapter    *client.Adapter
	checker    *safety.Checker
)

var rootCmd = &cobra.Command{
	Use:   "lighthouse",
	Short: "Dead-man's-switch safety checks",
	Long: `Lighthouse keeps your risk schedules and trusted contacts, and mails an
alert to those contacts when you enter your danger code.

QUICK START:

  $ lighthouse contact add friend@example.com
  $ lighthouse schedule add --title "Solo hike" --deadline "2025-06-01 18:00"
  $ lighthouse settings set --safe-code 4711 --danger-code 0815
  $ lighthouse confirm 4711          # check in as safe

STORAGE:

  Data is kept in a local file (client.local_path). With client.remote
  enabled (LIGHTHOUSE_CLIENT_REMOTE=1) the Lighthouse server at client.url
  is used instead, falling back to the local copy when it is unreachable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New("warn", false)
		if err != nil {
			return err
		}

		localStore, err = storage.NewFileStore(cfg.Client.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open local data: %w", err)
		}

		api := client.NewRemote(cfg.Client.URL, cfg.Client.Token)
		var remote *client.Remote
		if cfg.Client.Remote {
			remote = api
		}
		adapter = client.NewAdapter(remote, client.NewLocal(localStore, cfg.Storage.Key, logger), logger)
		checker = safety.NewChecker(adapter, api, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if localStore != nil {
			return localStore.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the YAML config file")
}
