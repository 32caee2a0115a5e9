// ABOUTME: Root Cobra command and global flags for the ghostpost CLI.
// ABOUTME: Loads config, secrets, and logging, and opens the note store before each command.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/logging"
	"github.com/2389-research/ghostpost/internal/storage"
)

var globalConfig *config.Config
var globalProvider config.Provider
var globalNotes *storage.NoteMDStore

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ghostpost",
	Short: "Publish markdown notes to Ghost",
	Long: `
 ██████╗ ██╗  ██╗ ██████╗ ███████╗████████╗██████╗  ██████╗ ███████╗████████╗
██╔════╝ ██║  ██║██╔═══██╗██╔════╝╚══██╔══╝██╔══██╗██╔═══██╗██╔════╝╚══██╔══╝
██║  ███╗███████║██║   ██║███████╗   ██║   ██████╔╝██║   ██║███████╗   ██║
██║   ██║██╔══██║██║   ██║╚════██║   ██║   ██╔═══╝ ██║   ██║╚════██║   ██║
╚██████╔╝██║  ██║╚██████╔╝███████║   ██║   ██║     ╚██████╔╝███████║   ██║
 ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝   ╚═╝   ╚═╝      ╚═════╝ ╚══════╝   ╚═╝

Publish local markdown notes to Ghost as posts or pages.
Notes remember where they were published, so the next publish updates in place.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		logCfg := cfg.Logging
		if logCfg.Level == "" {
			logCfg.Level = "warn"
		}
		if verbose {
			logCfg.Level = "debug"
		}
		if err := logging.Init(logCfg); err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}

		secretsPath, err := cfg.GetSecretsPath()
		if err != nil {
			return fmt.Errorf("failed to resolve secrets path: %w", err)
		}
		secrets, err := config.LoadSecrets(secretsPath)
		if err != nil {
			return err
		}
		globalProvider = config.NewFileProvider(cfg, secrets)

		notesDir, err := cfg.GetNotesDir()
		if err != nil {
			return fmt.Errorf("failed to resolve notes dir: %w", err)
		}
		notes, err := storage.NewNoteMDStore(notesDir)
		if err != nil {
			return fmt.Errorf("failed to open note store: %w", err)
		}
		globalNotes = notes

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests and publish decisions")
}
