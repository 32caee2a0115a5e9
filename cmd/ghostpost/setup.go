// ABOUTME: Cobra command for interactive Ghost instance setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate an admin key.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup [instance]",
	Short: "Connect a Ghost instance",
	Long: `Interactive wizard to configure a Ghost site and its Admin API key.

Settings are written to config.yaml and the admin key to secrets.env.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secretsPath, err := cfg.GetSecretsPath()
	if err != nil {
		return fmt.Errorf("failed to resolve secrets path: %w", err)
	}
	secrets, err := config.LoadSecrets(secretsPath)
	if err != nil {
		return err
	}

	var name, siteURL, adminKey string
	if len(args) == 1 {
		name = args[0]
		siteURL = cfg.Instances[name].URL
		adminKey = secrets[config.SecretKey(name)]
	}

	p := tea.NewProgram(tui.NewSetupModel(name, siteURL, adminKey))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	name, siteURL, adminKey = final.Result()
	settings := cfg.Instances[name]
	settings.URL = siteURL
	cfg.SetInstance(name, settings)

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := config.SaveSecret(secretsPath, name, adminKey); err != nil {
		return fmt.Errorf("failed to save admin key: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Printf("Instance %q saved.\n", name)
	} else {
		fmt.Printf("Instance %q saved to %s (key in %s)\n", name, configPath, secretsPath)
	}
	return nil
}
