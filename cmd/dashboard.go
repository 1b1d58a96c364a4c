package cmd

import (
	"fmt"

	"finsight/internal/api"
	"finsight/internal/chat"
	"finsight/internal/config"
	"finsight/internal/tui"
	"finsight/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}
	assistant := chat.NewClient(cfg.AI.Endpoint, cfg.AI.Model)

	return launchDashboard(client, assistant)
}

func launchDashboard(client *api.Client, assistant *chat.Client) error {
	app := tui.NewApp(client, assistant)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

// configCmd prints the active configuration file path.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration file location",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(config.ConfigPath())
		if !config.Exists() {
			fmt.Println("(not created yet; defaults are in effect)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
