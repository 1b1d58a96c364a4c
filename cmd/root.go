package cmd

import (
	"os"
	"strconv"
	"strings"

	"finsight/internal/api"
	"finsight/internal/auth"
	"finsight/internal/config"
	"finsight/internal/filter"
	"finsight/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagAPIURL   string
	flagAIURL    string
	flagAIModel  string
	flagClusters string
	flagAccounts string
	flagProjects string
	flagYears    string
	flagMonths   string
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "FinSight P&L dashboard",
	Long:  "Explore profit-and-loss data: filterable tables, hierarchy rollups, KPI summaries, and the Ask Nova assistant.",
	RunE:  runDashboard,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagAIURL, "ai-url", "", "Assistant completion endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagAIModel, "ai-model", "", "Assistant model name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagClusters, "clusters", "", "Comma-separated cluster ids to filter")
	rootCmd.PersistentFlags().StringVar(&flagAccounts, "accounts", "", "Comma-separated account ids to filter")
	rootCmd.PersistentFlags().StringVar(&flagProjects, "projects", "", "Comma-separated project ids to filter")
	rootCmd.PersistentFlags().StringVar(&flagYears, "years", "", "Comma-separated years to filter")
	rootCmd.PersistentFlags().StringVar(&flagMonths, "months", "", "Comma-separated month names to filter")
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() config.Config {
	cfg, _ := config.Load()
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	if flagAIURL != "" {
		cfg.AI.Endpoint = flagAIURL
	}
	if flagAIModel != "" {
		cfg.AI.Model = flagAIModel
	}
	return cfg
}

// newAPIClient builds the shared client path used by all commands: config,
// persisted credentials, session, client.
func newAPIClient(cfg config.Config) (*api.Client, error) {
	var tokens auth.TokenStore
	if ts, err := store.Open(config.TokenPath()); err == nil {
		tokens = ts
	}

	session := auth.NewSession(cfg.API.BaseURL, tokens)
	if err := session.Restore(); err != nil {
		return nil, err
	}
	return api.NewClient(cfg.API.BaseURL, session), nil
}

// buildFilter assembles the filter state from the shared flags.
func buildFilter() filter.State {
	f := filter.New()
	f.Clusters = splitList(flagClusters)
	f.Accounts = splitList(flagAccounts)
	f.Projects = splitList(flagProjects)
	f.Months = splitList(flagMonths)
	for _, y := range splitList(flagYears) {
		if n, err := strconv.Atoi(y); err == nil {
			f.Years = append(f.Years, n)
		}
	}
	return f
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
