package cmd

import (
	"fmt"

	"finsight/internal/cli"

	"github.com/spf13/cobra"
)

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Rolled-up KPI summary for the current filter",
	RunE:  runKPIs,
}

func init() {
	rootCmd.AddCommand(kpisCmd)
}

func runKPIs(cmd *cobra.Command, _ []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}

	summary, err := client.KPISummary(cmd.Context(), buildFilter())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FINSIGHT KPI SUMMARY"))
	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{"Revenue", cli.FormatCurrency(summary.Revenue)},
			{"Cost", cli.FormatCurrency(summary.Cost)},
			{"Gross Profit", cli.FormatCurrency(summary.GrossProfit)},
			{"Margin", cli.FormatMargin(summary.Margin)},
			{"---"},
			{"Headcount", cli.FormatNumber(int64(summary.Headcount))},
			{"Utilization", cli.FormatPercent(summary.Utilization)},
			{"Revenue / Head", cli.FormatCurrency(summary.RevenuePerHead)},
			{"Cost / Head", cli.FormatCurrency(summary.CostPerHead)},
		},
	}))
	return nil
}
