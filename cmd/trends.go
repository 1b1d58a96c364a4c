package cmd

import (
	"fmt"

	"finsight/internal/cli"
	"finsight/internal/pipeline"

	"github.com/spf13/cobra"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Monthly revenue trend and cluster/account breakdowns",
	RunE:  runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}

	f := buildFilter()
	rows, err := client.ResourceRows(cmd.Context(), f)
	if err != nil {
		return err
	}
	rows = pipeline.FilterRows(rows, f, pipeline.ModeFlat)

	trend := pipeline.MonthlyTrend(rows)
	table := cli.Table{
		Title:   "Monthly trend",
		Headers: []string{"Month", "Revenue", "Cost", "Profit"},
	}
	var revenues []float64
	for _, p := range trend {
		revenues = append(revenues, p.Revenue)
		table.Rows = append(table.Rows, []string{
			p.Month,
			cli.FormatCurrency(p.Revenue),
			cli.FormatCurrency(p.Cost),
			cli.FormatCurrency(p.Profit),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(table))
	fmt.Println("  Revenue " + cli.RenderSparkline(revenues))
	fmt.Println()

	byCluster := pipeline.RevenueByCluster(rows, pipeline.IdentityNames)
	if len(byCluster) > 0 {
		fmt.Println("  Revenue by cluster")
		maxVal := byCluster[0].Value
		for _, e := range byCluster {
			fmt.Println(cli.RenderHorizontalBar(e.Name, e.Value, maxVal, 30))
		}
		fmt.Println()
	}

	byAccount := pipeline.MarginByAccount(rows, pipeline.IdentityNames)
	if len(byAccount) > 0 {
		fmt.Println("  Top account margins")
		for _, e := range byAccount {
			fmt.Printf("  %-20s %s\n", e.Name, cli.FormatMargin(e.Value))
		}
	}
	return nil
}
