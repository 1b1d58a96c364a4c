package cmd

import (
	"fmt"

	"finsight/internal/cli"
	"finsight/internal/model"
	"finsight/internal/pipeline"

	"github.com/spf13/cobra"
)

var hierarchyCmd = &cobra.Command{
	Use:       "hierarchy [cluster|account|project|resource]",
	Short:     "Rolled-up view at one hierarchy level",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"cluster", "account", "project", "resource"},
	RunE:      runHierarchy,
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}

	mode := model.ModeCluster
	if len(args) == 1 {
		mode = model.Mode(args[0])
	} else if role := client.Session().User().Role; role != "" {
		mode = model.DefaultModeForRole(role)
	}

	f := buildFilter()
	rows, err := client.GridRows(cmd.Context(), mode, f)
	if err != nil {
		return err
	}
	rows = pipeline.FilterGridRows(rows, f)

	table := cli.Table{
		Title:   fmt.Sprintf("%s rollup  (%d rows)", mode, len(rows)),
		Headers: []string{"Name", "Revenue", "Cost", "Profit", "Margin", countHeader(mode)},
	}
	for _, r := range rows {
		revenue, cost, profit, margin := r.Metrics()
		table.Rows = append(table.Rows, []string{
			r.Name(),
			cli.FormatCurrency(revenue),
			cli.FormatCurrency(cost),
			cli.FormatCurrency(profit),
			cli.FormatMargin(margin),
			countCell(r),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(table))
	return nil
}

func countHeader(mode model.Mode) string {
	switch mode {
	case model.ModeAccount:
		return "Projects"
	case model.ModeProject:
		return "Utilization"
	case model.ModeResource:
		return "Utilization"
	default:
		return "Accounts"
	}
}

func countCell(r model.GridRow) string {
	switch r.Mode {
	case model.ModeAccount:
		return cli.FormatNumber(int64(r.Account.ProjectCount))
	case model.ModeProject:
		return cli.FormatUtilization(r.Project.Utilization)
	case model.ModeResource:
		return cli.FormatUtilization(r.Resource.Utilization)
	default:
		return cli.FormatNumber(int64(r.Cluster.AccountCount))
	}
}
