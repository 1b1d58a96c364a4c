package cmd

import (
	"fmt"
	"strconv"

	"finsight/internal/cli"
	"finsight/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagPage    int
	flagSortKey string
	flagSortDir string
	flagMinMarg float64
)

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Flat P&L rows matching the current filter",
	RunE:  runRows,
}

func init() {
	rowsCmd.Flags().IntVar(&flagPage, "page", 1, "Page number")
	rowsCmd.Flags().StringVar(&flagSortKey, "sort", "", "Sort column (revenue, cost, grossProfit, margin, cluster, account, project, month)")
	rowsCmd.Flags().StringVar(&flagSortDir, "dir", "asc", "Sort direction (asc or desc)")
	rowsCmd.Flags().Float64Var(&flagMinMarg, "min-margin", 30, "Lower margin bound")
	rootCmd.AddCommand(rowsCmd)
}

func runRows(cmd *cobra.Command, _ []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}

	f := buildFilter()
	f.MarginRange[0] = flagMinMarg

	page, err := client.PnL(cmd.Context(), f, 1, 1000)
	if err != nil {
		return err
	}

	rows := pipeline.FilterRows(page.Data, f, pipeline.ModeFlat)

	sortState := pipeline.SortState{Key: flagSortKey}
	if flagSortKey != "" {
		sortState.Direction = pipeline.SortAsc
		if flagSortDir == "desc" {
			sortState.Direction = pipeline.SortDesc
		}
	}
	rows = sortState.Apply(rows)

	pager := pipeline.NewPager(len(rows))
	for pager.Page() < flagPage {
		next := pager.Next()
		if next == pager {
			break
		}
		pager = next
	}
	visible := pipeline.Slice(rows, pager)

	table := cli.Table{
		Title:   fmt.Sprintf("P&L rows  page %d/%d  (%d total)", pager.Page(), pager.TotalPages(), len(rows)),
		Headers: []string{"Cluster", "Account", "Project", "Month", "Revenue", "Cost", "Profit", "Margin"},
	}
	for _, r := range visible {
		table.Rows = append(table.Rows, []string{
			r.Cluster, r.Account, r.Project,
			r.Month + " " + strconv.Itoa(r.Year),
			cli.FormatCurrency(r.Revenue),
			cli.FormatCurrency(r.Cost),
			cli.FormatCurrency(r.GrossProfit),
			cli.FormatMargin(r.Margin),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(table))
	return nil
}
