package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"finsight/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered P&L rows as JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
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

	out := os.Stdout
	if flagExportOut != "" {
		file, err := os.Create(flagExportOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	if flagExportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(rows), flagExportOut)
	}
	return nil
}
