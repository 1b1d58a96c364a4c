package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"finsight/internal/chat"
	"finsight/internal/model"
	"finsight/internal/nova"

	"github.com/spf13/cobra"
)

var (
	flagAskMode   string
	flagAskEntity string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask Nova a question, optionally scoped to one entity",
	Long: `Ask Nova a question and stream the answer to stdout.

With --mode and --entity, the matching hierarchy row is fetched and its
rolled-up data is handed to the assistant as context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&flagAskMode, "mode", "cluster", "Hierarchy level of the entity (cluster, account, project, resource)")
	askCmd.Flags().StringVar(&flagAskEntity, "entity", "", "Entity id or name to scope the question to")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	question := strings.Join(args, " ")
	prompt := question

	if flagAskEntity != "" {
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}

		f := buildFilter()
		rows, err := client.GridRows(cmd.Context(), model.Mode(flagAskMode), f)
		if err != nil {
			return err
		}

		row, ok := findRow(rows, flagAskEntity)
		if !ok {
			return fmt.Errorf("no %s named %q", flagAskMode, flagAskEntity)
		}
		prompt = nova.NewAssembler(client).Prompt(cmd.Context(), row, f, question)
	}

	stream, err := chat.NewClient(cfg.AI.Endpoint, cfg.AI.Model).Generate(cmd.Context(), prompt)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, frag)
	}
}

func findRow(rows []model.GridRow, entity string) (model.GridRow, bool) {
	for _, r := range rows {
		if r.EntityKey() == entity || strings.EqualFold(r.Name(), entity) {
			return r, true
		}
	}
	return model.GridRow{}, false
}
