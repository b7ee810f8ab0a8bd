// Command ask answers one question about Odoo data from the terminal,
// running the same pipeline as the HTTP service in-process.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/odoo-query-bridge/internal/ai"
	"github.com/Vovarama1992/odoo-query-bridge/internal/config"
	"github.com/Vovarama1992/odoo-query-bridge/internal/engine"
	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
	"github.com/Vovarama1992/odoo-query-bridge/internal/orchestrator"
)

var (
	showCode bool
	asJSON   bool
	verbose  bool
	creds    odoo.Credentials
	model    string
)

var rootCmd = &cobra.Command{
	Use:           "ask <question>",
	Short:         "Ask a question about your Odoo data",
	Long:          `ask sends a natural-language question to the language model, runs the generated query script against Odoo and prints the answer.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			log.SetOutput(io.Discard)
		}

		config.LoadDotEnv()
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		if model != "" {
			cfg.AI.Model = model
		}

		aiClient, err := ai.NewOpenAIClient(cfg.AI)
		if err != nil {
			return err
		}

		orch := orchestrator.NewService(aiClient, orchestrator.OdooGateways(creds), engine.New())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		question := strings.Join(args, " ")
		out := orch.Handle(ctx, question)

		if asJSON {
			return printJSON(cmd.OutOrStdout(), out)
		}
		render(out)
		if !out.Success {
			return fmt.Errorf("question failed")
		}
		return nil
	},
}

func printJSON(w io.Writer, out orchestrator.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func render(out orchestrator.Outcome) {
	if showCode && out.Code != "" {
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Query script")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(out.Code)
		pterm.Println()
	}

	if out.TextResponse != "" {
		pterm.Println(strings.TrimRight(out.TextResponse, "\n"))
	}

	if !out.Success {
		pterm.Error.Println(out.Error)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showCode, "show-code", false, "Print the generated query script")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full outcome as JSON")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show pipeline logs")
	rootCmd.Flags().StringVar(&model, "model", "", "Override AI_MODEL")
	rootCmd.Flags().StringVar(&creds.URL, "odoo-url", "", "Odoo base URL (default $"+odoo.EnvURL+")")
	rootCmd.Flags().StringVar(&creds.Database, "odoo-db", "", "Odoo database (default $"+odoo.EnvDatabase+")")
	rootCmd.Flags().StringVar(&creds.Username, "odoo-user", "", "Odoo username (default $"+odoo.EnvUsername+")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
