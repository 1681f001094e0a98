package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fekuna/pantry-service/config"
	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/shelflife"
)

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(estimateCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [text|-]",
	Short: "Parse free text into item lines without touching stock",
	Long: `Parse a shopping receipt or note into item lines. Uses the configured
language model when a token is set, the local rules otherwise.

Examples:
  pantryctl parse "2 milk, eggs x12, rice 1kg"
  cat receipt.txt | pantryctl parse -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		var parser assistant.Parser
		if client := llmClient(cfg, log); client != nil {
			parser = client
		}
		items, err := assistant.New(parser, nil, log).ParseItems(cmd.Context(), text)
		if err != nil {
			return err
		}
		return printJSON(cmd, items)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <name>...",
	Short: "Estimate shelf-life days for item names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		var collab shelflife.Collaborator
		if client := llmClient(cfg, log); client != nil {
			collab = shelflife.NewLLMCollaborator(client)
		}
		est := shelflife.New(shelflife.DefaultRules, collab, shelflife.Config{
			MaxDays:     cfg.ShelfLife.MaxDays,
			DefaultDays: cfg.ShelfLife.DefaultDays,
			Timeout:     cfg.ShelfLife.Timeout,
		}, metrics.NewNop(), log)

		for _, name := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, est.Estimate(cmd.Context(), name))
		}
		return nil
	},
}

func llmClient(cfg *config.Config, log logger.ZapLogger) *assistant.Client {
	if cfg.LLM.Token == "" {
		return nil
	}
	client, err := assistant.NewOpenAI(assistant.Config{
		BaseURL:   cfg.LLM.BaseURL,
		Token:     cfg.LLM.Token,
		Model:     cfg.LLM.Model,
		Timeout:   cfg.LLM.Timeout,
		RateLimit: cfg.LLM.RateLimit,
	}, log)
	if err != nil {
		return nil
	}
	return client
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
