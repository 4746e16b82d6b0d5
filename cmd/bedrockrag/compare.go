package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/bedrockrag/report"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
)

const defaultCompareQuery = "What is octank tower and how does the whistleblower scandal hurt the company and its image?"

type CompareCommand struct {
	KB       KnowledgeBaseFlags `embed:""`
	Server   ServerFlags        `embed:""`
	Output   OutputFlags        `embed:""`
	Text     string             `help:"The question to ask." short:"q" default:"${default_compare_query}"`
	LogLevel string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c CompareCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var comparison models.Comparison
	if rsc, ok := c.Server.Client(); ok {
		log.Debug("comparing on server", slog.String("url", c.Server.RAGServerURL))
		comparison, err = rsc.ComparePost(ctx, models.ComparePostRequest{
			Text:        c.Text,
			ResultCount: c.KB.ResultCount,
		})
	} else {
		comparison, err = c.compareBedrock(ctx, log)
	}
	if err != nil {
		return err
	}
	log.Info("comparison complete",
		slog.Int("citationsWithout", len(comparison.Without.Citations)),
		slog.Int("citationsWith", len(comparison.With.Citations)))

	if c.Output.JSON {
		return writeJSON(os.Stdout, comparison)
	}
	return report.New(os.Stdout, c.Output.Width).ReportComparison(comparison.Without, comparison.With)
}

func (c CompareCommand) compareBedrock(ctx context.Context, log *slog.Logger) (comparison models.Comparison, err error) {
	cfg := c.KB.Config()
	req, err := cfg.NewRequest(c.Text)
	if err != nil {
		return comparison, err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return comparison, err
	}
	if err = cfg.ValidateGeneration(); err != nil {
		return comparison, err
	}
	log.Info("comparing query decomposition",
		slog.String("knowledgeBaseId", cfg.KnowledgeBaseID),
		slog.String("modelArn", cfg.ModelARN()))
	svc := kb.NewBedrock(log, bedrockagentruntime.NewFromConfig(awsCfg), cfg)
	if comparison, err = kb.Compare(ctx, svc, req); err != nil {
		return comparison, fmt.Errorf("failed to compare: %w", err)
	}
	return comparison, nil
}
