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

type ContextCommand struct {
	KB       KnowledgeBaseFlags `embed:""`
	Server   ServerFlags        `embed:""`
	Output   OutputFlags        `embed:""`
	Text     string             `help:"The text to find relevant chunks for." short:"q" required:""`
	LogLevel string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ContextCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var citations []models.Citation
	if rsc, ok := c.Server.Client(); ok {
		var resp models.ContextPostResponse
		resp, err = rsc.ContextPost(ctx, models.ContextPostRequest{
			Text:        c.Text,
			ResultCount: c.KB.ResultCount,
		})
		citations = resp.Results
	} else {
		citations, err = c.retrieveBedrock(ctx, log)
	}
	if err != nil {
		return err
	}

	if c.Output.JSON {
		return writeJSON(os.Stdout, models.ContextPostResponse{Results: citations})
	}
	return report.New(os.Stdout, c.Output.Width).PrintCitations(citations)
}

func (c ContextCommand) retrieveBedrock(ctx context.Context, log *slog.Logger) (citations []models.Citation, err error) {
	cfg := c.KB.Config()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := kb.NewBedrock(log, bedrockagentruntime.NewFromConfig(awsCfg), cfg)
	citations, err = svc.Retrieve(ctx, models.QueryRequest{
		Text:            c.Text,
		KnowledgeBaseID: cfg.KnowledgeBaseID,
		ResultCount:     cfg.ResultCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	return citations, nil
}
