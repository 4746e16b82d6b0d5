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

type QueryCommand struct {
	KB       KnowledgeBaseFlags `embed:""`
	Server   ServerFlags        `embed:""`
	Output   OutputFlags        `embed:""`
	Text     string             `help:"The question to ask." short:"q" required:""`
	LogLevel string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c QueryCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var resp models.QueryResponse
	if rsc, ok := c.Server.Client(); ok {
		log.Debug("querying server", slog.String("url", c.Server.RAGServerURL))
		resp, err = rsc.QueryPost(ctx, models.QueryPostRequest{
			Text:                  c.Text,
			ResultCount:           c.KB.ResultCount,
			UseQueryDecomposition: &c.KB.QueryDecomposition,
		})
	} else {
		resp, err = c.queryBedrock(ctx, log)
	}
	if err != nil {
		return err
	}
	if len(resp.Citations) == 0 {
		log.Warn("no citations returned")
	}

	if c.Output.JSON {
		return writeJSON(os.Stdout, resp)
	}
	return report.New(os.Stdout, c.Output.Width).PrintResponse(resp)
}

func (c QueryCommand) queryBedrock(ctx context.Context, log *slog.Logger) (resp models.QueryResponse, err error) {
	cfg := c.KB.Config()
	req, err := cfg.NewRequest(c.Text)
	if err != nil {
		return resp, err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return resp, err
	}
	if err = cfg.ValidateGeneration(); err != nil {
		return resp, err
	}
	log.Info("querying knowledge base",
		slog.String("knowledgeBaseId", cfg.KnowledgeBaseID),
		slog.String("modelArn", cfg.ModelARN()),
		slog.Bool("queryDecomposition", req.UseQueryDecomposition))
	svc := kb.NewBedrock(log, bedrockagentruntime.NewFromConfig(awsCfg), cfg)
	if resp, err = svc.Query(ctx, req); err != nil {
		return resp, fmt.Errorf("failed to query knowledge base: %w", err)
	}
	return resp, nil
}
