package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/a-h/bedrockrag/ingest"
	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type StatusCommand struct {
	KB       KnowledgeBaseFlags `embed:""`
	Server   ServerFlags        `embed:""`
	JSON     bool               `help:"Print JSON instead of text." default:"false"`
	LogLevel string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c StatusCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var status models.StatusGetResponse
	if rsc, ok := c.Server.Client(); ok {
		status, err = rsc.StatusGet(ctx)
	} else {
		status, err = c.statusBedrock(ctx, log)
	}
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if c.JSON {
		return writeJSON(os.Stdout, status)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Knowledge base\t%s\t%s\n", status.KnowledgeBaseID, status.Status)
	for _, ds := range status.DataSources {
		fmt.Fprintf(tw, "Data source\t%s (%s)\t%s\n", ds.ID, ds.Name, ds.Status)
	}
	for _, job := range status.IngestionJobs {
		fmt.Fprintf(tw, "Ingestion job\t%s (%s)\t%s\n", job.ID, job.DataSourceID, job.Status)
	}
	return tw.Flush()
}

func (c StatusCommand) statusBedrock(ctx context.Context, log *slog.Logger) (status models.StatusGetResponse, err error) {
	cfg := c.KB.Config()
	if err = cfg.Validate(); err != nil {
		return status, err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return status, err
	}
	uploader := ingest.New(log, bedrockagent.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg), ingest.Config{
		KnowledgeBaseID: cfg.KnowledgeBaseID,
	})
	return uploader.Status(ctx)
}
