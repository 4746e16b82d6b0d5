package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a-h/bedrockrag/ingest"
	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type UploadCommand struct {
	KB           KnowledgeBaseFlags `embed:""`
	Server       ServerFlags        `embed:""`
	DataSourceID string             `help:"The data source to add the document to. Optional if the knowledge base has one data source." env:"DATA_SOURCE_ID" default:""`
	File         string             `arg:"" help:"The PDF file to upload." type:"existingfile"`
	LogLevel     string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c UploadCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	var resp models.DocumentsPostResponse
	if rsc, ok := c.Server.Client(); ok {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		resp, err = rsc.DocumentsPost(ctx, filepath.Base(c.File), f)
		if err != nil {
			return fmt.Errorf("failed to upload file: %w", err)
		}
	} else {
		if resp, err = c.uploadBedrock(ctx, log); err != nil {
			return err
		}
	}
	log.Info("document uploaded", slog.String("filename", resp.FileName), slog.String("ingestionJobId", resp.IngestionJobID))
	fmt.Println(resp.IngestionJobID)
	return nil
}

func (c UploadCommand) uploadBedrock(ctx context.Context, log *slog.Logger) (resp models.DocumentsPostResponse, err error) {
	info, err := os.Stat(c.File)
	if err != nil {
		return resp, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > ingest.MaxFileSize {
		return resp, &ingest.InvalidFileError{FileName: c.File, Reason: "file is larger than 16MB"}
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return resp, fmt.Errorf("failed to read file: %w", err)
	}

	cfg := c.KB.Config()
	if err = cfg.Validate(); err != nil {
		return resp, err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return resp, err
	}
	uploader := ingest.New(log, bedrockagent.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg), ingest.Config{
		KnowledgeBaseID: cfg.KnowledgeBaseID,
		DataSourceID:    c.DataSourceID,
	})
	if resp, err = uploader.Upload(ctx, filepath.Base(c.File), data); err != nil {
		return resp, fmt.Errorf("failed to upload file: %w", err)
	}
	return resp, nil
}
