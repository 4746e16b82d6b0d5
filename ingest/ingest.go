// Package ingest uploads documents to a knowledge base data source and
// reports the state of its ingestion jobs.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tmc/langchaingo/documentloaders"
)

// MaxFileSize is the largest document that can be uploaded.
const MaxFileSize = 16 << 20

type AgentAPI interface {
	GetKnowledgeBase(ctx context.Context, params *bedrockagent.GetKnowledgeBaseInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetKnowledgeBaseOutput, error)
	GetDataSource(ctx context.Context, params *bedrockagent.GetDataSourceInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetDataSourceOutput, error)
	ListDataSources(ctx context.Context, params *bedrockagent.ListDataSourcesInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.ListDataSourcesOutput, error)
	ListIngestionJobs(ctx context.Context, params *bedrockagent.ListIngestionJobsInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.ListIngestionJobsOutput, error)
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
}

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	KnowledgeBaseID string
	// DataSourceID is optional if the knowledge base has a single data source.
	DataSourceID string
}

func New(log *slog.Logger, agent AgentAPI, s3c S3API, cfg Config) *Uploader {
	return &Uploader{
		log:       log,
		agent:     agent,
		s3:        s3c,
		cfg:       cfg,
		readPages: readPDFPages,
	}
}

type Uploader struct {
	log       *slog.Logger
	agent     AgentAPI
	s3        S3API
	cfg       Config
	readPages func(ctx context.Context, data []byte) (pages int, err error)
}

func readPDFPages(ctx context.Context, data []byte) (pages int, err error) {
	docs, err := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// InvalidFileError is returned when an uploaded file is rejected.
type InvalidFileError struct {
	FileName string
	Reason   string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("ingest: invalid file %q: %s", e.FileName, e.Reason)
}

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SecureFileName strips directories and unsafe characters from a file name.
func SecureFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFileNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}

// Status returns the status of the knowledge base and the ingestion jobs of each data source.
func (u *Uploader) Status(ctx context.Context) (status models.StatusGetResponse, err error) {
	status.KnowledgeBaseID = u.cfg.KnowledgeBaseID
	kbOut, err := u.agent.GetKnowledgeBase(ctx, &bedrockagent.GetKnowledgeBaseInput{
		KnowledgeBaseId: aws.String(u.cfg.KnowledgeBaseID),
	})
	if err != nil {
		return status, kb.NewServiceError("GetKnowledgeBase", err)
	}
	if kbOut.KnowledgeBase != nil {
		status.Status = string(kbOut.KnowledgeBase.Status)
	}

	if status.DataSources, err = u.dataSources(ctx); err != nil {
		return status, err
	}
	status.IngestionJobs = []models.IngestionJob{}
	for _, ds := range status.DataSources {
		jobs := bedrockagent.NewListIngestionJobsPaginator(u.agent, &bedrockagent.ListIngestionJobsInput{
			KnowledgeBaseId: aws.String(u.cfg.KnowledgeBaseID),
			DataSourceId:    aws.String(ds.ID),
		})
		for jobs.HasMorePages() {
			page, err := jobs.NextPage(ctx)
			if err != nil {
				return status, kb.NewServiceError("ListIngestionJobs", err)
			}
			for _, job := range page.IngestionJobSummaries {
				status.IngestionJobs = append(status.IngestionJobs, models.IngestionJob{
					ID:           aws.ToString(job.IngestionJobId),
					DataSourceID: aws.ToString(job.DataSourceId),
					Status:       string(job.Status),
				})
			}
		}
	}
	return status, nil
}

func (u *Uploader) dataSources(ctx context.Context) (dataSources []models.DataSource, err error) {
	dataSources = []models.DataSource{}
	pages := bedrockagent.NewListDataSourcesPaginator(u.agent, &bedrockagent.ListDataSourcesInput{
		KnowledgeBaseId: aws.String(u.cfg.KnowledgeBaseID),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, kb.NewServiceError("ListDataSources", err)
		}
		for _, ds := range page.DataSourceSummaries {
			dataSources = append(dataSources, models.DataSource{
				ID:     aws.ToString(ds.DataSourceId),
				Name:   aws.ToString(ds.Name),
				Status: string(ds.Status),
			})
		}
	}
	return dataSources, nil
}

func (u *Uploader) dataSourceID(ctx context.Context) (string, error) {
	if u.cfg.DataSourceID != "" {
		return u.cfg.DataSourceID, nil
	}
	dataSources, err := u.dataSources(ctx)
	if err != nil {
		return "", err
	}
	if len(dataSources) != 1 {
		return "", &kb.ConfigurationError{Field: "dataSourceId", Reason: fmt.Sprintf("is required when the knowledge base has %d data sources", len(dataSources))}
	}
	return dataSources[0].ID, nil
}

type s3Target struct {
	Bucket string
	Prefix string
}

func (u *Uploader) s3Target(ctx context.Context, dataSourceID string) (target s3Target, err error) {
	out, err := u.agent.GetDataSource(ctx, &bedrockagent.GetDataSourceInput{
		KnowledgeBaseId: aws.String(u.cfg.KnowledgeBaseID),
		DataSourceId:    aws.String(dataSourceID),
	})
	if err != nil {
		return target, kb.NewServiceError("GetDataSource", err)
	}
	if out.DataSource == nil || out.DataSource.DataSourceConfiguration == nil || out.DataSource.DataSourceConfiguration.S3Configuration == nil {
		return target, &kb.ConfigurationError{Field: "dataSourceId", Reason: fmt.Sprintf("%q is not an S3 data source", dataSourceID)}
	}
	s3c := out.DataSource.DataSourceConfiguration.S3Configuration
	target.Bucket = strings.TrimPrefix(aws.ToString(s3c.BucketArn), "arn:aws:s3:::")
	if len(s3c.InclusionPrefixes) > 0 {
		target.Prefix = s3c.InclusionPrefixes[0]
	}
	return target, nil
}

// Upload stores a PDF in the data source bucket and starts an ingestion job.
func (u *Uploader) Upload(ctx context.Context, fileName string, data []byte) (resp models.DocumentsPostResponse, err error) {
	originalName := fileName
	fileName = SecureFileName(fileName)
	if fileName == "" {
		return resp, &InvalidFileError{FileName: originalName, Reason: "no file name"}
	}
	if !strings.EqualFold(path.Ext(fileName), ".pdf") {
		return resp, &InvalidFileError{FileName: fileName, Reason: "only PDF files are supported"}
	}
	if len(data) == 0 {
		return resp, &InvalidFileError{FileName: fileName, Reason: "file is empty"}
	}
	if len(data) > MaxFileSize {
		return resp, &InvalidFileError{FileName: fileName, Reason: "file is larger than 16MB"}
	}

	pages, err := u.readPages(ctx, data)
	if err != nil {
		return resp, &InvalidFileError{FileName: fileName, Reason: fmt.Sprintf("failed to read PDF: %v", err)}
	}
	if pages == 0 {
		return resp, &InvalidFileError{FileName: fileName, Reason: "PDF has no pages"}
	}
	u.log.Info("uploading document", slog.String("filename", fileName), slog.Int("pages", pages))

	dataSourceID, err := u.dataSourceID(ctx)
	if err != nil {
		return resp, err
	}
	target, err := u.s3Target(ctx, dataSourceID)
	if err != nil {
		return resp, err
	}
	_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(target.Bucket),
		Key:         aws.String(target.Prefix + fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return resp, kb.NewServiceError("PutObject", err)
	}

	out, err := u.agent.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(u.cfg.KnowledgeBaseID),
		DataSourceId:    aws.String(dataSourceID),
	})
	if err != nil {
		return resp, kb.NewServiceError("StartIngestionJob", err)
	}
	resp.Message = "File uploaded successfully"
	resp.FileName = fileName
	if out.IngestionJob != nil {
		resp.IngestionJobID = aws.ToString(out.IngestionJob.IngestionJobId)
	}
	u.log.Info("started ingestion job", slog.String("filename", fileName), slog.String("ingestionJobId", resp.IngestionJobID))
	return resp, nil
}
