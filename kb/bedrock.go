package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// RetrievalService runs a retrieve-and-generate request.
type RetrievalService interface {
	Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error)
}

// RuntimeAPI is the part of *bedrockagentruntime.Client used by Bedrock.
type RuntimeAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

func NewBedrock(log *slog.Logger, api RuntimeAPI, cfg Config) *Bedrock {
	return &Bedrock{
		log:        log,
		api:        api,
		region:     cfg.Region,
		accountID:  cfg.AccountID,
		searchType: types.SearchType(strings.ToUpper(cfg.SearchType)),
		timeout:    cfg.Timeout,
	}
}

// Bedrock queries Amazon Bedrock Knowledge Bases.
type Bedrock struct {
	log        *slog.Logger
	api        RuntimeAPI
	region     string
	accountID  string
	searchType types.SearchType
	timeout    time.Duration
}

var _ RetrievalService = &Bedrock{}

func (b *Bedrock) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Bedrock) retrievalConfiguration(resultCount int) *types.KnowledgeBaseRetrievalConfiguration {
	vsc := &types.KnowledgeBaseVectorSearchConfiguration{
		NumberOfResults: aws.Int32(int32(resultCount)),
	}
	if b.searchType != "" {
		vsc.OverrideSearchType = b.searchType
	}
	return &types.KnowledgeBaseRetrievalConfiguration{
		VectorSearchConfiguration: vsc,
	}
}

func (b *Bedrock) retrieveAndGenerateInput(req models.QueryRequest) *bedrockagentruntime.RetrieveAndGenerateInput {
	kbc := &types.KnowledgeBaseRetrieveAndGenerateConfiguration{
		KnowledgeBaseId:        aws.String(req.KnowledgeBaseID),
		ModelArn:               aws.String(ModelARN(b.region, b.accountID, req.ModelReference)),
		RetrievalConfiguration: b.retrievalConfiguration(req.ResultCount),
	}
	if req.UseQueryDecomposition {
		kbc.OrchestrationConfiguration = &types.OrchestrationConfiguration{
			QueryTransformationConfiguration: &types.QueryTransformationConfiguration{
				Type: types.QueryTransformationTypeQueryDecomposition,
			},
		}
	}
	input := &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &types.RetrieveAndGenerateInput{
			Text: aws.String(req.Text),
		},
		RetrieveAndGenerateConfiguration: &types.RetrieveAndGenerateConfiguration{
			Type:                       types.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: kbc,
		},
	}
	if req.SessionID != "" {
		input.SessionId = aws.String(req.SessionID)
	}
	return input
}

// Query retrieves content from the knowledge base and generates an answer from it.
// Service failures are returned as *ServiceError and are not retried here.
func (b *Bedrock) Query(ctx context.Context, req models.QueryRequest) (resp models.QueryResponse, err error) {
	if err = validateRequest(req); err != nil {
		return resp, err
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	b.log.Debug("retrieve and generate",
		slog.String("knowledgeBaseId", req.KnowledgeBaseID),
		slog.Int("resultCount", req.ResultCount),
		slog.Bool("queryDecomposition", req.UseQueryDecomposition))
	out, err := b.api.RetrieveAndGenerate(ctx, b.retrieveAndGenerateInput(req))
	if err != nil {
		return resp, NewServiceError("RetrieveAndGenerate", err)
	}

	if out.Output != nil {
		resp.Answer = aws.ToString(out.Output.Text)
	}
	resp.SessionID = aws.ToString(out.SessionId)
	resp.Citations = []models.Citation{}
	for _, c := range out.Citations {
		for _, ref := range c.RetrievedReferences {
			citation, err := newCitation(ref.Content, ref.Location, ref.Metadata)
			if err != nil {
				return resp, err
			}
			resp.Citations = append(resp.Citations, citation)
		}
	}
	if len(resp.Citations) == 0 {
		b.log.Warn("no citations returned", slog.String("knowledgeBaseId", req.KnowledgeBaseID))
	}
	return resp, nil
}

// Retrieve returns the most relevant chunks for the text without generating an answer.
func (b *Bedrock) Retrieve(ctx context.Context, req models.QueryRequest) (citations []models.Citation, err error) {
	if err = validateRetrieval(req); err != nil {
		return nil, err
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	b.log.Debug("retrieve",
		slog.String("knowledgeBaseId", req.KnowledgeBaseID),
		slog.Int("resultCount", req.ResultCount))
	out, err := b.api.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(req.KnowledgeBaseID),
		RetrievalQuery: &types.KnowledgeBaseQuery{
			Text: aws.String(req.Text),
		},
		RetrievalConfiguration: b.retrievalConfiguration(req.ResultCount),
	})
	if err != nil {
		return nil, NewServiceError("Retrieve", err)
	}
	citations = make([]models.Citation, len(out.RetrievalResults))
	for i, rr := range out.RetrievalResults {
		if citations[i], err = newCitation(rr.Content, rr.Location, rr.Metadata); err != nil {
			return nil, err
		}
		citations[i].Score = rr.Score
	}
	return citations, nil
}

func newCitation(content *types.RetrievalResultContent, location *types.RetrievalResultLocation, metadata map[string]document.Interface) (c models.Citation, err error) {
	if content != nil {
		c.Text = aws.ToString(content.Text)
	}
	c.Location = newLocation(location)
	if c.Metadata, err = newMetadata(metadata); err != nil {
		return c, err
	}
	return c, nil
}

func newLocation(l *types.RetrievalResultLocation) (loc models.Location) {
	if l == nil {
		return loc
	}
	loc.Type = string(l.Type)
	switch {
	case l.S3Location != nil:
		loc.URI = aws.ToString(l.S3Location.Uri)
	case l.WebLocation != nil:
		loc.URI = aws.ToString(l.WebLocation.Url)
	case l.ConfluenceLocation != nil:
		loc.URI = aws.ToString(l.ConfluenceLocation.Url)
	case l.SalesforceLocation != nil:
		loc.URI = aws.ToString(l.SalesforceLocation.Url)
	case l.SharePointLocation != nil:
		loc.URI = aws.ToString(l.SharePointLocation.Url)
	case l.KendraDocumentLocation != nil:
		loc.URI = aws.ToString(l.KendraDocumentLocation.Uri)
	case l.CustomDocumentLocation != nil:
		loc.URI = aws.ToString(l.CustomDocumentLocation.Id)
	case l.SqlLocation != nil:
		loc.URI = aws.ToString(l.SqlLocation.Query)
	}
	return loc
}

func newMetadata(md map[string]document.Interface) (map[string]any, error) {
	if len(md) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(md))
	for k, v := range md {
		if v == nil {
			m[k] = nil
			continue
		}
		value, err := decodeDocument(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata field %q: %w", k, err)
		}
		m[k] = value
	}
	return m, nil
}

// decodeDocument reads a document through its JSON form. This works both for
// documents decoded from a service response and for documents created with
// document.NewLazyDocument.
func decodeDocument(d document.Interface) (v any, err error) {
	b, err := d.MarshalSmithyDocument()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err = dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

// normalizeNumbers replaces document numbers with int64 or float64 values.
func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for k, mv := range v {
			v[k] = normalizeNumbers(mv)
		}
		return v
	case []any:
		for i, sv := range v {
			v[i] = normalizeNumbers(sv)
		}
		return v
	}
	return v
}
