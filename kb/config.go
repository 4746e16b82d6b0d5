package kb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a-h/bedrockrag/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Config is the knowledge base and model configuration shared by all commands.
type Config struct {
	Region    string
	AccountID string

	KnowledgeBaseID string
	// ModelReference is a model ID, an inference profile ID, or a full ARN.
	ModelReference string

	ResultCount           int
	UseQueryDecomposition bool
	// SearchType optionally overrides the vector search type: HYBRID or SEMANTIC.
	SearchType string

	// MaxAttempts configures the AWS SDK retryer. Zero keeps the SDK default.
	MaxAttempts int
	// Timeout bounds each service call. Zero means no timeout.
	Timeout time.Duration
}

// Validate checks the configuration needed by retrieval calls. The model
// reference is checked when a generation request is built.
func (c Config) Validate() error {
	if strings.TrimSpace(c.KnowledgeBaseID) == "" {
		return &ConfigurationError{Field: "knowledgeBaseId", Reason: "is required"}
	}
	if c.ResultCount <= 0 {
		return &ConfigurationError{Field: "resultCount", Reason: "must be greater than zero"}
	}
	switch strings.ToUpper(c.SearchType) {
	case "", "HYBRID", "SEMANTIC":
	default:
		return &ConfigurationError{Field: "searchType", Reason: fmt.Sprintf("must be HYBRID or SEMANTIC, got %q", c.SearchType)}
	}
	if c.MaxAttempts < 0 {
		return &ConfigurationError{Field: "maxAttempts", Reason: "must not be negative"}
	}
	return nil
}

// ValidateGeneration checks the configuration needed by retrieve-and-generate
// calls. The region is needed to build the model ARN, so call it after
// LoadAWSConfig.
func (c Config) ValidateGeneration() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ModelReference) == "" {
		return &ConfigurationError{Field: "modelReference", Reason: "is required"}
	}
	if !isARN(c.ModelReference) && c.Region == "" {
		return &ConfigurationError{Field: "region", Reason: "is required to build the model ARN"}
	}
	return nil
}

// NewRequest builds a request for the text using the configured defaults.
func (c Config) NewRequest(text string) (models.QueryRequest, error) {
	return BuildRequest(text, c.KnowledgeBaseID, c.ModelReference, c.ResultCount, c.UseQueryDecomposition)
}

// ModelARN returns the ARN of the configured generation model.
func (c Config) ModelARN() string {
	return ModelARN(c.Region, c.AccountID, c.ModelReference)
}

// LoadAWSConfig loads the AWS configuration from the default credential chain.
// If no region was configured, the region resolved by the SDK is stored in c.
func (c *Config) LoadAWSConfig(ctx context.Context) (cfg aws.Config, err error) {
	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(c.MaxAttempts))
	}
	cfg, err = config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if c.Region == "" {
		c.Region = cfg.Region
	}
	return cfg, nil
}

var inferenceProfilePrefixes = []string{"us.", "eu.", "apac.", "us-gov.", "global."}

// ModelARN builds the model ARN for a model ID in a region.
//
// Full ARNs are returned unchanged. Cross-region inference profile IDs such
// as "us.anthropic.claude-3-5-sonnet-20240620-v1:0" need an account ID.
func ModelARN(region, accountID, modelReference string) string {
	if isARN(modelReference) {
		return modelReference
	}
	if accountID != "" {
		for _, prefix := range inferenceProfilePrefixes {
			if strings.HasPrefix(modelReference, prefix) {
				return fmt.Sprintf("arn:aws:bedrock:%s:%s:inference-profile/%s", region, accountID, modelReference)
			}
		}
	}
	return fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", region, modelReference)
}

func isARN(s string) bool {
	return strings.HasPrefix(s, "arn:")
}
