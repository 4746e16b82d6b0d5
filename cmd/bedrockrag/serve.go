package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/bedrockrag/auth"
	comparepost "github.com/a-h/bedrockrag/handlers/compare/post"
	contextpost "github.com/a-h/bedrockrag/handlers/context/post"
	documentspost "github.com/a-h/bedrockrag/handlers/documents/post"
	querypost "github.com/a-h/bedrockrag/handlers/query/post"
	statusget "github.com/a-h/bedrockrag/handlers/status/get"
	"github.com/a-h/bedrockrag/ingest"
	"github.com/a-h/bedrockrag/kb"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/cors"
)

type ServeCommand struct {
	KB           KnowledgeBaseFlags `embed:""`
	DataSourceID string             `help:"The data source that uploaded documents are added to. Optional if the knowledge base has one data source." env:"DATA_SOURCE_ID" default:""`
	ListenAddr   string             `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:9020"`
	TLSCertFile  string             `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile   string             `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	APIKeysFile  string             `help:"The file containing a JSON map of API keys to usernames." env:"API_KEYS_FILE" default:"apikeys.json"`
	LogLevel     string             `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	cfg := c.KB.Config()
	if err = cfg.Validate(); err != nil {
		return err
	}
	log.Info("loading AWS configuration")
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	if err = cfg.ValidateGeneration(); err != nil {
		return err
	}
	log.Info("using knowledge base",
		slog.String("region", cfg.Region),
		slog.String("knowledgeBaseId", cfg.KnowledgeBaseID),
		slog.String("modelArn", cfg.ModelARN()),
		slog.Bool("queryDecomposition", cfg.UseQueryDecomposition))

	svc := kb.NewBedrock(log, bedrockagentruntime.NewFromConfig(awsCfg), cfg)
	uploader := ingest.New(log, bedrockagent.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg), ingest.Config{
		KnowledgeBaseID: cfg.KnowledgeBaseID,
		DataSourceID:    c.DataSourceID,
	})

	mux := http.NewServeMux()
	mux.Handle("POST /query", querypost.New(log, svc, cfg))
	mux.Handle("POST /compare", comparepost.New(log, svc, cfg))
	mux.Handle("POST /context", contextpost.New(log, svc, cfg))
	mux.Handle("GET /status", statusget.New(log, uploader))
	mux.Handle("POST /documents", documentspost.New(log, uploader))

	apiKeyToUserName, err := auth.LoadFromFile(c.APIKeysFile)
	if err != nil {
		return fmt.Errorf("failed to load API keys: %w", err)
	}
	authenticatedMux := auth.New(apiKeyToUserName, mux)
	withCORSAuthenticatedMux := cors.AllowAll().Handler(authenticatedMux)

	log.Info("Listening", slog.String("addr", c.ListenAddr))
	s := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           withCORSAuthenticatedMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	}
	return listenAndServe(ctx, log, s, c.TLSCertFile, c.TLSKeyFile)
}

// listenAndServe runs the server until it fails or ctx is done. When ctx is
// done, in-flight requests are given 10 seconds to complete.
func listenAndServe(ctx context.Context, log *slog.Logger, s *http.Server, certFile, keyFile string) (err error) {
	errs := make(chan error, 1)
	go func() {
		if certFile != "" && keyFile != "" {
			errs <- s.ListenAndServeTLS(certFile, keyFile)
			return
		}
		errs <- s.ListenAndServe()
	}()

	select {
	case err = <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err = <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
