package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Query   QueryCommand   `cmd:"query" help:"Ask the knowledge base a question."`
	Compare CompareCommand `cmd:"compare" help:"Ask a question with and without query decomposition and compare the citations."`
	Context ContextCommand `cmd:"context" help:"Retrieve the chunks most relevant to a piece of text, without generating an answer."`
	Chat    ChatCommand    `cmd:"chat" help:"Chat with the knowledge base."`
	Serve   ServeCommand   `cmd:"serve" help:"Start the HTTP server."`
	Status  StatusCommand  `cmd:"status" help:"Show the knowledge base status and its ingestion jobs."`
	Upload  UploadCommand  `cmd:"upload" help:"Upload a PDF to the knowledge base data source and start ingestion."`
	Version VersionCommand `cmd:"version" help:"Print the version."`
}

func main() {
	var cli CLI
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx := kong.Parse(&cli,
		kong.Name("bedrockrag"),
		kong.Description("Query Amazon Bedrock Knowledge Bases with and without query decomposition."),
		kong.UsageOnError(),
		kong.Vars{"default_compare_query": defaultCompareQuery},
		kong.BindTo(ctx, (*context.Context)(nil)))
	if err := kctx.Run(); err != nil {
		log := getLogger("error")
		log.Error("error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func getLogger(level string) *slog.Logger {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "info":
		ll = slog.LevelInfo
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ll,
	}))
}
