package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/boardwatch/filings-cli/internal/classify"
	"github.com/boardwatch/filings-cli/internal/extract"
	"github.com/boardwatch/filings-cli/internal/linking"
	"github.com/boardwatch/filings-cli/internal/ocr"
	"github.com/boardwatch/filings-cli/internal/pipeline"
	"github.com/boardwatch/filings-cli/internal/store"
	anthropicpkg "github.com/boardwatch/filings-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPipeline(st store.Store, opts pipeline.Options) *pipeline.Pipeline {
	classifier := classify.New(cfg.Classifier)
	runner := ocr.NewOcrMyPDF(cfg.OCR.OcrMyPDFPath, cfg.OCR.PdfToTextPath, cfg.OCR.Jobs)

	engine := extract.New(anthropicpkg.NewClient(cfg.Anthropic.Key), extract.Config{
		Model:           cfg.Anthropic.Model,
		MaxTokens:       cfg.Anthropic.MaxTokens,
		MaxChunkChars:   cfg.Extraction.MaxChunkChars,
		ChunkOverlap:    cfg.Extraction.ChunkOverlap,
		TokensPerMinute: cfg.Extraction.TokensPerMinute,
		Retry:           cfg.Retry.ToRetryConfig(),
	})
	resolver := linking.New(st, cfg.Linking, linking.WithPriority(classifier.Priority))

	if opts.WorkDir == "" {
		opts.WorkDir = cfg.OCR.WorkDir
	}
	if opts.OcrWorkers == 0 {
		opts.OcrWorkers = cfg.OCR.Workers
	}
	if opts.RateLimitPause == 0 {
		opts.RateLimitPause = cfg.Extraction.RateLimitPause()
	}

	return pipeline.New(st, classifier, runner, engine, resolver, opts)
}
