// Package extract turns cleaned filing text into structured records via the
// LLM. Responses are schema-validated, oversized settlements are chunked and
// merged, and enumerated fields are coerced into their allowed sets.
package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/resilience"
	"github.com/boardwatch/filings-cli/pkg/anthropic"
)

// Config controls the extraction engine.
type Config struct {
	Model           string
	MaxTokens       int64
	MaxChunkChars   int
	ChunkOverlap    int
	TokensPerMinute int
	Retry           resilience.RetryConfig
}

// Engine performs LLM extraction for complaints, settlements, and amendment
// comparisons. All calls share one token-per-minute budget.
type Engine struct {
	client  anthropic.Client
	limiter *rate.Limiter
	cfg     Config
	now     func() time.Time
}

// New builds an Engine around a Client.
func New(client anthropic.Client, cfg Config) *Engine {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = defaultMaxChunkChars
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	// Each chunk must advance past the previous one, so the overlap has to
	// stay strictly below the chunk size.
	if cfg.ChunkOverlap >= cfg.MaxChunkChars {
		cfg.ChunkOverlap = cfg.MaxChunkChars / 2
	}
	if cfg.TokensPerMinute <= 0 {
		cfg.TokensPerMinute = 80_000
	}
	return &Engine{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.TokensPerMinute)/60.0), cfg.TokensPerMinute),
		cfg:     cfg,
		now:     time.Now,
	}
}

// ExtractComplaint extracts structured facts from a complaint document.
func (e *Engine) ExtractComplaint(ctx context.Context, meta Metadata, text string) (*model.ComplaintFacts, *model.ExtractionVersion, error) {
	content := userContent(meta, text, 0, 1)

	doc, usage, retried, err := e.extractValidated(ctx, complaintPrompt, content, complaintValidator)
	if err != nil {
		return nil, nil, err
	}
	usage.LogCost(e.cfg.Model, "complaint_extraction")

	facts, err := decodeFacts[model.ComplaintFacts](doc)
	if err != nil {
		return nil, nil, err
	}
	coerceComplaint(facts)

	return facts, &model.ExtractionVersion{
		Model:       e.cfg.Model,
		PromptKind:  "complaint",
		Chunks:      1,
		Retried:     retried,
		ExtractedAt: e.now(),
	}, nil
}

// ExtractSettlement extracts the disciplinary terms from a settlement.
// Documents over the chunk threshold are split, extracted sequentially, and
// merged.
func (e *Engine) ExtractSettlement(ctx context.Context, meta Metadata, text string) (*model.SettlementFacts, *model.ExtractionVersion, error) {
	chunks := chunkText(text, e.cfg.MaxChunkChars, e.cfg.ChunkOverlap)
	if len(chunks) > 1 {
		zap.L().Info("extract: settlement chunked",
			zap.String("case_number", meta.CaseNumber),
			zap.Int("chunks", len(chunks)),
			zap.Int("chars", len(text)),
		)
	}

	var results []model.SettlementFacts
	var usage anthropic.TokenUsage
	retried := false

	for i, chunk := range chunks {
		content := userContent(meta, chunk, i, len(chunks))
		doc, chunkUsage, chunkRetried, err := e.extractValidated(ctx, settlementPrompt, content, settlementValidator)
		if err != nil {
			return nil, nil, err
		}
		usage.Add(chunkUsage)
		retried = retried || chunkRetried

		facts, err := decodeFacts[model.SettlementFacts](doc)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *facts)
	}
	usage.LogCost(e.cfg.Model, "settlement_extraction")

	merged := mergeSettlementFacts(results)
	coerceSettlement(&merged)

	return &merged, &model.ExtractionVersion{
		Model:       e.cfg.Model,
		PromptKind:  "settlement",
		Chunks:      len(chunks),
		Retried:     retried,
		ExtractedAt: e.now(),
	}, nil
}

// CompareAmendment produces an amendment summary from the original and
// amended complaint texts. The caller skips this entirely when the original
// text is unavailable; a failure here is a warning, never a document
// failure.
func (e *Engine) CompareAmendment(ctx context.Context, originalText, amendedText string) (string, error) {
	content := amendmentContent(originalText, amendedText)

	doc, usage, _, err := e.extractValidated(ctx, amendmentPrompt, content, amendmentValidator)
	if err != nil {
		return "", err
	}
	usage.LogCost(e.cfg.Model, "amendment_comparison")

	summary, _ := doc["amendment_summary"].(string)
	return summary, nil
}

// extractValidated calls the model once and validates the response. A
// schema rejection earns exactly one corrective follow-up carrying the
// validation error; a second rejection is permanent for this run.
func (e *Engine) extractValidated(ctx context.Context, system, content string, validator *jsonschema.Schema) (map[string]any, anthropic.TokenUsage, bool, error) {
	var usage anthropic.TokenUsage

	text, firstUsage, err := e.call(ctx, system, []anthropic.Message{
		{Role: "user", Content: content},
	})
	usage.Add(firstUsage)
	if err != nil {
		return nil, usage, false, err
	}

	doc, err := validateJSON(text, validator)
	if err == nil {
		return doc, usage, false, nil
	}
	if !IsInvalid(err) {
		return nil, usage, false, err
	}

	invalid := err.(*InvalidError)
	zap.L().Warn("extract: response failed validation, sending corrective retry",
		zap.String("reason", invalid.Reason),
	)

	retryText, retryUsage, err := e.call(ctx, system, []anthropic.Message{
		{Role: "user", Content: content},
		{Role: "assistant", Content: text},
		{Role: "user", Content: correctiveMessage(invalid.Reason)},
	})
	usage.Add(retryUsage)
	if err != nil {
		return nil, usage, true, err
	}

	doc, err = validateJSON(retryText, validator)
	if err != nil {
		return nil, usage, true, err
	}
	return doc, usage, true, nil
}

// call waits on the shared token budget and issues one message request.
// Transient network failures retry with backoff; a 429 surfaces as a
// RateLimitedError for the orchestrator to pause on.
func (e *Engine) call(ctx context.Context, system string, messages []anthropic.Message) (string, anthropic.TokenUsage, error) {
	cost := estimateTokens(system, messages)
	if err := e.limiter.WaitN(ctx, cost); err != nil {
		return "", anthropic.TokenUsage{}, eris.Wrap(err, "extract: token budget wait")
	}

	resp, err := resilience.DoVal(ctx, e.cfg.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     e.cfg.Model,
			MaxTokens: e.cfg.MaxTokens,
			System:    anthropic.CachedSystemBlocks(system),
			Messages:  messages,
		})
		if err != nil && anthropic.IsRateLimited(err) {
			return nil, &resilience.RateLimitedError{Err: err}
		}
		return resp, err
	})
	if err != nil {
		if resilience.IsRateLimited(err) {
			return "", anthropic.TokenUsage{}, err
		}
		return "", anthropic.TokenUsage{}, eris.Wrap(err, "extract: create message")
	}

	return resp.Text(), resp.Usage, nil
}

// estimateTokens approximates request cost for the rate limiter at four
// characters per token.
func estimateTokens(system string, messages []anthropic.Message) int {
	chars := len(system)
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars/4 + 1
}

func decodeFacts[T any](doc map[string]any) (*T, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "extract: re-marshal validated response")
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &InvalidError{Reason: "response fields have wrong types: " + err.Error(), Raw: string(b)}
	}
	return &out, nil
}

func correctiveMessage(reason string) string {
	return "Your previous response failed validation: " + reason + "\nRespond again with only a single valid JSON object exactly matching the requested schema. No prose, no markdown fences."
}
