// Package ai turns archived problems into three-sided card drafts through
// the Anthropic API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/amirb101/three-sided-sub001/internal/config"
	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/logger"
)

const defaultRequestsPerMinute = 10

// systemPrompt pins the reply to the draft schema. The transformer parses
// nothing but the JSON object, so any deviation lands in the fallback path.
const systemPrompt = `You convert archived mathematics problems into three-sided flashcards.

Reply with a single JSON object and nothing else:
{"statement": "...", "hints": "...", "proof": "...", "tags": ["...", "...", "..."]}

Rules:
- "statement" is one precise, self-contained mathematical claim or problem.
- "hints" guides the reader toward the proof without giving it away.
- "proof" is a complete, rigorous solution.
- "tags" is exactly three lowercase kebab-case topic tags.`

// Transformer produces card drafts from candidates. It is the pipeline's AI
// transformer collaborator.
type Transformer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	limiter   *rate.Limiter
	log       logger.Logger
}

// NewTransformer creates a Transformer from the service configuration.
func NewTransformer(cfg config.TransformerConfig, log logger.Logger) *Transformer {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	return &Transformer{
		client:    client,
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		limiter:   limiter,
		log:       log,
	}
}

// Transform converts candidate into a validated card draft. Transport and
// API failures are returned as-is for classification; output that does not
// meet the draft schema comes back wrapped in ErrMalformedDraft.
func (t *Transformer) Transform(ctx context.Context, candidate *domain.Candidate) (*domain.CardDraft, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(candidate))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic api: %w", err)
	}

	draft, err := ParseDraft(textContent(message))
	if err != nil {
		t.log.Warn("Transformer output rejected",
			logger.String("candidate_id", candidate.ID),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}

	t.log.Info("Candidate transformed",
		logger.String("candidate_id", candidate.ID),
		logger.Strings("tags", draft.Tags),
		logger.Duration("duration", time.Since(start)),
	)
	return draft, nil
}

// buildPrompt renders the candidate for the model.
func buildPrompt(candidate *domain.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n\n", candidate.Title)
	fmt.Fprintf(&b, "Problem:\n%s\n", candidate.Body)
	if candidate.AnswerText != "" {
		fmt.Fprintf(&b, "\nAccepted answer:\n%s\n", candidate.AnswerText)
	}
	if len(candidate.Tags) > 0 {
		fmt.Fprintf(&b, "\nArchive tags: %s\n", strings.Join(candidate.Tags, ", "))
	}

	return b.String()
}

// textContent concatenates the reply's text blocks.
func textContent(message *anthropic.Message) string {
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// ParseDraft parses a model reply into a validated card draft. The reply may
// wrap the JSON object in prose or markdown fences; everything outside the
// outermost braces is ignored. Schema violations are malformed output.
func ParseDraft(text string) (*domain.CardDraft, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedDraft)
	}

	var draft domain.CardDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDraft, err)
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	// Only the fallback transformation may set this flag.
	draft.FallbackUsed = false
	return &draft, nil
}

// extractJSON returns the outermost {...} span of text, or "".
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
