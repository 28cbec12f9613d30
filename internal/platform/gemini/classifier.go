package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"text/template"
	"time"

	"github.com/stellae/stellae-api/internal/config"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
	"google.golang.org/genai"
)

//go:embed prompt.txt
var defaultPromptTemplate string

// GeminiClassifier implements the generation.Classifier interface using
// Google's Gemini API to classify note text and extract flashcards.
type GeminiClassifier struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string

	// call performs a single model call. Defaults to callGemini; tests
	// substitute it to drive the retry loop without a live client.
	call func(ctx context.Context, prompt string) (*responseSchema, bool, error)

	// wait blocks between retry attempts. Defaults to waitWithContext.
	wait func(ctx context.Context, d time.Duration) error
}

// Ensure GeminiClassifier implements generation.Classifier interface
var _ generation.Classifier = (*GeminiClassifier)(nil)

// NewGeminiClassifier creates a new GeminiClassifier with the provided
// dependencies. The prompt template is loaded from
// config.PromptTemplatePath when set; otherwise the embedded default
// template is used.
//
// Returns generation.ErrInvalidConfig when the configuration is unusable.
func NewGeminiClassifier(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiClassifier, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templateContent := defaultPromptTemplate
	if cfg.PromptTemplatePath != "" {
		raw, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		templateContent = string(raw)
	}

	promptTemplate, err := template.New("classify").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	g := &GeminiClassifier{
		logger:         logger.With(slog.String("component", "gemini_classifier")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}
	g.call = g.callGemini
	g.wait = waitWithContext

	return g, nil
}

// waitWithContext sleeps for d unless ctx is canceled first.
func waitWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Classify implements generation.Classifier.Classify
// It renders the prompt, calls the Gemini API with retries, and parses the
// JSON response into a Classification.
func (g *GeminiClassifier) Classify(
	ctx context.Context,
	noteText string,
) (*generation.Classification, error) {
	prompt, err := g.createPrompt(ctx, noteText)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response)
}

// createPrompt renders the prompt template with the note text.
// Returns ErrEmptyNoteText if the note text is empty.
func (g *GeminiClassifier) createPrompt(ctx context.Context, noteText string) (string, error) {
	if noteText == "" {
		return "", ErrEmptyNoteText
	}

	g.logger.DebugContext(ctx, "Generating prompt from template",
		"note_length", len(noteText))

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, promptData{NoteText: noteText}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return promptBuffer.String(), nil
}

// callGeminiWithRetry makes a call to the Gemini API with exponential
// backoff retry logic.
//
// It attempts the call up to config.MaxRetries+1 times, backing off with
// jitter between retries for transient errors. Permanent errors (content
// blocked by safety filters, unparseable responses) return immediately.
func (g *GeminiClassifier) callGeminiWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "Invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "Invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "Making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		response, transient, err := g.call(ctx, prompt)
		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !transient {
			g.logger.WarnContext(ctx, "Permanent error occurred, not retrying")
			return nil, err
		}

		if attempt >= maxRetries {
			g.logger.WarnContext(ctx, "Maximum retry attempts reached", "max_retries", maxRetries)
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		if waitErr := g.wait(ctx, delay); waitErr != nil {
			g.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", waitErr)
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, waitErr)
		}
	}
}

// callGemini performs a single API call. The transient flag reports whether
// the error is worth retrying.
func (g *GeminiClassifier) callGemini(ctx context.Context, prompt string) (resp *responseSchema, transient bool, err error) {
	apiResp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		// API-level failures (timeouts, rate limits) are assumed transient
		return nil, true, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if apiResp == nil || len(apiResp.Candidates) == 0 {
		return nil, false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := apiResp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, false, fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return nil, false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := apiResp.Text()
	if text == "" {
		return nil, false, fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	return &parsed, false, nil
}

// parseResponse validates the raw API response and converts it into a
// generation.Classification. Every card must carry both sides, and the
// category must be one of the recognized values.
func (g *GeminiClassifier) parseResponse(
	ctx context.Context,
	response *responseSchema,
) (*generation.Classification, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", generation.ErrInvalidResponse)
	}

	category := domain.Category(response.Category)
	if !domain.IsValidCategory(category) {
		return nil, fmt.Errorf("%w: unrecognized category %q",
			generation.ErrInvalidResponse, response.Category)
	}

	if len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	cards := make([]generation.CardDraft, 0, len(response.Cards))
	for i, card := range response.Cards {
		if card.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if card.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}
		cards = append(cards, generation.CardDraft{Front: card.Front, Back: card.Back})
	}

	g.logger.InfoContext(ctx, "Parsed classification response",
		"category", string(category),
		"card_count", len(cards))

	return &generation.Classification{
		Category: category,
		Cards:    cards,
	}, nil
}
