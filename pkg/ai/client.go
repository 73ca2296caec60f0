package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insieme",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI backend requests",
	}, []string{"operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insieme",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI backend requests",
	}, []string{"operation", "model"})
)

// Config defines configuration options for the OpenAI-backed client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// Client implements Backend against the OpenAI chat completion API.
type Client struct {
	api    *openai.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds a backend client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/insieme-app/insieme-api/pkg/ai"),
		logger: logger.With().Str("component", "ai_client").Logger(),
	}, nil
}

// GenerateProblems asks the backend for a worksheet's problem set. When the
// input carries a source file URL the vision model reads the document.
func (c *Client) GenerateProblems(ctx context.Context, input GenerationInput) ([]GeneratedProblem, error) {
	model := c.cfg.Model
	message := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildGenerationPrompt(input),
	}
	if input.SourceFileURL != "" {
		model = c.cfg.VisionModel
		message = multimodalMessage(buildGenerationPrompt(input), input.SourceFileURL)
	}

	content, err := c.complete(ctx, "generate", model, generatorSystemPrompt(), message, nil)
	if err != nil {
		return nil, err
	}

	problems, err := parseGenerationResponse(content)
	if err != nil {
		aiFailures.WithLabelValues("generate", model).Inc()
		return nil, err
	}

	return problems, nil
}

// GradeAnswer scores a single open-ended answer. The returned score and
// confidence are already clamped; a parse failure carries ErrUnparsable.
func (c *Client) GradeAnswer(ctx context.Context, input GradingInput) (GradeResult, error) {
	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	message := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildGradingPrompt(input),
	}

	content, err := c.complete(ctx, "grade", c.cfg.Model, graderSystemPrompt(), message, format)
	if err != nil {
		return GradeResult{}, err
	}

	result, err := parseGradeResponse(content)
	if err != nil {
		aiFailures.WithLabelValues("grade", c.cfg.Model).Inc()
		return GradeResult{}, err
	}

	return result, nil
}

// ExtractAnswers performs the single combined read-and-grade call over a
// scanned answer sheet.
func (c *Client) ExtractAnswers(ctx context.Context, input ExtractionInput) ([]ExtractedAnswer, error) {
	message := multimodalMessage(buildExtractionPrompt(input), input.FileURL)

	content, err := c.complete(ctx, "extract", c.cfg.VisionModel, extractorSystemPrompt(), message, nil)
	if err != nil {
		return nil, err
	}

	answers, err := parseExtractionResponse(content)
	if err != nil {
		aiFailures.WithLabelValues("extract", c.cfg.VisionModel).Inc()
		return nil, err
	}

	return answers, nil
}

func (c *Client) complete(parent context.Context, operation, model, system string, message openai.ChatCompletionMessage, format *openai.ChatCompletionResponseFormat) (string, error) {
	ctx, span := c.tracer.Start(parent, "ai."+operation, trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			message,
		},
		ResponseFormat: format,
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(operation, model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(operation, model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("ai %s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("ai %s: no choices returned", operation)
		aiFailures.WithLabelValues(operation, model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("model", model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("ai request completed")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func multimodalMessage(prompt, fileURL string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: fileURL}},
		},
	}
}
