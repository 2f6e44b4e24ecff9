package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

const DefaultModelName = "gemini-2.0-flash"

// Generator is the remote model. GenerateAnswer constrains the reply to
// AnswerSchema; GenerateText returns free prose.
type Generator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AnswerSchema is the response schema sent with every question. ParseReply
// enforces the same shape on the way back.
var AnswerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"type": {
			Type:   genai.TypeString,
			Format: "enum",
			Enum:   []string{string(ReplyText), string(ReplyChart)},
		},
		"response": {Type: genai.TypeString},
		"chartType": {
			Type:   genai.TypeString,
			Format: "enum",
			Enum:   []string{"BarChart", "LineChart", "PieChart"},
		},
		"title": {Type: genai.TypeString},
		"data": {
			Type:        genai.TypeString,
			Description: "JSON array of flat objects; first field is the category, the rest are numbers",
		},
	},
	Required: []string{"type"},
}

type LLMService struct {
	client    *genai.Client
	modelName string
	tracer    trace.Tracer
}

func NewLLMService(ctx context.Context, apiKey, modelName string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModelName
	}

	return &LLMService{
		client:    client,
		modelName: modelName,
		tracer:    otel.Tracer("xlerion/core"),
	}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		slog.Error("error closing GenAI client", "error", err)
		return
	}
	slog.Info("GenAI client closed")
}

func (s *LLMService) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = AnswerSchema
	return s.generate(ctx, "gemini.answer", model, prompt)
}

func (s *LLMService) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	temp := float32(0.4)
	maxTokens := int32(256)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}
	text, err := s.generate(ctx, "gemini.recommendation", model, prompt)
	return strings.TrimSpace(text), err
}

func (s *LLMService) generate(ctx context.Context, spanName string, model *genai.GenerativeModel, prompt string) (string, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("gemini.model", s.modelName),
		attribute.Int("gemini.prompt_length", len(prompt)),
	))
	defer span.End()

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content")
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := candidateText(resp)
	if text == "" {
		slog.Warn("Gemini response was empty or had no text parts", "model", s.modelName)
		span.SetStatus(codes.Error, "empty response")
		return "", ErrNoClearResponse
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			slog.Debug("skipping non-text response part", "type", fmt.Sprintf("%T", part))
		}
	}
	return text.String()
}
