package geminiapi

import (
	"context"
	"fmt"
	"strings"

	"celerdev/interview"
	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	GEMINI_MODEL_NAME = "gemini-2.5-flash"
)

type GeminiConnectProps struct {
	Logger    *logger.LogMiddleware
	APIKey    string
	ModelName string
}

type Gemini struct {
	logger    *logger.LogMiddleware
	client    *genai.Client
	modelName string
}

// Connect builds the Gemini client. A missing key is not fatal: every call
// then fails with interview.ErrMissingCredentials so the caller can degrade.
func Connect(ctx context.Context, args GeminiConnectProps) (*Gemini, error) {
	tracer := otel.Tracer("geminiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	modelName := args.ModelName
	if modelName == "" {
		modelName = GEMINI_MODEL_NAME
	}
	span.SetAttributes(attribute.String("model", modelName))

	g := &Gemini{logger: args.Logger, modelName: modelName}

	if args.APIKey == "" {
		args.Logger.Logger(ctx).Warn("[GeminiAPI] No API key configured, model calls will fail")
		return g, nil
	}

	args.Logger.Logger(ctx).Info("[GeminiAPI] Connecting Gemini API client", zap.String("model", modelName))
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  args.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("geminiapi/Generate")
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	if g.client == nil {
		return "", interview.ErrMissingCredentials
	}
	g.logger.Logger(ctx).Info("[GeminiAPI] Generate called", zap.Int("prompt.length", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error("[GeminiAPI] Error generating LLM content", zap.Error(err))
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Chat seeds a chat session with history and sends one message.
func (g *Gemini) Chat(ctx context.Context, systemInstruction string, history []interview.Message, message string) (string, error) {
	tracer := otel.Tracer("geminiapi/Chat")
	ctx, span := tracer.Start(ctx, "Chat")
	defer span.End()

	span.SetAttributes(
		attribute.Int("history.length", len(history)),
		attribute.Int("system_instruction.length", len(systemInstruction)),
	)

	if g.client == nil {
		return "", interview.ErrMissingCredentials
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	chat, err := g.client.Chats.Create(ctx, g.modelName, cfg, toContents(history))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("gemini create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error("[GeminiAPI] Error sending chat message", zap.Error(err))
		return "", fmt.Errorf("gemini send message: %w", err)
	}

	text := resp.Text()
	if text == "" {
		span.AddEvent("EmptyResponse")
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func toContents(history []interview.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == interview.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return contents
}
