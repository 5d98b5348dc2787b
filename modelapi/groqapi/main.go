package groqapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"celerdev/httpmiddleware"
	"celerdev/interview"
	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	ASSISTANT = "assistant"
	SYSTEM    = "system"
	USER      = "user"
)

const (
	GROQ_URL        = "https://api.groq.com/openai/v1/chat/completions"
	GROQ_MODEL_NAME = "moonshotai/kimi-k2-instruct"
	maxTokens       = 2048
)

type ChatCompletionInputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequestInput struct {
	Model     string                       `json:"model"`
	Messages  []ChatCompletionInputMessage `json:"messages"`
	MaxTokens int                          `json:"max_tokens"`
}

type GroqResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GroqConnectProps struct {
	Logger    *logger.LogMiddleware
	APIKey    string
	ModelName string
	// URL overrides the chat completions endpoint, used by tests.
	URL string
}

type Groq struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	apiKey    string
	modelName string
	url       string
}

func Connect(ctx context.Context, args GroqConnectProps) *Groq {
	tracer := otel.Tracer("groqapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))

	modelName := args.ModelName
	if modelName == "" {
		modelName = GROQ_MODEL_NAME
	}
	url := args.URL
	if url == "" {
		url = GROQ_URL
	}

	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers), attribute.String("model", modelName))
	if args.APIKey == "" {
		args.Logger.Logger(ctx).Warn("[Groq-API] GROQ_SECRET_KEY not set, model calls will fail")
	}

	return &Groq{logger: args.Logger, semaphore: sem, apiKey: args.APIKey, modelName: modelName, url: url}
}

func (o *Groq) MakeAPIRequest(ctx context.Context, input ChatRequestInput) (*GroqResponse, error) {
	tracer := otel.Tracer("groqapi/MakeAPIRequest")
	ctx, span := tracer.Start(ctx, "MakeAPIRequest")
	defer span.End()

	span.SetAttributes(
		attribute.String("api.url", o.url),
		attribute.Int("request.max_tokens", input.MaxTokens),
		attribute.String("request.model", input.Model),
	)

	jsonData, err := json.Marshal(input)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not generate request body: %w", err)
	}

	if err := o.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer o.semaphore.Release(1)

	respBody, err := httpmiddleware.HttpRequest(ctx, httpmiddleware.HttpRequestStruct{
		Method: "POST",
		Url:    o.url,
		Body:   bytes.NewBuffer(jsonData),
		Headers: map[string]string{
			"authorization": "Bearer " + o.apiKey,
			"content-type":  "application/json",
		},
	})
	if err != nil {
		span.RecordError(err)
		o.logger.Logger(ctx).Error("[Groq-API] Could not make request to Groq", zap.Error(err))
		return nil, err
	}

	var messageResponse GroqResponse
	if err := json.Unmarshal(respBody, &messageResponse); err != nil {
		span.RecordError(err)
		o.logger.Logger(ctx).Error(
			"[Groq-API] Could not parse Groq response",
			zap.Error(err),
			zap.Int("body_length", len(respBody)),
		)
		return nil, fmt.Errorf("parse groq response: %w", err)
	}

	span.AddEvent("Request successful")
	return &messageResponse, nil
}

func (o *Groq) complete(ctx context.Context, messages []ChatCompletionInputMessage) (string, error) {
	if o.apiKey == "" {
		return "", interview.ErrMissingCredentials
	}

	resp, err := o.MakeAPIRequest(ctx, ChatRequestInput{
		Model:     o.modelName,
		MaxTokens: maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Content) == 0 {
		return "", fmt.Errorf("no response received")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *Groq) Generate(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("groqapi/Generate")
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	return o.complete(ctx, []ChatCompletionInputMessage{{Role: USER, Content: prompt}})
}

func (o *Groq) Chat(ctx context.Context, systemInstruction string, history []interview.Message, message string) (string, error) {
	tracer := otel.Tracer("groqapi/Chat")
	ctx, span := tracer.Start(ctx, "Chat")
	defer span.End()

	span.SetAttributes(attribute.Int("conversation_history_length", len(history)))

	return o.complete(ctx, buildMessages(systemInstruction, history, message))
}

func buildMessages(systemInstruction string, history []interview.Message, message string) []ChatCompletionInputMessage {
	messages := make([]ChatCompletionInputMessage, 0, len(history)+2)
	messages = append(messages, ChatCompletionInputMessage{Role: SYSTEM, Content: systemInstruction})

	for _, m := range history {
		role := USER
		if m.Role == interview.RoleModel {
			role = ASSISTANT
		}
		messages = append(messages, ChatCompletionInputMessage{Role: role, Content: m.Text})
	}

	return append(messages, ChatCompletionInputMessage{Role: USER, Content: message})
}
