package cartesiaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"celerdev/httpmiddleware"
	"celerdev/interview"
	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	ttsURL          = "https://api.cartesia.ai/tts/bytes"
	cartesiaVersion = "2024-06-10"
	modelID         = "sonic-2"

	// Stock library voices.
	FEMALE_VOICE = "79a125e8-cd45-4c13-8a67-188112f4dd22"
	MALE_VOICE   = "a0e99841-438c-4a64-b679-ae501e7d6091"
)

type CartesiaConnectProps struct {
	Logger     *logger.LogMiddleware
	APIKey     string
	MaxWorkers int
	// BaseURL overrides the TTS endpoint, used by tests.
	BaseURL string
}

type Cartesia struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	apiKey    string
	url       string
}

type VoiceControls struct {
	Speed float64 `json:"speed"`
}

type VoiceConfig struct {
	Mode     string         `json:"mode"`
	ID       string         `json:"id"`
	Controls *VoiceControls `json:"__experimental_controls,omitempty"`
}

type OutputFormat struct {
	Container  string `json:"container"`
	BitRate    int    `json:"bit_rate"`
	SampleRate int    `json:"sample_rate"`
}

type TTSRequest struct {
	ModelID      string       `json:"model_id"`
	Transcript   string       `json:"transcript"`
	Voice        VoiceConfig  `json:"voice"`
	OutputFormat OutputFormat `json:"output_format"`
	Language     string       `json:"language"`
}

func Connect(ctx context.Context, args CartesiaConnectProps) *Cartesia {
	tracer := otel.Tracer("cartesiaapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := args.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	sem := semaphore.NewWeighted(int64(maxWorkers))

	url := args.BaseURL
	if url == "" {
		url = ttsURL
	}

	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))
	if args.APIKey == "" {
		args.Logger.Logger(ctx).Warn("[CartesiaAPI] CARTESIA_API_KEY not set, speech requests will fail")
	}

	return &Cartesia{logger: args.Logger, semaphore: sem, apiKey: args.APIKey, url: url}
}

// Synthesize renders the plain text of req; Cartesia does not accept SSML.
func (c *Cartesia) Synthesize(ctx context.Context, req interview.SpeechRequest) ([]byte, error) {
	tracer := otel.Tracer("cartesiaapi/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	logger := c.logger.Logger(ctx)

	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: CARTESIA_API_KEY not set", interview.ErrSpeech)
	}

	if err := c.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.semaphore.Release(1)

	request := buildRequest(req)
	span.SetAttributes(attribute.String("voice", request.Voice.ID))

	jsonData, err := json.Marshal(request)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := httpmiddleware.HttpRequest(ctx, httpmiddleware.HttpRequestStruct{
		Method: "POST",
		Url:    c.url,
		Body:   bytes.NewBuffer(jsonData),
		Headers: map[string]string{
			"X-API-Key":        c.apiKey,
			"Cartesia-Version": cartesiaVersion,
			"Content-Type":     "application/json",
		},
	})
	if err != nil {
		span.RecordError(err)
		logger.Error("[CartesiaAPI] Failed to generate speech", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", interview.ErrSpeech, err)
	}

	logger.Info("[CartesiaAPI] Successfully generated speech", zap.Int("audioSize", len(respBody)))
	return respBody, nil
}

func buildRequest(req interview.SpeechRequest) TTSRequest {
	voice := FEMALE_VOICE
	if req.Gender == "male" {
		voice = MALE_VOICE
	}

	out := TTSRequest{
		ModelID:    modelID,
		Transcript: req.Text,
		Voice:      VoiceConfig{Mode: "id", ID: voice},
		OutputFormat: OutputFormat{
			Container:  "mp3",
			BitRate:    128000,
			SampleRate: 44100,
		},
		Language: "en",
	}

	// Cartesia speed is an offset in [-1, 1] around normal pace.
	if req.Speed > 0 && req.Speed != 1 {
		out.Voice.Controls = &VoiceControls{Speed: math.Max(-1, math.Min(1, req.Speed-1))}
	}
	return out
}
