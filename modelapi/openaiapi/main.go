package openaiapi

import (
	"context"
	"fmt"
	"io"

	"celerdev/interview"
	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
)

const (
	DEEPINFRA_BASE_URL = "https://api.deepinfra.com/v1/openai"
	KOKORO_TTS         = "hexgrad/Kokoro-82M"

	STYLE_INSTRUCTION = "Speak as a calm, professional interviewer. Clear diction, neutral accent, measured pace."
)

// Polly voice names are the canonical voice ids; each backend maps them.
var openAIVoices = map[string]openai.AudioSpeechNewParamsVoice{
	"Joanna":  openai.AudioSpeechNewParamsVoiceNova,
	"Matthew": openai.AudioSpeechNewParamsVoiceOnyx,
	"Amy":     openai.AudioSpeechNewParamsVoiceShimmer,
	"Brian":   openai.AudioSpeechNewParamsVoiceEcho,
}

var kokoroVoices = map[string]string{
	"Joanna":  "af_bella",
	"Matthew": "am_michael",
	"Amy":     "bf_emma",
	"Brian":   "bm_george",
}

type OpenAI struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	client    *openai.Client
	deepInfra bool
	hasKey    bool
}

type OpenAIConnectProps struct {
	Logger     *logger.LogMiddleware
	APIKey     string
	MaxWorkers int
	// DeepInfra routes requests to DeepInfra's OpenAI compatible endpoint
	// and the Kokoro model.
	DeepInfra bool
	// BaseURL overrides the endpoint, used by tests.
	BaseURL string
}

func Connect(ctx context.Context, args OpenAIConnectProps) *OpenAI {
	tracer := otel.Tracer("openaiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := args.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	sem := semaphore.NewWeighted(int64(maxWorkers))

	opts := []option.RequestOption{
		option.WithAPIKey(args.APIKey),
		option.WithMaxRetries(0),
	}
	baseURL := args.BaseURL
	if baseURL == "" && args.DeepInfra {
		baseURL = DEEPINFRA_BASE_URL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	span.SetAttributes(
		attribute.Int("maxWorkers", maxWorkers),
		attribute.Bool("deepinfra", args.DeepInfra),
	)
	if args.APIKey == "" {
		args.Logger.Logger(ctx).Warn("[OpenAIAPI] No API key configured, speech requests will fail")
	}

	client := openai.NewClient(opts...)
	return &OpenAI{
		logger:    args.Logger,
		semaphore: sem,
		client:    &client,
		deepInfra: args.DeepInfra,
		hasKey:    args.APIKey != "",
	}
}

func (d *OpenAI) Synthesize(ctx context.Context, req interview.SpeechRequest) ([]byte, error) {
	tracer := otel.Tracer("openaiapi/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	if !d.hasKey {
		return nil, fmt.Errorf("%w: no API key configured", interview.ErrSpeech)
	}

	if err := d.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer d.semaphore.Release(1)

	params := d.buildParams(req)
	span.SetAttributes(attribute.String("model", string(params.Model)), attribute.String("voice", string(params.Voice)))
	d.logger.Logger(ctx).Info("[OpenAIAPI] Generating speech", zap.Int("text.length", len(req.Text)))

	res, err := d.client.Audio.Speech.New(ctx, params)
	if err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[OpenAIAPI] Speech request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", interview.ErrSpeech, err)
	}
	defer res.Body.Close()

	audioBytes, err := io.ReadAll(res.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: read audio: %w", interview.ErrSpeech, err)
	}
	return audioBytes, nil
}

func (d *OpenAI) buildParams(req interview.SpeechRequest) openai.AudioSpeechNewParams {
	params := openai.AudioSpeechNewParams{
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Input:          req.Text,
	}
	if req.Speed > 0 {
		params.Speed = param.NewOpt(req.Speed)
	}

	if d.deepInfra {
		params.Model = KOKORO_TTS
		voice, ok := kokoroVoices[req.VoiceID]
		if !ok {
			voice = kokoroVoices["Joanna"]
		}
		params.Voice = openai.AudioSpeechNewParamsVoice(voice)
		return params
	}

	params.Model = openai.SpeechModelGPT4oMiniTTS
	params.Instructions = param.NewOpt(STYLE_INSTRUCTION)
	voice, ok := openAIVoices[req.VoiceID]
	if !ok {
		voice = openai.AudioSpeechNewParamsVoiceSage
	}
	params.Voice = voice
	return params
}
