package deepgramapi

import (
	"bytes"
	"context"
	"fmt"

	"celerdev/interview"
	"celerdev/logger"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type DeepgramConnectProps struct {
	Logger *logger.LogMiddleware
	APIKey string
}

type DeepgramAPI struct {
	logger *logger.LogMiddleware
	dg     *api.Client
}

// Connect returns nil when no key is configured; transcription is then
// reported as unavailable by the caller.
func Connect(ctx context.Context, args DeepgramConnectProps) *DeepgramAPI {
	if args.APIKey == "" {
		args.Logger.Logger(ctx).Info("[DeepgramAPI] DEEPGRAM_API_KEY not set, transcription disabled")
		return nil
	}

	client.InitWithDefault()
	c := client.NewREST(args.APIKey, &interfaces.ClientOptions{})
	dg := api.New(c)

	return &DeepgramAPI{logger: args.Logger, dg: dg}
}

func (d *DeepgramAPI) Transcribe(ctx context.Context, audioData []byte, mimeType string) (string, error) {
	tracer := otel.Tracer("deepgramapi")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	span.SetAttributes(
		attribute.Int("audio.data.size", len(audioData)),
		attribute.String("audio.mime_type", mimeType),
	)

	logger := d.logger.Logger(ctx)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Punctuate:   true,
		SmartFormat: true,
		Language:    "en",
		Model:       "nova-3",
	}

	span.AddEvent("Calling Deepgram API")
	res, err := d.dg.FromStream(ctx, bytes.NewReader(audioData), options)
	if err != nil {
		logger.Error("[DeepgramAPI] Transcription failed", zap.Error(err))
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", interview.ErrTranscription, err)
	}

	if res != nil && res.Results != nil && len(res.Results.Channels) > 0 {
		channel := res.Results.Channels[0]
		if len(channel.Alternatives) > 0 {
			transcription := channel.Alternatives[0].Transcript
			logger.Info("[DeepgramAPI] Transcribed audio", zap.Int("transcription.length", len(transcription)))
			span.AddEvent("Transcription successful", trace.WithAttributes(attribute.Int("transcription.length", len(transcription))))
			return transcription, nil
		}
	}

	logger.Warn("[DeepgramAPI] No transcription found in response")
	span.AddEvent("No transcription found in Deepgram response")
	return "", fmt.Errorf("%w: no transcription found in response", interview.ErrTranscription)
}
