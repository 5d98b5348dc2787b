package pollyapi

import (
	"context"
	"fmt"
	"io"

	"celerdev/interview"
	"celerdev/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// SynthesizeSpeechAPI is the subset of the Polly client used here.
type SynthesizeSpeechAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type PollyConnectProps struct {
	Logger          *logger.LogMiddleware
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	MaxWorkers      int
}

type Polly struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	client    SynthesizeSpeechAPI
}

// Connect loads the default AWS config chain. Static keys, when both are
// given, take precedence over the chain.
func Connect(ctx context.Context, args PollyConnectProps) (*Polly, error) {
	tracer := otel.Tracer("pollyapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(args.Region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if args.AccessKeyID != "" && args.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(args.AccessKeyID, args.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	span.SetAttributes(attribute.String("region", args.Region))
	args.Logger.Logger(ctx).Info("[PollyAPI] Client configured", zap.String("region", args.Region))

	return New(args.Logger, polly.NewFromConfig(cfg), args.MaxWorkers), nil
}

// New wraps an existing client.
func New(l *logger.LogMiddleware, client SynthesizeSpeechAPI, maxWorkers int) *Polly {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Polly{logger: l, semaphore: semaphore.NewWeighted(int64(maxWorkers)), client: client}
}

func (p *Polly) Synthesize(ctx context.Context, req interview.SpeechRequest) ([]byte, error) {
	tracer := otel.Tracer("pollyapi/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	span.SetAttributes(attribute.String("voice", req.VoiceID))

	if err := p.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer p.semaphore.Release(1)

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       types.EngineNeural,
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(req.SSML),
		TextType:     types.TextTypeSsml,
		VoiceId:      types.VoiceId(req.VoiceID),
	})
	if err != nil {
		span.RecordError(err)
		p.logger.Logger(ctx).Error("[PollyAPI] SynthesizeSpeech failed", zap.Error(err), zap.String("voice", req.VoiceID))
		return nil, fmt.Errorf("%w: %w", interview.ErrSpeech, err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: read audio stream: %w", interview.ErrSpeech, err)
	}

	p.logger.Logger(ctx).Info("[PollyAPI] Generated speech", zap.Int("audioSize", len(audio)))
	return audio, nil
}
