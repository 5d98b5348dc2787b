package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"celerdev/api"
	"celerdev/config"
	"celerdev/database/firestore"
	"celerdev/database/memory"
	"celerdev/database/postgres"
	"celerdev/interview"
	"celerdev/logger"
	"celerdev/modelapi/cartesiaapi"
	"celerdev/modelapi/deepgramapi"
	"celerdev/modelapi/geminiapi"
	"celerdev/modelapi/groqapi"
	"celerdev/modelapi/openaiapi"
	"celerdev/modelapi/pollyapi"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"
)

type store interface {
	interview.TranscriptStore
	interview.ProfileStore
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Error loading configuration - %v", err)
	}

	var loggerProvider *sdk.LoggerProvider
	if cfg.Production {
		otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
		if err != nil {
			log.Fatalf("Error setting up OTel SDK - %v", err)
		}
		defer otelShutdown()

		logExporter, err := otlplogs.NewExporter(ctx)
		if err != nil {
			log.Fatalf("Error setting up OTLP log exporter - %v", err)
		}
		loggerProvider = sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))
		defer loggerProvider.Shutdown(context.Background())
	}

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: cfg.Production, LoggerProvider: loggerProvider})
	defer LogMiddleware.Sync()
	Logger := LogMiddleware.Logger(ctx)

	db, err := connectStore(ctx, cfg, LogMiddleware)
	if err != nil {
		Logger.Fatal("[Server] Could not connect storage backend", zap.Error(err), zap.String("backend", cfg.Storage.Backend))
	}
	if c, ok := db.(io.Closer); ok {
		defer c.Close()
	}

	model, err := connectModel(ctx, cfg, LogMiddleware)
	if err != nil {
		Logger.Fatal("[Server] Could not connect model", zap.Error(err))
	}

	speech, err := connectSpeech(ctx, cfg, LogMiddleware)
	if err != nil {
		Logger.Fatal("[Server] Could not connect speech provider", zap.Error(err))
	}

	var transcriber interview.Transcriber
	if dg := deepgramapi.Connect(ctx, deepgramapi.DeepgramConnectProps{Logger: LogMiddleware, APIKey: cfg.Deepgram.APIKey}); dg != nil {
		transcriber = dg
	}

	service := interview.New(interview.ServiceProps{
		Logger:       LogMiddleware,
		Model:        model,
		Speech:       speech,
		Transcriber:  transcriber,
		Transcripts:  db,
		Profiles:     db,
		HistoryLimit: cfg.HistoryLimit,
	})

	handler := api.NewHandler(api.HandlerProps{
		Logger:  LogMiddleware,
		Service: service,
		Identity: api.IdentityPolicy{
			RequireIDs:       cfg.Identity.RequireIDs,
			DefaultUserID:    cfg.Identity.DefaultUserID,
			DefaultSessionID: cfg.Identity.DefaultSessionID,
		},
	})
	router := api.NewRouter(api.RouterProps{Logger: LogMiddleware, Handler: handler, Timeout: cfg.RequestTimeout})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "interviewAgent"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		Logger.Info("[Server] Listening",
			zap.String("addr", srv.Addr),
			zap.Bool("production", cfg.Production),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("model", cfg.ModelProvider),
			zap.String("speech", cfg.Speech.Provider),
			zap.Bool("transcription", service.TranscriptionEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Fatal("[Server] Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	Logger.Info("[Server] Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("[Server] Forced shutdown", zap.Error(err))
	}
}

func connectStore(ctx context.Context, cfg *config.Config, l *logger.LogMiddleware) (store, error) {
	switch cfg.Storage.Backend {
	case config.StorageFirestore:
		return firestore.Connect(ctx, firestore.FirestoreConnectProps{
			Logger:          l,
			ProjectID:       cfg.Storage.GCPProject,
			CredentialsFile: cfg.Storage.CredentialsFile,
		})
	case config.StoragePostgres:
		return postgres.Connect(ctx, postgres.DatabaseConnectProps{Logger: l, DSN: cfg.Storage.Postgres.DSN()})
	case config.StorageMemory:
		l.Logger(ctx).Warn("[Server] Using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func connectModel(ctx context.Context, cfg *config.Config, l *logger.LogMiddleware) (interview.Model, error) {
	switch cfg.ModelProvider {
	case config.ModelGroq:
		return groqapi.Connect(ctx, groqapi.GroqConnectProps{
			Logger:    l,
			APIKey:    cfg.Groq.APIKey,
			ModelName: cfg.Groq.Model,
		}), nil
	case config.ModelGemini:
		return geminiapi.Connect(ctx, geminiapi.GeminiConnectProps{
			Logger:    l,
			APIKey:    cfg.Gemini.Key(),
			ModelName: cfg.Gemini.Model,
		})
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func connectSpeech(ctx context.Context, cfg *config.Config, l *logger.LogMiddleware) (interview.SpeechSynthesizer, error) {
	s := cfg.Speech
	switch s.Provider {
	case config.SpeechOpenAI, config.SpeechDeepInfra:
		key := s.OpenAIKey
		if s.Provider == config.SpeechDeepInfra {
			key = s.DeepInfraKey
		}
		return openaiapi.Connect(ctx, openaiapi.OpenAIConnectProps{
			Logger:     l,
			APIKey:     key,
			MaxWorkers: s.MaxWorkers,
			DeepInfra:  s.Provider == config.SpeechDeepInfra,
		}), nil
	case config.SpeechCartesia:
		return cartesiaapi.Connect(ctx, cartesiaapi.CartesiaConnectProps{
			Logger:     l,
			APIKey:     s.CartesiaKey,
			MaxWorkers: s.MaxWorkers,
		}), nil
	case config.SpeechPolly:
		return pollyapi.Connect(ctx, pollyapi.PollyConnectProps{
			Logger:          l,
			Region:          s.AWSRegion,
			AccessKeyID:     s.AWSAccessKeyID,
			SecretAccessKey: s.AWSSecretAccessKey,
			MaxWorkers:      s.MaxWorkers,
		})
	default:
		return nil, fmt.Errorf("unknown speech provider %q", s.Provider)
	}
}
