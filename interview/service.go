package interview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultHistoryLimit is also the ceiling; larger HistoryLimit values are clamped.
	DefaultHistoryLimit = 20

	// ErrorMarker prefixes the reply when the model fails mid-conversation so
	// the voice UI reads the failure aloud instead of going silent.
	ErrorMarker = "⚠️ PRO ERROR: "
)

type ServiceProps struct {
	Logger       *logger.LogMiddleware
	Model        Model
	Speech       SpeechSynthesizer
	Transcriber  Transcriber
	Transcripts  TranscriptStore
	Profiles     ProfileStore
	HistoryLimit int
}

type Service struct {
	logger       *logger.LogMiddleware
	model        Model
	speech       SpeechSynthesizer
	transcriber  Transcriber
	transcripts  TranscriptStore
	profiles     ProfileStore
	historyLimit int
	now          func() time.Time
}

func New(args ServiceProps) *Service {
	limit := args.HistoryLimit
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return &Service{
		logger:       args.Logger,
		model:        args.Model,
		speech:       args.Speech,
		transcriber:  args.Transcriber,
		transcripts:  args.Transcripts,
		profiles:     args.Profiles,
		historyLimit: limit,
		now:          time.Now,
	}
}

// WithClock replaces the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) TranscriptionEnabled() bool {
	return s.transcriber != nil
}

type ConverseInput struct {
	SessionID         SessionID
	Message           string
	History           []Message
	Mode              Mode
	SystemInstruction string
	QuestionSet       string
}

type ConverseOutput struct {
	Text     string
	Degraded bool
	Recorded bool
}

// Converse runs one conversational turn. It never fails: a model error is
// turned into a visible reply, and a persistence error is only logged.
func (s *Service) Converse(ctx context.Context, in ConverseInput) ConverseOutput {
	tracer := otel.Tracer("interview/Converse")
	ctx, span := tracer.Start(ctx, "Converse")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", string(in.SessionID)),
		attribute.String("mode", string(in.Mode)),
		attribute.Int("history.length", len(in.History)),
	)

	out := s.produceReply(ctx, in)
	out.Recorded = s.recordTurn(ctx, in.SessionID, Turn{
		UserSaid:  in.Message,
		AISaid:    out.Text,
		Timestamp: s.now(),
	})
	return out
}

func (s *Service) produceReply(ctx context.Context, in ConverseInput) ConverseOutput {
	log := s.logger.Logger(ctx).With(
		zap.String("session_id", string(in.SessionID)),
		zap.String("mode", string(in.Mode)),
	)

	directive := SelectMode(in.Mode)
	instruction := ComposeInstruction(InstructionBundle{
		BasePersona:   in.SystemInstruction,
		ModeDirective: directive.Text,
		QuestionSet:   in.QuestionSet,
	})
	history := NormalizeHistory(in.History)

	reply, err := s.model.Chat(ctx, instruction, history, in.Message)
	if err != nil {
		log.Error("[Interview] Model call failed, returning fallback text", zap.Error(err))
		return ConverseOutput{Text: StripMarkup(ErrorMarker + err.Error()), Degraded: true}
	}

	log.Info("[Interview] Turn produced", zap.Int("reply.length", len(reply)))
	return ConverseOutput{Text: normalizeText(StripMarkup(reply))}
}

// recordTurn is best effort: the write outlives client cancellation and its
// failure never reaches the caller.
func (s *Service) recordTurn(ctx context.Context, sessionID SessionID, turn Turn) bool {
	ctx = context.WithoutCancel(ctx)
	if err := s.transcripts.AppendTurn(ctx, sessionID, turn); err != nil {
		s.logger.Logger(ctx).Error("[Interview] Could not persist turn",
			zap.Error(err),
			zap.String("session_id", string(sessionID)))
		return false
	}
	return true
}

// History returns up to the configured limit of most recent turns, oldest first.
func (s *Service) History(ctx context.Context, sessionID SessionID) ([]Turn, error) {
	tracer := otel.Tracer("interview/History")
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	turns, err := s.transcripts.RecentTurns(ctx, sessionID, s.historyLimit)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] History fetch failed", zap.Error(err), zap.String("session_id", string(sessionID)))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(turns) > s.historyLimit {
		turns = turns[:s.historyLimit]
	}

	out := slices.Clone(turns)
	slices.Reverse(out)
	if out == nil {
		out = []Turn{}
	}
	return out, nil
}

func (s *Service) SyncProfile(ctx context.Context, userID UserID, field ProfileField, blob Profile) error {
	tracer := otel.Tracer("interview/SyncProfile")
	ctx, span := tracer.Start(ctx, "SyncProfile")
	defer span.End()

	span.SetAttributes(attribute.String("field", string(field)))

	if blob == nil {
		blob = Profile{}
	}
	if err := s.profiles.MergeProfile(ctx, userID, field, blob, s.now()); err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Profile sync failed", zap.Error(err), zap.String("user_id", string(userID)))
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// FetchProfile returns the stored blob or an empty one.
func (s *Service) FetchProfile(ctx context.Context, userID UserID, field ProfileField) (Profile, error) {
	tracer := otel.Tracer("interview/FetchProfile")
	ctx, span := tracer.Start(ctx, "FetchProfile")
	defer span.End()

	blob, err := s.profiles.GetProfile(ctx, userID, field)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Profile fetch failed", zap.Error(err), zap.String("user_id", string(userID)))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if blob == nil {
		return Profile{}, nil
	}
	return blob, nil
}

func (s *Service) GenerateInstruction(ctx context.Context, card InstructionCard) (InstructionResult, error) {
	tracer := otel.Tracer("interview/GenerateInstruction")
	ctx, span := tracer.Start(ctx, "GenerateInstruction")
	defer span.End()

	raw, err := s.model.Generate(ctx, BuildInstructionPrompt(card))
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Instruction generation failed", zap.Error(err))
		return InstructionResult{}, fmt.Errorf("%w: %w", ErrUpstreamModel, err)
	}
	return InstructionResultFrom(raw), nil
}

func (s *Service) RefineInstruction(ctx context.Context, instruction string) (InstructionResult, error) {
	tracer := otel.Tracer("interview/RefineInstruction")
	ctx, span := tracer.Start(ctx, "RefineInstruction")
	defer span.End()

	raw, err := s.model.Generate(ctx, BuildRefinePrompt(instruction))
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Instruction refinement failed", zap.Error(err))
		return InstructionResult{}, fmt.Errorf("%w: %w", ErrUpstreamModel, err)
	}
	res := InstructionResultFrom(raw)
	return InstructionResult{SystemInstruction: res.SystemInstruction}, nil
}

// CorrectTranscript applies the domain dictionary through the model. The
// original text comes back unchanged when the model fails.
func (s *Service) CorrectTranscript(ctx context.Context, text string) (string, error) {
	tracer := otel.Tracer("interview/CorrectTranscript")
	ctx, span := tracer.Start(ctx, "CorrectTranscript")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	fixed, err := s.model.Generate(ctx, BuildCorrectionPrompt(text))
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Warn("[Interview] Transcript correction failed, returning original", zap.Error(err))
		return text, nil
	}
	fixed = normalizeText(fixed)
	if fixed == "" {
		return text, nil
	}
	return fixed, nil
}

func (s *Service) Synthesize(ctx context.Context, text, region, gender string, speed float64) ([]byte, error) {
	tracer := otel.Tracer("interview/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if s.speech == nil {
		return nil, fmt.Errorf("%w: no speech provider configured", ErrSpeech)
	}

	req := BuildSpeechRequest(text, region, gender, speed)
	span.SetAttributes(attribute.String("voice_id", req.VoiceID))

	audio, err := s.speech.Synthesize(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Speech synthesis failed", zap.Error(err), zap.String("voice_id", req.VoiceID))
		return nil, wrapAs(ErrSpeech, err)
	}
	return audio, nil
}

// Transcribe converts recorded audio to text and optionally runs the
// transcript correction over it.
func (s *Service) Transcribe(ctx context.Context, audio []byte, mimeType string, correct bool) (string, error) {
	tracer := otel.Tracer("interview/Transcribe")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	if s.transcriber == nil {
		return "", fmt.Errorf("%w: transcription is not enabled", ErrInvalidRequest)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: audio is required", ErrInvalidRequest)
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Interview] Transcription failed", zap.Error(err))
		return "", wrapAs(ErrTranscription, err)
	}
	text = normalizeText(text)
	if !correct || text == "" {
		return text, nil
	}
	return s.CorrectTranscript(ctx, text)
}

// wrapAs tags err with kind unless an adapter already did.
func wrapAs(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
