package interview

import (
	"context"
	"time"
)

// Model is the generative text model.
type Model interface {
	// Generate runs a single stateless prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat seeds a chat with history under systemInstruction and sends message.
	Chat(ctx context.Context, systemInstruction string, history []Message, message string) (string, error)
}

// SpeechRequest carries both the SSML and plain renditions so providers
// without SSML support can use the text.
type SpeechRequest struct {
	SSML    string
	Text    string
	VoiceID string
	Gender  string
	Speed   float64
	Format  string
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// TranscriptStore is the append-only per-session log of turns.
type TranscriptStore interface {
	AppendTurn(ctx context.Context, sessionID SessionID, turn Turn) error
	// RecentTurns returns at most limit turns, newest first.
	RecentTurns(ctx context.Context, sessionID SessionID, limit int) ([]Turn, error)
}

// ProfileStore persists one merged blob per (user, field).
type ProfileStore interface {
	MergeProfile(ctx context.Context, userID UserID, field ProfileField, blob Profile, updatedAt time.Time) error
	// GetProfile returns nil, nil when nothing was stored yet.
	GetProfile(ctx context.Context, userID UserID, field ProfileField) (Profile, error)
}
