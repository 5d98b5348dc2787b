// Package interview holds the session orchestration and prompt composition
// engine of the interview coach: mode selection, instruction composition,
// transcript normalization and the operations behind every action.
package interview

import (
	"errors"
	"time"
)

type SessionID string
type UserID string

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one caller-supplied entry of the conversation so far.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Turn is one persisted user/agent exchange. Never mutated once appended.
type Turn struct {
	UserSaid  string    `json:"userSaid"`
	AISaid    string    `json:"aiSaid"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile is an opaque, caller-defined blob persisted per user.
type Profile = map[string]any

// ProfileField names the top-level key a profile blob lives under.
type ProfileField string

const (
	FieldPayload ProfileField = "payload"
	FieldStats   ProfileField = "stats"
)

// InstructionCard is the profile used to generate a custom system instruction.
type InstructionCard struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CompanyName    string `json:"companyName"`
	CompanySummary string `json:"companySummary"`
	CVText         string `json:"cvText"`
	JobDescription string `json:"jobDescription"`
	ContextText    string `json:"contextText"`
}

// InstructionBundle is everything the composer needs for one turn.
type InstructionBundle struct {
	BasePersona   string
	ModeDirective string
	QuestionSet   string
}

// InstructionResult is the structured result of instruction generation/refinement.
type InstructionResult struct {
	SystemInstruction string `json:"system_instruction"`
	QuestionSet       string `json:"question_set"`
}

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUpstreamModel      = errors.New("upstream model error")
	ErrMissingCredentials = errors.New("missing model credentials")
	ErrStorage            = errors.New("storage error")
	ErrSpeech             = errors.New("speech synthesis error")
	ErrTranscription      = errors.New("transcription error")
)
