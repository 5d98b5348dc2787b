package api

import (
	"encoding/base64"
	"strings"

	"celerdev/interview"
)

// Wire action names.
const (
	actionGenerateInstruction = "generateInstruction"
	actionRefineInstruction   = "refineInstruction"
	actionSync                = "sync"
	actionFetch               = "fetch"
	actionSyncStats           = "syncStats"
	actionFetchStats          = "fetchStats"
	actionFetchHistory        = "fetchHistory"
	actionGetSpeech           = "getSpeech"
	actionFixGrammar          = "fixGrammar"
	actionTranscribe          = "transcribe"
	actionConverse            = "converse"
)

// Request is the union of every field any action reads. Unused fields are
// ignored by the action that does not need them.
type Request struct {
	Action    string `json:"action"`
	UserID    string `json:"userID"`
	SessionID string `json:"sessionID"`

	Message           string              `json:"message"`
	History           []interview.Message `json:"history"`
	InterviewMode     string              `json:"interviewMode"`
	SystemInstruction string              `json:"systemInstruction"`
	QuestionSet       string              `json:"questionSet"`

	Payload interview.Profile `json:"payload"`
	Stats   interview.Profile `json:"stats"`

	Text   string  `json:"text"`
	Region string  `json:"region"`
	Gender string  `json:"gender"`
	Speed  float64 `json:"speed"`

	Audio    string `json:"audio"`
	MimeType string `json:"mimeType"`
	Correct  bool   `json:"correct"`

	interview.InstructionCard
}

// Action is the closed set of operations the dispatcher can run.
type Action interface {
	isAction()
}

type GenerateInstruction struct {
	Card interview.InstructionCard
}

type RefineInstruction struct {
	Instruction string
}

type SyncProfile struct {
	UserID interview.UserID
	Field  interview.ProfileField
	Blob   interview.Profile
}

type FetchProfile struct {
	UserID interview.UserID
	Field  interview.ProfileField
}

type FetchHistory struct {
	SessionID interview.SessionID
}

type SynthesizeSpeech struct {
	Text   string
	Region string
	Gender string
	Speed  float64
}

type CorrectTranscript struct {
	Text string
}

type TranscribeAudio struct {
	Audio    []byte
	MimeType string
	Correct  bool
}

type Converse struct {
	Input interview.ConverseInput
}

func (GenerateInstruction) isAction() {}
func (RefineInstruction) isAction()   {}
func (SyncProfile) isAction()         {}
func (FetchProfile) isAction()        {}
func (FetchHistory) isAction()        {}
func (SynthesizeSpeech) isAction()    {}
func (CorrectTranscript) isAction()   {}
func (TranscribeAudio) isAction()     {}
func (Converse) isAction()            {}

// IdentityPolicy resolves missing user and session identifiers.
type IdentityPolicy struct {
	RequireIDs       bool
	DefaultUserID    string
	DefaultSessionID string
}

// Parsed is a resolved action plus whether an identifier fallback was used.
type Parsed struct {
	Action   Action
	Fallback bool
}

func (p IdentityPolicy) userID(raw string) (interview.UserID, bool, error) {
	if id := strings.TrimSpace(raw); id != "" {
		return interview.UserID(id), false, nil
	}
	if p.RequireIDs {
		return "", false, invalid("userID is required.")
	}
	return interview.UserID(p.DefaultUserID), true, nil
}

func (p IdentityPolicy) sessionID(raw string) (interview.SessionID, bool, error) {
	if id := strings.TrimSpace(raw); id != "" {
		return interview.SessionID(id), false, nil
	}
	if p.RequireIDs {
		return "", false, invalid("sessionID is required.")
	}
	return interview.SessionID(p.DefaultSessionID), true, nil
}

// ParseAction maps a request to exactly one action. An empty action with a
// message is a conversational turn; any other unknown action is rejected.
func ParseAction(req Request, ids IdentityPolicy) (Parsed, error) {
	switch req.Action {
	case actionGenerateInstruction:
		return Parsed{Action: GenerateInstruction{Card: req.InstructionCard}}, nil

	case actionRefineInstruction:
		return Parsed{Action: RefineInstruction{Instruction: req.SystemInstruction}}, nil

	case actionSync, actionSyncStats:
		uid, fallback, err := ids.userID(req.UserID)
		if err != nil {
			return Parsed{}, err
		}
		a := SyncProfile{UserID: uid, Field: interview.FieldPayload, Blob: req.Payload}
		if req.Action == actionSyncStats {
			a.Field, a.Blob = interview.FieldStats, req.Stats
		}
		return Parsed{Action: a, Fallback: fallback}, nil

	case actionFetch, actionFetchStats:
		uid, fallback, err := ids.userID(req.UserID)
		if err != nil {
			return Parsed{}, err
		}
		a := FetchProfile{UserID: uid, Field: interview.FieldPayload}
		if req.Action == actionFetchStats {
			a.Field = interview.FieldStats
		}
		return Parsed{Action: a, Fallback: fallback}, nil

	case actionFetchHistory:
		sid, fallback, err := ids.sessionID(req.SessionID)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Action: FetchHistory{SessionID: sid}, Fallback: fallback}, nil

	case actionGetSpeech:
		return Parsed{Action: SynthesizeSpeech{
			Text:   req.Text,
			Region: req.Region,
			Gender: req.Gender,
			Speed:  req.Speed,
		}}, nil

	case actionFixGrammar:
		return Parsed{Action: CorrectTranscript{Text: req.Text}}, nil

	case actionTranscribe:
		audio, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			return Parsed{}, invalid("audio must be base64 encoded.")
		}
		return Parsed{Action: TranscribeAudio{Audio: audio, MimeType: req.MimeType, Correct: req.Correct}}, nil

	case "", actionConverse:
		if strings.TrimSpace(req.Message) == "" {
			return Parsed{}, invalid("No message received.")
		}
		sid, fallback, err := ids.sessionID(req.SessionID)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Action: Converse{Input: interview.ConverseInput{
			SessionID:         sid,
			Message:           req.Message,
			History:           req.History,
			Mode:              interview.ParseMode(req.InterviewMode),
			SystemInstruction: req.SystemInstruction,
			QuestionSet:       req.QuestionSet,
		}}, Fallback: fallback}, nil

	default:
		return Parsed{}, invalid("Unknown action: " + req.Action)
	}
}
