package api

import (
	"errors"
	"strings"
	"testing"

	"celerdev/interview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lenient = IdentityPolicy{DefaultUserID: "default_user", DefaultSessionID: "anon"}

func TestParseActionVariants(t *testing.T) {
	cases := []struct {
		action string
		want   Action
	}{
		{"generateInstruction", GenerateInstruction{}},
		{"refineInstruction", RefineInstruction{}},
		{"sync", SyncProfile{UserID: "u", Field: interview.FieldPayload}},
		{"syncStats", SyncProfile{UserID: "u", Field: interview.FieldStats}},
		{"fetch", FetchProfile{UserID: "u", Field: interview.FieldPayload}},
		{"fetchStats", FetchProfile{UserID: "u", Field: interview.FieldStats}},
		{"fetchHistory", FetchHistory{SessionID: "s"}},
		{"getSpeech", SynthesizeSpeech{}},
		{"fixGrammar", CorrectTranscript{}},
		{"transcribe", TranscribeAudio{Audio: []byte{}}},
	}
	for _, tc := range cases {
		t.Run(tc.action, func(t *testing.T) {
			p, err := ParseAction(Request{Action: tc.action, UserID: "u", SessionID: "s"}, lenient)
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Action)
			assert.False(t, p.Fallback)
		})
	}
}

func TestParseActionConverse(t *testing.T) {
	p, err := ParseAction(Request{Message: "hi", InterviewMode: "behavioral"}, lenient)
	require.NoError(t, err)

	c, ok := p.Action.(Converse)
	require.True(t, ok)
	assert.Equal(t, interview.SessionID("anon"), c.Input.SessionID)
	assert.Equal(t, interview.ModeBehavioral, c.Input.Mode)
	assert.True(t, p.Fallback)

	_, err = ParseAction(Request{Action: "converse", Message: "hi", SessionID: "s"}, lenient)
	require.NoError(t, err)
}

func TestParseActionRejects(t *testing.T) {
	_, err := ParseAction(Request{}, lenient)
	assert.True(t, errors.Is(err, interview.ErrInvalidRequest))
	assert.Equal(t, "No message received.", err.Error())

	_, err = ParseAction(Request{Action: "unknown", Message: "hi"}, lenient)
	assert.ErrorIs(t, err, interview.ErrInvalidRequest)
}

func TestParseActionRequireIDs(t *testing.T) {
	strict := IdentityPolicy{RequireIDs: true}

	_, err := ParseAction(Request{Action: "fetch"}, strict)
	assert.ErrorIs(t, err, interview.ErrInvalidRequest)

	_, err = ParseAction(Request{Message: "hi"}, strict)
	assert.ErrorIs(t, err, interview.ErrInvalidRequest)

	p, err := ParseAction(Request{Action: "fetch", UserID: "u"}, strict)
	require.NoError(t, err)
	assert.Equal(t, FetchProfile{UserID: "u", Field: interview.FieldPayload}, p.Action)
}

func TestDecodeRequestEnvelopes(t *testing.T) {
	wrapped, err := decodeRequest(strings.NewReader(`{"data":{"action":"fetch","userID":"u"}}`))
	require.NoError(t, err)
	bare, err := decodeRequest(strings.NewReader(`{"action":"fetch","userID":"u"}`))
	require.NoError(t, err)
	assert.Equal(t, wrapped, bare)

	empty, err := decodeRequest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Request{}, empty)
}
