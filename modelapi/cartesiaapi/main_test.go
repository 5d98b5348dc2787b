package cartesiaapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"celerdev/interview"
	"celerdev/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildRequestVoiceAndSpeed(t *testing.T) {
	r := buildRequest(interview.SpeechRequest{Text: "hello", Gender: "male", Speed: 1.2})
	assert.Equal(t, MALE_VOICE, r.Voice.ID)
	require.NotNil(t, r.Voice.Controls)
	assert.InDelta(t, 0.2, r.Voice.Controls.Speed, 1e-9)

	r = buildRequest(interview.SpeechRequest{Text: "hello", Gender: "female", Speed: 1})
	assert.Equal(t, FEMALE_VOICE, r.Voice.ID)
	assert.Nil(t, r.Voice.Controls)
	assert.Equal(t, "mp3", r.OutputFormat.Container)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		var body TTSRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Tell me about yourself.", body.Transcript)
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	c := Connect(context.Background(), CartesiaConnectProps{
		Logger:  logger.FromZap(zaptest.NewLogger(t)),
		APIKey:  "key",
		BaseURL: srv.URL,
	})

	audio, err := c.Synthesize(context.Background(), interview.SpeechRequest{Text: "Tell me about yourself."})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio)
}

func TestSynthesizeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := Connect(context.Background(), CartesiaConnectProps{
		Logger:  logger.FromZap(zaptest.NewLogger(t)),
		APIKey:  "key",
		BaseURL: srv.URL,
	})

	_, err := c.Synthesize(context.Background(), interview.SpeechRequest{Text: "hi"})
	assert.ErrorIs(t, err, interview.ErrSpeech)
}

func TestSynthesizeWithoutKey(t *testing.T) {
	c := Connect(context.Background(), CartesiaConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t))})
	_, err := c.Synthesize(context.Background(), interview.SpeechRequest{Text: "hi"})
	assert.ErrorIs(t, err, interview.ErrSpeech)
}
