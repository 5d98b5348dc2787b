package openaiapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"celerdev/interview"
	"celerdev/logger"

	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildParamsMapsVoices(t *testing.T) {
	o := Connect(context.Background(), OpenAIConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: "k"})
	p := o.buildParams(interview.SpeechRequest{Text: "hi", VoiceID: "Matthew", Speed: 1.1})
	assert.Equal(t, openai.AudioSpeechNewParamsVoiceOnyx, p.Voice)
	assert.Equal(t, openai.SpeechModelGPT4oMiniTTS, p.Model)
	assert.Equal(t, 1.1, p.Speed.Value)

	di := Connect(context.Background(), OpenAIConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: "k", DeepInfra: true})
	p = di.buildParams(interview.SpeechRequest{Text: "hi", VoiceID: "Amy"})
	assert.Equal(t, openai.SpeechModel(KOKORO_TTS), p.Model)
	assert.Equal(t, openai.AudioSpeechNewParamsVoice("bf_emma"), p.Voice)
}

func TestSynthesizeAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Walk me through a project.", body["input"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3bytes"))
	}))
	defer srv.Close()

	o := Connect(context.Background(), OpenAIConnectProps{
		Logger:  logger.FromZap(zaptest.NewLogger(t)),
		APIKey:  "k",
		BaseURL: srv.URL,
	})
	audio, err := o.Synthesize(context.Background(), interview.SpeechRequest{Text: "Walk me through a project.", VoiceID: "Joanna"})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3bytes"), audio)
}

func TestSynthesizeWithoutKey(t *testing.T) {
	o := Connect(context.Background(), OpenAIConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t))})
	_, err := o.Synthesize(context.Background(), interview.SpeechRequest{Text: "hi"})
	assert.ErrorIs(t, err, interview.ErrSpeech)
}
