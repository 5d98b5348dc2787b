package deepgramapi

import (
	"context"
	"os"
	"testing"
	"time"

	"celerdev/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConnectWithoutKeyDisablesTranscription(t *testing.T) {
	d := Connect(context.Background(), DeepgramConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t))})
	assert.Nil(t, d)
}

func TestTranscribe(t *testing.T) {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	samplePath := os.Getenv("DEEPGRAM_TEST_AUDIO")
	if apiKey == "" || samplePath == "" {
		t.Skip("DEEPGRAM_API_KEY or DEEPGRAM_TEST_AUDIO not set, skipping test")
	}

	audio, err := os.ReadFile(samplePath)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	d := Connect(ctx, DeepgramConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: apiKey})
	require.NotNil(t, d)

	text, err := d.Transcribe(ctx, audio, "audio/wav")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
