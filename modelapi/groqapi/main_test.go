package groqapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"celerdev/interview"
	"celerdev/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages("persona", []interview.Message{
		{Role: interview.RoleUser, Text: "hi"},
		{Role: interview.RoleModel, Text: "hello"},
	}, "ready")

	require.Len(t, msgs, 4)
	assert.Equal(t, ChatCompletionInputMessage{Role: SYSTEM, Content: "persona"}, msgs[0])
	assert.Equal(t, ASSISTANT, msgs[2].Role)
	assert.Equal(t, ChatCompletionInputMessage{Role: USER, Content: "ready"}, msgs[3])
}

func TestChatAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("authorization"))
		var in ChatRequestInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, GROQ_MODEL_NAME, in.Model)
		_ = json.NewEncoder(w).Encode(GroqResponse{Choices: []Choice{{Message: Message{Role: ASSISTANT, Content: "Tell me about a hard bug."}}}})
	}))
	defer srv.Close()

	g := Connect(context.Background(), GroqConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: "key", URL: srv.URL})
	reply, err := g.Chat(context.Background(), "persona", nil, "start")
	require.NoError(t, err)
	assert.Equal(t, "Tell me about a hard bug.", reply)
}

func TestEmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := Connect(context.Background(), GroqConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: "key", URL: srv.URL})
	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
}

func TestMissingKey(t *testing.T) {
	g := Connect(context.Background(), GroqConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t))})
	_, err := g.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, interview.ErrMissingCredentials)
}

func TestGetResponse(t *testing.T) {
	apiKey := os.Getenv("GROQ_SECRET_KEY")
	if apiKey == "" {
		t.Skip("GROQ_SECRET_KEY environment variable not set, skipping test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	groq := Connect(ctx, GroqConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), APIKey: apiKey})

	response, err := groq.Chat(ctx, interview.DefaultPersona, nil, "Hello, how are you?")
	require.NoError(t, err)
	assert.NotEmpty(t, response)
	t.Logf("Response received: %s", response)
}
