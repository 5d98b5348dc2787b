package interview_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"celerdev/database/memory"
	"celerdev/interview"
	"celerdev/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedModel struct {
	chatReply string
	generated string
	err       error
	prompts   []string
}

func (m *scriptedModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.generated, m.err
}

func (m *scriptedModel) Chat(_ context.Context, _ string, _ []interview.Message, _ string) (string, error) {
	return m.chatReply, m.err
}

type cancelAwareStore struct {
	*memory.Store
	sawCancelled bool
}

func (s *cancelAwareStore) AppendTurn(ctx context.Context, sid interview.SessionID, turn interview.Turn) error {
	if ctx.Err() != nil {
		s.sawCancelled = true
	}
	return s.Store.AppendTurn(ctx, sid, turn)
}

func newService(t *testing.T, model interview.Model, store *memory.Store) *interview.Service {
	t.Helper()
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return interview.New(interview.ServiceProps{
		Logger:      logger.FromZap(zaptest.NewLogger(t)),
		Model:       model,
		Transcripts: store,
		Profiles:    store,
	}).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
}

func TestConverseRecordsEvenWhenClientCancelled(t *testing.T) {
	store := &cancelAwareStore{Store: memory.NewStore()}
	svc := interview.New(interview.ServiceProps{
		Logger:      logger.FromZap(zaptest.NewLogger(t)),
		Model:       &scriptedModel{chatReply: "Next question."},
		Transcripts: store,
		Profiles:    store.Store,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := svc.Converse(ctx, interview.ConverseInput{SessionID: "s", Message: "hi"})
	assert.True(t, out.Recorded)
	assert.False(t, store.sawCancelled)
}

func TestConverseDegradedOnMissingCredentials(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, &scriptedModel{err: interview.ErrMissingCredentials}, store)

	out := svc.Converse(context.Background(), interview.ConverseInput{SessionID: "s", Message: "hi"})
	assert.True(t, out.Degraded)
	assert.True(t, out.Recorded)
	assert.Equal(t, interview.ErrorMarker+interview.ErrMissingCredentials.Error(), out.Text)
}

func TestHistoryLimitAndOrder(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, &scriptedModel{chatReply: "ok"}, store)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		svc.Converse(ctx, interview.ConverseInput{SessionID: "s", Message: fmt.Sprintf("m%02d", i)})
	}

	turns, err := svc.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, turns, interview.DefaultHistoryLimit)
	assert.Equal(t, "m05", turns[0].UserSaid)
	assert.Equal(t, "m24", turns[19].UserSaid)
	for i := 1; i < len(turns); i++ {
		assert.True(t, turns[i-1].Timestamp.Before(turns[i].Timestamp))
	}

	empty, err := svc.History(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSyncFetchProfile(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, &scriptedModel{}, store)
	ctx := context.Background()

	require.NoError(t, svc.SyncProfile(ctx, "u", interview.FieldPayload, interview.Profile{"a": 1}))
	require.NoError(t, svc.SyncProfile(ctx, "u", interview.FieldPayload, interview.Profile{"b": 2}))

	got, err := svc.FetchProfile(ctx, "u", interview.FieldPayload)
	require.NoError(t, err)
	assert.Equal(t, interview.Profile{"a": 1, "b": 2}, got)

	_, ok := store.LastUpdated("u", interview.FieldPayload)
	assert.True(t, ok)

	missing, err := svc.FetchProfile(ctx, "u", interview.FieldStats)
	require.NoError(t, err)
	assert.Equal(t, interview.Profile{}, missing)
}

func TestGenerateAndRefineInstruction(t *testing.T) {
	model := &scriptedModel{generated: `{"system_instruction": "Be sharp.", "question_set": "Q1"}`}
	svc := newService(t, model, memory.NewStore())
	ctx := context.Background()

	res, err := svc.GenerateInstruction(ctx, interview.InstructionCard{Name: "Card"})
	require.NoError(t, err)
	assert.Equal(t, interview.InstructionResult{SystemInstruction: "Be sharp.", QuestionSet: "Q1"}, res)

	res, err = svc.RefineInstruction(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, interview.InstructionResult{SystemInstruction: "Be sharp."}, res)

	model.err = errors.New("boom")
	_, err = svc.GenerateInstruction(ctx, interview.InstructionCard{})
	assert.ErrorIs(t, err, interview.ErrUpstreamModel)
}

func TestCorrectTranscript(t *testing.T) {
	model := &scriptedModel{generated: "  We used Kafka.  "}
	svc := newService(t, model, memory.NewStore())
	ctx := context.Background()

	fixed, err := svc.CorrectTranscript(ctx, "we used cafka")
	require.NoError(t, err)
	assert.Equal(t, "We used Kafka.", fixed)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "we used cafka")

	model.err = errors.New("down")
	fixed, err = svc.CorrectTranscript(ctx, "we used cafka")
	require.NoError(t, err)
	assert.Equal(t, "we used cafka", fixed)

	_, err = svc.CorrectTranscript(ctx, " ")
	assert.ErrorIs(t, err, interview.ErrInvalidRequest)
}

func TestSynthesizeWithoutProvider(t *testing.T) {
	svc := newService(t, &scriptedModel{}, memory.NewStore())
	_, err := svc.Synthesize(context.Background(), "hello", "en-US", "female", 1)
	assert.ErrorIs(t, err, interview.ErrSpeech)
	assert.False(t, svc.TranscriptionEnabled())
}

func TestHistoryLimitCannotExceedTwenty(t *testing.T) {
	store := memory.NewStore()
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := interview.New(interview.ServiceProps{
		Logger:       logger.FromZap(zaptest.NewLogger(t)),
		Model:        &scriptedModel{chatReply: "ok"},
		Transcripts:  store,
		Profiles:     store,
		HistoryLimit: 50,
	}).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		svc.Converse(ctx, interview.ConverseInput{SessionID: "s", Message: fmt.Sprintf("m%02d", i)})
	}

	turns, err := svc.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, turns, interview.DefaultHistoryLimit)
	assert.Equal(t, "m10", turns[0].UserSaid)
	assert.Equal(t, "m29", turns[19].UserSaid)
}
