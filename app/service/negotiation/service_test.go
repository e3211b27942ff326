package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"negosim/app/client/oracle"
	"negosim/app/config"
	"negosim/app/service/session"
	"negosim/app/service/terms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOracle serves openai-shaped chat completions with a fixed reply
// and records the last prompt it received.
type fakeOracle struct {
	mu         sync.Mutex
	reply      string
	fail       bool
	lastPrompt string
}

func (f *fakeOracle) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		if len(req.Messages) > 0 {
			f.lastPrompt = req.Messages[0].Content
		}
		fail := f.fail
		reply := f.reply
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}
}

func (f *fakeOracle) prompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

func newTestService(t *testing.T, fake *fakeOracle) *Service {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	modelCfg := config.ModelConfig{
		BaseURL: srv.URL + "/v1",
		Token:   "test-token",
		Model:   "test-model",
	}

	return &Service{
		cfg:            &config.Config{},
		store:          session.NewMemoryStore(),
		extractor:      terms.NewPatternExtractor(),
		replyClient:    oracle.NewClient(modelCfg),
		evaluateClient: oracle.NewClient(modelCfg),
		locks:          make(map[string]*sync.Mutex),
	}
}

func TestStartSessionSeedsGreeting(t *testing.T) {
	svc := newTestService(t, &fakeOracle{reply: "ok"})

	sess, err := svc.StartSession(context.Background(), "student-1")
	require.NoError(t, err)

	require.Len(t, sess.History, 1)
	assert.Equal(t, session.RoleAssistant, sess.History[0].Role)
	assert.Contains(t, sess.History[0].Content, "Alex from ChipSource Inc.")
	assert.Contains(t, sess.ParamsText, "NEGOTIATION DATA")

	// Same student id reproduces the same scenario.
	again, err := svc.StartSession(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Params, again.Params)
	assert.NotEqual(t, sess.ID, again.ID)
}

func TestChatTurn(t *testing.T) {
	fake := &fakeOracle{reply: "I can meet you at $394 with 30 days delivery."}
	svc := newTestService(t, fake)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "student-1")
	require.NoError(t, err)

	result, err := svc.Chat(ctx, sess.ID, "I can pay $340 for 1000 units")
	require.NoError(t, err)

	assert.Equal(t, "I can meet you at $394 with 30 days delivery.", result.Reply)
	assert.False(t, result.DealReady)

	// The mandated move is injected into the oracle prompt.
	assert.Contains(t, fake.prompt(), "COMMAND FROM HEADQUARTERS")
	assert.Contains(t, fake.prompt(), "I can pay $340 for 1000 units")

	stored, err := svc.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 3)
	assert.Equal(t, session.RoleUser, stored.History[1].Role)
	assert.Equal(t, session.RoleAssistant, stored.History[2].Role)
}

func TestChatDetectsDeal(t *testing.T) {
	fake := &fakeOracle{reply: "Confirmed: $390 with 20 days delivery."}
	svc := newTestService(t, fake)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "student-2")
	require.NoError(t, err)

	sess, err = svc.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	sess.Append(session.RoleUser, "Can you do better?")
	sess.Append(session.RoleAssistant, "I can do $390 with 20 days delivery.")
	require.NoError(t, svc.store.Put(ctx, sess))

	result, err := svc.Chat(ctx, sess.ID, "Deal, works for me.")
	require.NoError(t, err)

	assert.True(t, result.DealReady)
	require.NotNil(t, result.Terms)
	assert.Equal(t, 390.0, result.Terms.Price)
	assert.Equal(t, 20, result.Terms.Delivery)
	assert.Contains(t, fake.prompt(), "DEAL DETECTED")
}

func TestChatUnknownSession(t *testing.T) {
	svc := newTestService(t, &fakeOracle{reply: "ok"})

	_, err := svc.Chat(context.Background(), "no-such-session", "hello")

	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestChatOracleFailureDegrades(t *testing.T) {
	fake := &fakeOracle{fail: true}
	svc := newTestService(t, fake)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "student-3")
	require.NoError(t, err)

	result, err := svc.Chat(ctx, sess.ID, "I can pay $340")
	require.NoError(t, err)

	assert.True(t, len(result.Reply) > 0)
	assert.Contains(t, result.Reply, "Error:")

	// The degraded turn is still recorded.
	stored, err := svc.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 3)
}

func TestErrorReplyTruncatesOnRuneBoundary(t *testing.T) {
	long := errors.New(strings.Repeat("é", 60))

	got := errorReply(long)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Error: "+strings.Repeat("é", 50), got)

	short := errorReply(errors.New("timeout"))
	assert.Equal(t, "Error: timeout", short)
}

func TestEvaluate(t *testing.T) {
	fake := &fakeOracle{reply: "FINAL EVALUATION REPORT\nOverall Weighted Score: 85/100"}
	svc := newTestService(t, fake)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "student-4")
	require.NoError(t, err)

	report, err := svc.Evaluate(ctx, sess.ID, EvaluationTerms{
		Price:    terms.Float(390),
		Delivery: terms.Int(20),
	})
	require.NoError(t, err)

	assert.Contains(t, report, "FINAL EVALUATION REPORT")
	assert.Contains(t, fake.prompt(), "ACADEMIC EVALUATION RUBRIC")
	assert.Contains(t, fake.prompt(), "Price: $390")
	assert.Contains(t, fake.prompt(), "Volume: N/A units")
}

func TestEvaluateUnknownSession(t *testing.T) {
	svc := newTestService(t, &fakeOracle{reply: "ok"})

	_, err := svc.Evaluate(context.Background(), "missing", EvaluationTerms{})

	assert.ErrorIs(t, err, session.ErrNotFound)
}
