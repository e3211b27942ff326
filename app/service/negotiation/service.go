package negotiation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"negosim/app/client/oracle"
	"negosim/app/config"
	"negosim/app/service/deal"
	"negosim/app/service/session"
	"negosim/app/service/terms"

	_ "embed"

	"github.com/google/uuid"
	"github.com/samber/do"
)

//go:embed negotiation_prompt.txt
var negotiationPromptTemplate string

// Only the most recent exchanges go into the reply prompt.
const promptHistoryWindow = 6

type Service struct {
	cfg       *config.Config
	store     session.Store
	extractor terms.Extractor

	replyClient    *oracle.Client
	evaluateClient *oracle.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	store := do.MustInvoke[session.Store](di)

	var extractor terms.Extractor
	if cfg.Extractor.Strategy == "oracle" {
		extractor = terms.NewOracleExtractor(oracle.NewClient(cfg.OpenAI.Extract))
	} else {
		extractor = terms.NewPatternExtractor()
	}

	return &Service{
		cfg:            cfg,
		store:          store,
		extractor:      extractor,
		replyClient:    oracle.NewClient(cfg.OpenAI.Reply),
		evaluateClient: oracle.NewClient(cfg.OpenAI.Evaluate),
		locks:          make(map[string]*sync.Mutex),
	}, nil
}

// StartSession generates the hidden parameters (deterministic when a
// student id is given), seeds the greeting and persists the session.
func (s *Service) StartSession(ctx context.Context, studentID string) (*session.Session, error) {
	params := deal.Generate(studentID)

	sess := &session.Session{
		ID:         uuid.NewString(),
		Params:     params,
		ParamsText: params.Format(),
		CreatedAt:  time.Now().UTC(),
	}
	sess.Append(session.RoleAssistant, greeting(params))

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	slog.Info("Session started", "session_id", sess.ID, "student_id", studentID)

	return sess, nil
}

// Chat runs one synchronous negotiation turn: extract terms, check
// readiness, compute the mandated move, get the visible reply from the
// oracle and persist both messages. Turns on one session are
// serialized; concurrent turns on different sessions are independent.
func (s *Service) Chat(ctx context.Context, sessionID, userInput string) (*TurnResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Append(session.RoleUser, userInput)

	extracted := s.extractor.Extract(ctx, userInput)
	ready, closing := Readiness(sess.History, extracted)
	guidance := s.turnGuidance(userInput, sess, extracted, ready, closing)

	slog.Debug("Turn guidance computed",
		"session_id", sessionID,
		"rule", guidance.Rule,
		"deal_ready", ready)

	reply := s.reply(ctx, userInput, sess, guidance)
	sess.Append(session.RoleAssistant, reply)

	if err = s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	result := &TurnResult{
		Reply:     reply,
		DealReady: ready,
	}
	if ready {
		result.Terms = closing
	}

	return result, nil
}

// turnGuidance never fails: any panic inside the decision table
// degrades to a generic instruction instead of failing the turn.
func (s *Service) turnGuidance(
	userInput string,
	sess *session.Session,
	extracted terms.Terms,
	ready bool,
	closing *ClosingTerms,
) (guidance Guidance) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Guidance computation failed", "error", r, "telegram", true)
			guidance = Guidance{Rule: "fallback", Instruction: fallbackInstruction}
		}
	}()

	if ready {
		return ConfirmDeal(*closing)
	}

	return NextMove(userInput, sess.History, extracted, sess.ParamsText)
}

func (s *Service) reply(ctx context.Context, userInput string, sess *session.Session, guidance Guidance) string {
	prompt := renderTemplate(negotiationPromptTemplate, map[string]any{
		"deal_parameters":      sess.ParamsText,
		"conversation_history": formatHistory(recentHistory(sess.History), titleRole),
		"user_input":           userInput,
		"turn_guidance":        guidance.Instruction,
	})

	text, err := s.replyClient.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Error("Reply oracle failed", "session_id", sess.ID, "error", err, "telegram", true)
		return errorReply(err)
	}

	return oracle.Sanitize(text)
}

// errorReply is the degraded visible reply when the oracle call fails.
// Truncation counts runes so a multi-byte character is never split.
func errorReply(err error) string {
	msg := []rune(err.Error())
	if len(msg) > 50 {
		msg = msg[:50]
	}

	return "Error: " + string(msg)
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}

	return lock
}

func recentHistory(history []session.Message) []session.Message {
	if len(history) > promptHistoryWindow {
		return history[len(history)-promptHistoryWindow:]
	}

	return history
}

func formatHistory(history []session.Message, role func(string) string) string {
	var builder strings.Builder

	for _, msg := range history {
		builder.WriteString(fmt.Sprintf("%s: %s\n", role(msg.Role), msg.Content))
	}

	return strings.TrimRight(builder.String(), "\n")
}

func titleRole(role string) string {
	if role == "" {
		return "Unknown"
	}

	return strings.ToUpper(role[:1]) + role[1:]
}

func renderTemplate(template string, values map[string]any) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{"+key+"}", fmt.Sprint(value))
	}

	return template
}

func greeting(params deal.Parameters) string {
	return fmt.Sprintf(
		"Hello! I'm Alex from ChipSource Inc. We are looking to sell our CS-1000 chips. "+
			"Our standard opening is $%s per unit with %d-day delivery. What works for you?",
		formatPrice(params.Price.Opening), params.Delivery.Opening)
}
