package session

import (
	"context"
	"errors"
	"time"

	"negosim/app/service/deal"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session owns one set of deal parameters and the append-only
// conversation history of a single negotiation.
type Session struct {
	ID         string          `json:"session_id"`
	Params     deal.Parameters `json:"deal_params"`
	ParamsText string          `json:"deal_params_str"`
	History    []Message       `json:"conversation"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (s *Session) Append(role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

var ErrNotFound = errors.New("session not found")

// Store persists sessions. Get returns ErrNotFound for unknown ids,
// the one failure the API surfaces as a hard error.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
}
