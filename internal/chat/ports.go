package chat

import (
	"context"
	"errors"

	"github.com/Vovarama1992/odoo-query-bridge/internal/orchestrator"
)

var ErrSessionNotFound = errors.New("session not found")

// Message: one question/answer exchange within a session.
type Message struct {
	ID        int64
	SessionID string
	Question  string
	Answer    string
	Success   bool
	CreatedAt int64 // unix seconds
}

// Reply: what /chat returns for one question.
type Reply struct {
	SessionID string
	Question  string
	Answer    string
	Outcome   orchestrator.Outcome
}

// Repo: persistence
type Repo interface {
	EnsureSchema(ctx context.Context) error
	CreateSession(ctx context.Context, sessionID string) error
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	SaveMessage(ctx context.Context, msg *Message) error
	GetHistory(ctx context.Context, sessionID string) ([]Message, error)
}

// Service: sessions around the orchestrator
type Service interface {
	NewSession(ctx context.Context) (string, error)
	Ask(ctx context.Context, sessionID, question string) (*Reply, error)
	History(ctx context.Context, sessionID string) ([]Message, error)
}
