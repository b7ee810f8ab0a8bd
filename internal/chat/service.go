package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Vovarama1992/odoo-query-bridge/internal/orchestrator"
)

type service struct {
	repo  Repo
	orch  orchestrator.Service
	newID func() string
}

func NewService(repo Repo, orch orchestrator.Service) Service {
	return &service{
		repo:  repo,
		orch:  orch,
		newID: uuid.NewString,
	}
}

func (s *service) NewSession(ctx context.Context) (string, error) {
	id := s.newID()
	if err := s.repo.CreateSession(ctx, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	log.Printf("[svc] new session %s", id)
	return id, nil
}

func (s *service) Ask(ctx context.Context, sessionID, question string) (*Reply, error) {
	exists, err := s.repo.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	log.Printf("[svc] session=%s question=%q", sessionID, question)

	out := s.orch.Handle(ctx, question)

	answer := out.TextResponse
	if !out.Success {
		answer = out.Error
	}

	if err := s.repo.SaveMessage(ctx, &Message{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Success:   out.Success,
	}); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	return &Reply{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Outcome:   out,
	}, nil
}

func (s *service) History(ctx context.Context, sessionID string) ([]Message, error) {
	msgs, err := s.repo.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return msgs, nil
}
