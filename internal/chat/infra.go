package chat

import (
	"context"
	"database/sql"
	"fmt"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS chat_messages (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES chat_sessions(session_id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	success    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_session_idx ON chat_messages (session_id, created_at);
`

func (r *repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *repo) CreateSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id)
		VALUES ($1)
	`, sessionID)
	return err
}

func (r *repo) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE session_id = $1)
	`, sessionID).Scan(&exists)
	return exists, err
}

func (r *repo) SaveMessage(ctx context.Context, msg *Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, question, answer, success)
		VALUES ($1, $2, $3, $4)
	`,
		msg.SessionID,
		msg.Question,
		msg.Answer,
		msg.Success,
	)
	return err
}

func (r *repo) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, question, answer, success, extract(epoch from created_at)::bigint
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.Question,
			&m.Answer,
			&m.Success,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
