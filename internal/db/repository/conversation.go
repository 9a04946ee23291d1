package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lakeagent/internal/domain"
)

// ConversationRepo persists agent chat turns per session.
type ConversationRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewConversationRepo creates a ConversationRepo over the write/read pool pair.
func NewConversationRepo(writeDB, readDB *sql.DB) *ConversationRepo {
	return &ConversationRepo{writeDB: writeDB, readDB: readDB}
}

// Append stores one message and fills in its assigned id.
func (r *ConversationRepo) Append(ctx context.Context, msg *domain.ConversationMessage) error {
	if msg.SessionID == "" {
		return domain.ErrValidation("session_id is required")
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return domain.ErrValidation("role %q must be user or assistant", msg.Role)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO conversation_messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", mapDBError(err))
	}
	msg.ID, err = res.LastInsertId()
	return err
}

// History returns the most recent messages of a session in chronological
// order. limit <= 0 returns the default window.
func (r *ConversationRepo) History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM (
			SELECT id, session_id, role, content, created_at
			FROM conversation_messages
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var msgs []domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
