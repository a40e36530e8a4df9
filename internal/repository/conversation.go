package repository

import (
	"context"
	"fmt"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultTurnPageSize = 20
	MaxTurnPageSize     = 100
)

// TurnPage is one page of a session's history, oldest first.
type TurnPage = pagination.PageResult[*domain.ConversationTurn]

type ConversationRepository struct {
	db dbtx
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: pool}
}

func NewConversationRepositoryWithTx(tx pgx.Tx) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

const insertTurnSQL = `INSERT INTO conversation_turns
	(id, session_id, user_id, question, answer, confidence, sources, reasoning, from_cache, processing_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`

// SaveTurns writes all turns in a single batch. Re-saving a turn is a no-op.
func (r *ConversationRepository) SaveTurns(ctx context.Context, turns []*domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range turns {
		batch.Queue(insertTurnSQL,
			t.ID, t.SessionID, t.UserID, t.Question, t.Answer, t.Confidence,
			nonNilStrings(t.Sources), nonNilStrings(t.Reasoning), t.FromCache, t.ProcessingMs, t.CreatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for i := range turns {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert turn %s: %w", turns[i].ID, err)
		}
	}
	return results.Close()
}

// ListBySession returns the session's turns in chronological order.
func (r *ConversationRepository) ListBySession(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*TurnPage, error) {
	limit = pagination.ClampLimit(limit, DefaultTurnPageSize, MaxTurnPageSize)

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, session_id, user_id, question, answer, confidence, sources, reasoning, from_cache, processing_ms, created_at
			 FROM conversation_turns
			 WHERE session_id = $1 AND (created_at, id) > ($2, $3)
			 ORDER BY created_at ASC, id ASC
			 LIMIT $4`,
			sessionID, cursor.CreatedAt, cursor.ID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, session_id, user_id, question, answer, confidence, sources, reasoning, from_cache, processing_ms, created_at
			 FROM conversation_turns
			 WHERE session_id = $1
			 ORDER BY created_at ASC, id ASC
			 LIMIT $2`,
			sessionID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanTurnRows(rows)
	if err != nil {
		return nil, err
	}

	return pagination.NewPage(items, limit, turnPosition), nil
}

func turnPosition(t *domain.ConversationTurn) pagination.Cursor {
	return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
}

// CountBySession returns how many turns a session has recorded.
func (r *ConversationRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation_turns WHERE session_id = $1`,
		sessionID,
	).Scan(&n)
	return n, err
}

func scanTurnRows(rows pgx.Rows) ([]*domain.ConversationTurn, error) {
	var turns []*domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.UserID, &t.Question, &t.Answer, &t.Confidence,
			&t.Sources, &t.Reasoning, &t.FromCache, &t.ProcessingMs, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
