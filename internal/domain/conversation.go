package domain

import "time"

// ConversationTurn is a persisted question/answer pair of a chat session.
type ConversationTurn struct {
	ID           string
	SessionID    string
	UserID       string
	Question     string
	Answer       string
	Confidence   int
	Sources      []string
	Reasoning    []string
	FromCache    bool
	ProcessingMs int64
	CreatedAt    time.Time
}

// NewConversationTurn builds a turn from a resolved response.
func NewConversationTurn(id, sessionID, userID, question string, resp *Response, createdAt time.Time) *ConversationTurn {
	return &ConversationTurn{
		ID:           id,
		SessionID:    sessionID,
		UserID:       userID,
		Question:     question,
		Answer:       resp.Answer,
		Confidence:   resp.Confidence,
		Sources:      append([]string(nil), resp.Sources...),
		Reasoning:    append([]string(nil), resp.Reasoning...),
		FromCache:    resp.IsFromCache,
		ProcessingMs: resp.ProcessingTimeMs,
		CreatedAt:    createdAt,
	}
}
