package session

import (
	"context"
	"errors"
	"time"

	"github.com/dbchat/dbchat/internal/pipeline"
)

var ErrSessionNotFound = errors.New("session: not found")

// Session is one conversation. Turns are ordered oldest first.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []TurnRecord
}

type TurnRecord struct {
	Question string
	Answer   string
	Intent   pipeline.Intent
	SQL      string
	AskedAt  time.Time
}

type Store interface {
	// AppendTurn records one exchange, creating the session on first use.
	AppendTurn(ctx context.Context, sessionID string, turn TurnRecord) error
	Get(ctx context.Context, sessionID string) (Session, error)
	// History returns the most recent turns, oldest first, capped at limit.
	History(ctx context.Context, sessionID string, limit int) ([]pipeline.Turn, error)
}

// HistoryFromTurns converts the tail of a turn list into pipeline history.
func HistoryFromTurns(turns []TurnRecord, limit int) []pipeline.Turn {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	history := make([]pipeline.Turn, 0, len(turns))
	for _, turn := range turns {
		history = append(history, pipeline.Turn{Question: turn.Question, Answer: turn.Answer})
	}
	return history
}
