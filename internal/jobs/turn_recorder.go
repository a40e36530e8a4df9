package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/metrics"
	"github.com/descubra-ms/guata/internal/telemetry"
)

const (
	// DefaultQueueSize bounds the number of turns waiting to be written
	DefaultQueueSize = 256
	// MaxBatchSize is the largest number of turns written per pass
	MaxBatchSize = 64
)

// TurnStore defines the interface for conversation turn persistence
type TurnStore interface {
	SaveTurns(ctx context.Context, turns []*domain.ConversationTurn) error
}

// TurnRecorder queues conversation turns and writes them in batches. Once
// the queue is half full it asks its worker for an early pass.
type TurnRecorder struct {
	store         TurnStore
	queue         chan *domain.ConversationTurn
	wake          chan struct{}
	wakeThreshold int
	logger        *zap.Logger
}

// NewTurnRecorder creates a new TurnRecorder instance
func NewTurnRecorder(store TurnStore, queueSize int, logger *zap.Logger) *TurnRecorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnRecorder{
		store:         store,
		queue:         make(chan *domain.ConversationTurn, queueSize),
		wake:          make(chan struct{}, 1),
		wakeThreshold: max(1, queueSize/2),
		logger:        logger.Named("recorder"),
	}
}

// Record enqueues a turn without blocking. A full queue drops the turn.
func (r *TurnRecorder) Record(turn *domain.ConversationTurn) {
	if turn == nil {
		return
	}
	select {
	case r.queue <- turn:
		if len(r.queue) >= r.wakeThreshold {
			select {
			case r.wake <- struct{}{}:
			default:
			}
		}
	default:
		metrics.IncRecordDropped()
		r.logger.Warn("record queue full, dropping conversation turn",
			zap.String("session_id", turn.SessionID),
			zap.String("turn_id", turn.ID),
		)
	}
}

// Wake implements Waker.
func (r *TurnRecorder) Wake() <-chan struct{} {
	return r.wake
}

// Pending reports the number of queued turns.
func (r *TurnRecorder) Pending() int {
	return len(r.queue)
}

// Process implements Processor. It drains the queue in batches until it is
// empty or a write fails; the failed batch is not retried.
func (r *TurnRecorder) Process(ctx context.Context) error {
	for {
		batch := r.drain(MaxBatchSize)
		if len(batch) == 0 {
			return nil
		}

		if err := r.store.SaveTurns(ctx, batch); err != nil {
			r.logger.Error("failed to save conversation turns",
				zap.Int("count", len(batch)),
				zap.Error(err),
			)
			err = fmt.Errorf("failed to save %d turns: %w", len(batch), err)
			telemetry.CaptureError(ctx, err)
			return err
		}
		r.logger.Debug("saved conversation turns", zap.Int("count", len(batch)))
	}
}

func (r *TurnRecorder) drain(max int) []*domain.ConversationTurn {
	var batch []*domain.ConversationTurn
	for len(batch) < max {
		select {
		case turn := <-r.queue:
			batch = append(batch, turn)
		default:
			return batch
		}
	}
	return batch
}
