// Package jobs runs the background work of the server: writing recorded
// conversation turns to the store outside the request path.
package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Processor does one unit of background work per call.
type Processor interface {
	Process(ctx context.Context) error
}

// Waker is implemented by processors that can ask for an early pass, e.g.
// when their queue is filling up.
type Waker interface {
	Wake() <-chan struct{}
}

// Worker calls its Processor on every tick and whenever the processor asks
// for it.
type Worker struct {
	processor Processor
	interval  time.Duration
	logger    *zap.Logger
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewWorker creates a worker polling processor every interval.
func NewWorker(processor Processor, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		processor: processor,
		interval:  interval,
		logger:    logger.Named("worker"),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the loop until ctx ends or Stop is called. A Stop gets one
// final pass so queued work is not lost on shutdown.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var wake <-chan struct{}
	if waker, ok := w.processor.(Waker); ok {
		wake = waker.Wake()
	}

	w.logger.Info("worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped: context cancelled")
			return
		case <-w.stop:
			w.run(context.WithoutCancel(ctx))
			w.logger.Info("worker stopped: final pass done")
			return
		case <-ticker.C:
			w.run(ctx)
		case <-wake:
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	if err := w.processor.Process(ctx); err != nil {
		w.logger.Error("background pass failed", zap.Error(err))
	}
}

// Stop asks the loop to finish and waits for it. It is safe to call more
// than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
