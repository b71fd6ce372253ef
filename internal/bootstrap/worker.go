package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Worker is the background process: it rehydrates enabled inbox
// monitors and keeps them running until stopped.
type Worker struct {
	deps *Dependencies
	zlog zerolog.Logger
}

func NewWorker(deps *Dependencies) *Worker {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()
	return &Worker{deps: deps, zlog: zlog}
}

// Start restores monitors for every owner whose automation is enabled.
// Monitors run on their own goroutines; Start returns once rehydration
// completes.
func (w *Worker) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.deps.Monitor.Rehydrate(ctx); err != nil {
		w.zlog.Error().Err(err).Msg("monitor rehydration failed")
		return err
	}
	w.zlog.Info().Msg("worker started")
	return nil
}

// Stop cancels all monitors and waits for in-flight ticks to finish.
func (w *Worker) Stop() {
	w.deps.Monitor.StopAll()
	w.zlog.Info().Msg("worker stopped")
}
