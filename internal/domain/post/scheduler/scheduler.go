package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DuePostProcessor defines the interface for one dispatch pass over due posts
type DuePostProcessor interface {
	ProcessDuePosts(ctx context.Context) error
}

// Scheduler runs independent dispatch workers that poll the due set on a
// fixed interval. Workers share no in-memory state; the store's conditional
// claim is the only coordination point, so any number of them is safe.
type Scheduler struct {
	processor DuePostProcessor
	interval  time.Duration
	workers   int
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// New creates a new dispatch scheduler
func New(processor DuePostProcessor, interval time.Duration, workers int, logger *slog.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		processor: processor,
		interval:  interval,
		workers:   workers,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the dispatch workers
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("dispatch scheduler started", "interval", s.interval, "workers", s.workers)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.run(ctx, i)
	}
}

// Stop stops the workers and waits for in-flight passes to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("dispatch scheduler stopped")
}

// run is one worker's poll loop
func (s *Scheduler) run(ctx context.Context, worker int) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.process(ctx, worker)

	for {
		select {
		case <-ticker.C:
			s.process(ctx, worker)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process runs one dispatch pass
func (s *Scheduler) process(ctx context.Context, worker int) {
	s.logger.Debug("processing due posts", "worker", worker)

	if err := s.processor.ProcessDuePosts(ctx); err != nil {
		s.logger.Error("failed to process due posts", "worker", worker, "error", err)
	}
}
