package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Syncer is the piece of the sync engine the scheduler drives.
type Syncer interface {
	SyncAll(ctx context.Context) (string, error)
}

// Service runs the collection sync on a fixed interval in the background.
type Service struct {
	syncer   Syncer
	interval time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Guards against overlapping runs when a sync outlasts the interval.
	syncMu     sync.Mutex
	syncActive bool
}

// NewService creates a scheduler that calls syncer.SyncAll every interval.
func NewService(syncer Syncer, interval time.Duration) *Service {
	if interval < time.Minute {
		interval = time.Hour
	}
	return &Service{
		syncer:   syncer,
		interval: interval,
	}
}

// Start begins the scheduler background loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	log.Printf("[scheduler] started, sync interval %s", s.interval)
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight sync to
// finish until ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] stopped")
	case <-ctx.Done():
		log.Println("[scheduler] stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runSync()
		}
	}
}

func (s *Service) runSync() {
	s.syncMu.Lock()
	if s.syncActive {
		s.syncMu.Unlock()
		log.Println("[scheduler] previous sync still running, skipping")
		return
	}
	s.syncActive = true
	s.syncMu.Unlock()

	defer func() {
		s.syncMu.Lock()
		s.syncActive = false
		s.syncMu.Unlock()
	}()

	report, err := s.syncer.SyncAll(s.ctx)
	if err != nil {
		log.Printf("[scheduler] sync failed: %v", err)
		return
	}
	log.Printf("[scheduler] sync complete: %s", firstLine(report))
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
