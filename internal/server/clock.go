package server

import (
	"context"
	"time"
)

// RunClock ticks the selected jam's clock while it is running, until ctx is
// done. The clock stops at zero, on a jam change and on load.
func (s *Server) RunClock(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	more, err := s.ctrl.Tick()
	if err != nil {
		s.log.Warn("jam clock stopped", "err", err)
	}
	if err != nil || !more {
		s.running = false
		s.log.Info("jam clock finished")
		s.autosave()
	}
}

// Running reports whether the jam clock is running.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// startClock starts the clock unless the selected jam has no time left.
func (s *Server) startClock() error {
	jam, _, err := s.ctrl.Current()
	if err != nil {
		return err
	}
	s.running = jam.TimeRemaining > 0
	return nil
}
