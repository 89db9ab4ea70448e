// Package monitor keeps a status.txt snapshot of overlay frame statistics
// up to date while the host loop runs.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/snar-ar/overlay/internal/frame"
)

// StatusFile is the snapshot written into Dir.
const StatusFile = "status.txt"

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Dir      string
	Interval time.Duration
	Logger   *slog.Logger
	// Live returns the number of annotations on screen.
	Live func() int
}

// Status is the snapshot written to disk.
type Status struct {
	Time           time.Time `json:"time"`
	Frames         uint64    `json:"frames"`
	Processed      uint64    `json:"processed"`
	Skipped        uint64    `json:"skipped"`
	LastSkip       string    `json:"lastSkip,omitempty"`
	Visible        int       `json:"visible"`
	Live           int       `json:"live"`
	Created        uint64    `json:"created"`
	Updated        uint64    `json:"updated"`
	Retired        uint64    `json:"retired"`
	LastDurationMs float64   `json:"lastDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}

	stats Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// Observe is a frame.Observer accumulating statistics.
func (s *Service) Observe(r frame.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Frame > s.stats.Frames {
		s.stats.Frames = r.Frame
	}
	if r.Skipped != frame.SkipNone {
		s.stats.Skipped++
		s.stats.LastSkip = string(r.Skipped)
		return
	}
	s.stats.Processed++
	s.stats.LastSkip = ""
	s.stats.Visible = r.Visible
	s.stats.Live = r.Result.Live
	s.stats.Created += uint64(r.Result.Created)
	s.stats.Updated += uint64(r.Result.Updated)
	s.stats.Retired += uint64(r.Result.Retired)
	s.stats.LastDurationMs = float64(r.Duration) / float64(time.Millisecond)
}

// GetStatus returns the current statistics.
func (s *Service) GetStatus() Status {
	s.mu.RLock()
	st := s.stats
	s.mu.RUnlock()

	st.Time = time.Now().UTC()
	if s.deps.Live != nil {
		st.Live = s.deps.Live()
	}
	return st
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// WriteStatus writes one snapshot, replacing the previous one.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	path := filepath.Join(s.deps.Dir, StatusFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(s.done)
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "dir", s.deps.Dir, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor after a final snapshot.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
