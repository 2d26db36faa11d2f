// Package monitor periodically snapshots server health into a status file.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/cache"
)

// StatusFileName is written into Dependencies.StatusDir.
const StatusFileName = "status.json"

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = 30 * time.Second

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Sessions  func() int
	Expire    func() int // called on every tick
	Cache     *cache.LayerCache
	Dataset   string
	Storage   string
	StatusDir string
	Interval  time.Duration
	Logger    *slog.Logger
}

// Status is one health snapshot.
type Status struct {
	Time         time.Time `json:"time"`
	Uptime       string    `json:"uptime"`
	Dataset      string    `json:"dataset"`
	Storage      string    `json:"storage"`
	Sessions     int       `json:"sessions"`
	CacheEntries int       `json:"cacheEntries"`
	CacheHits    int       `json:"cacheHits"`
	CacheMisses  int       `json:"cacheMisses"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	isRunning bool
	mu        sync.RWMutex
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, started: time.Now()}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status returns the current server status.
func (s *Service) Status() Status {
	st := Status{
		Time:    time.Now().UTC(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Dataset: s.deps.Dataset,
		Storage: s.deps.Storage,
	}
	if s.deps.Sessions != nil {
		st.Sessions = s.deps.Sessions()
	}
	if s.deps.Cache != nil {
		st.CacheEntries = s.deps.Cache.Len()
		st.CacheHits = s.deps.Cache.Hits.Value()
		st.CacheMisses = s.deps.Cache.Misses.Value()
	}
	return st
}

// Run writes the status file every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	logger := s.deps.Logger
	logger.Debug("Starting status monitor", "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.deps.Expire != nil {
				s.deps.Expire()
			}
			st := s.Status()
			logger.Debug("Status", "sessions", st.Sessions, "cacheEntries", st.CacheEntries,
				"cacheHits", st.CacheHits, "cacheMisses", st.CacheMisses)
			if s.deps.StatusDir == "" {
				continue
			}
			if err := s.writeStatus(st); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

func (s *Service) writeStatus(st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.deps.StatusDir, StatusFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return os.Rename(tmp, path)
}
