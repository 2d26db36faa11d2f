// Package session tracks the UI state of each connected map view.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/dataset"
	"github.com/brusilov1916/brusilov-map/internal/overlay"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/internal/storage"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or ended session ids.
	ErrNotFound = errors.New("session not found")
	// ErrUnknownMovement is returned when selecting a movement that does not exist.
	ErrUnknownMovement = errors.New("unknown movement")
	// ErrAttached is returned when a second live view attaches to a session.
	ErrAttached = errors.New("session already attached")
	// ErrTooManySessions is returned by Create when MaxSessions are live.
	ErrTooManySessions = errors.New("too many sessions")
)

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID               string        `json:"id"`
	ClientID         string        `json:"clientId"`
	Phase            core.Phase    `json:"phase"`
	SelectedMovement string        `json:"selectedMovement,omitempty"`
	LegendVisible    bool          `json:"legendVisible"`
	TourCompleted    bool          `json:"tourCompleted"`
	Overlay          overlay.State `json:"overlay"`
}

// Session is one map view. Fields are guarded by mu; the overlay machine
// has its own lock.
type Session struct {
	ID       string
	ClientID string
	Overlay  *overlay.Machine
	Created  time.Time

	mu            sync.Mutex
	phase         core.Phase
	movementID    string
	legendVisible bool
	tourCompleted bool
	attached      bool
	lastSeen      time.Time
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:               s.ID,
		ClientID:         s.ClientID,
		Phase:            s.phase,
		SelectedMovement: s.movementID,
		LegendVisible:    s.legendVisible,
		TourCompleted:    s.tourCompleted,
	}
	s.mu.Unlock()
	snap.Overlay = s.Overlay.State()
	return snap
}

// Options tune a Manager. Expire ends detached sessions unused for longer
// than IdleTimeout; Create refuses new sessions once MaxSessions are live.
// Zero disables either limit.
type Options struct {
	CloseDelay  time.Duration
	TourSteps   int
	IdleTimeout time.Duration
	MaxSessions int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Manager owns all live sessions.
type Manager struct {
	ds     *dataset.Dataset
	store  storage.Backend
	opts   Options
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager backed by store for per-client preferences.
func NewManager(ds *dataset.Dataset, store storage.Backend, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		ds:       ds,
		store:    store,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session for clientID, restoring its saved preferences.
// An empty clientID gets a fresh one. Clients that have not finished the
// onboarding tour start with it open.
func (m *Manager) Create(clientID string) (*Session, error) {
	if clientID == "" {
		clientID = uuid.NewString()
	}

	s := &Session{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		Created:       m.opts.Now().UTC(),
		lastSeen:      m.opts.Now(),
		legendVisible: true,
		Overlay:       overlay.NewMachine(len(m.ds.Gallery), m.opts.TourSteps, m.opts.CloseDelay),
	}

	prefs, err := m.store.Preferences(clientID)
	switch {
	case err == nil:
		if p, perr := phase.Parse(string(prefs.Phase)); perr == nil {
			s.phase = p
		}
		s.legendVisible = prefs.LegendVisible
		s.tourCompleted = prefs.TourCompleted
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	s.Overlay.OnTourDone(func() {
		if err := m.completeTour(s); err != nil {
			m.logger.Error("Failed to persist tour completion", "client", s.ClientID, "error", err)
		}
	})
	if !s.tourCompleted {
		if err := s.Overlay.Open(overlay.Tour, ""); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		s.Overlay.Stop()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.opts.MaxSessions)
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("Session created", "session", s.ID, "client", clientID, "tour", s.tourCompleted)
	return s, nil
}

// Get returns the live session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	s.lastSeen = m.opts.Now()
	s.mu.Unlock()
	return s, nil
}

// Attach claims the session for one live view. Attached sessions never
// expire; a second Attach fails with ErrAttached.
func (m *Manager) Attach(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return nil, fmt.Errorf("%w: %s", ErrAttached, id)
	}
	s.attached = true
	return s, nil
}

// Detach releases the claim taken by Attach.
func (m *Manager) Detach(id string) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.attached = false
	s.lastSeen = m.opts.Now()
	s.mu.Unlock()
}

// Expire ends detached sessions idle for longer than IdleTimeout and
// returns how many it ended.
func (m *Manager) Expire() int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.IdleTimeout)

	var idle []string
	m.mu.RLock()
	for id, s := range m.sessions {
		s.mu.Lock()
		if !s.attached && s.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range idle {
		if err := m.End(id); err != nil {
			if !errors.Is(err, ErrNotFound) {
				m.logger.Error("Failed to end idle session", "session", id, "error", err)
			}
			continue
		}
		n++
	}
	if n > 0 {
		m.logger.Info("Expired idle sessions", "count", n)
	}
	return n
}

// End stops the session's timers, saves its view and forgets it.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.Overlay.Stop()
	return m.save(s)
}

// Close ends every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.End(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SelectPhase switches the phase filter. A selected movement that the new
// phase hides is deselected.
func (m *Manager) SelectPhase(id, value string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	p, err := phase.Parse(value)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.phase = p
	if s.movementID != "" {
		if mv, ok := m.ds.Movement(s.movementID); !ok || len(phase.FilterMovements([]core.Movement{mv}, p)) == 0 {
			s.movementID = ""
		}
	}
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// SelectMovement highlights a movement. An empty id clears the selection.
func (m *Manager) SelectMovement(id, movementID string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if movementID != "" {
		if _, ok := m.ds.Movement(movementID); !ok {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownMovement, movementID)
		}
	}

	s.mu.Lock()
	s.movementID = movementID
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// ToggleLegend flips legend visibility.
func (m *Manager) ToggleLegend(id string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	s.legendVisible = !s.legendVisible
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// SetTourCompleted records the tour flag for the session's client.
func (m *Manager) SetTourCompleted(id string, completed bool) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.store.SetTourCompleted(s.ClientID, completed); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	s.tourCompleted = completed
	s.mu.Unlock()
	return s.Snapshot(), nil
}

func (m *Manager) completeTour(s *Session) error {
	s.mu.Lock()
	already := s.tourCompleted
	s.tourCompleted = true
	s.mu.Unlock()
	if already {
		return nil
	}
	return m.store.SetTourCompleted(s.ClientID, true)
}

func (m *Manager) save(s *Session) error {
	s.mu.Lock()
	prefs := core.Preferences{
		Phase:         s.phase,
		LegendVisible: s.legendVisible,
		TourCompleted: s.tourCompleted,
	}
	s.mu.Unlock()

	// keep settings written by other views of the same client
	if old, err := m.store.Preferences(s.ClientID); err == nil {
		prefs.Settings = old.Settings
		prefs.TourCompleted = prefs.TourCompleted || old.TourCompleted
	}
	if err := m.store.SavePreferences(s.ClientID, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
