// Package overlay models the modal layer of a map view: at most one overlay is
// active, and closing goes through a short Closing phase before the view is
// clear again.
package overlay

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ErrUnknownOverlay is returned for overlay names or arguments that do not parse.
var ErrUnknownOverlay = errors.New("unknown overlay")

// DefaultCloseDelay matches the modal fade-out.
const DefaultCloseDelay = 300 * time.Millisecond

// DefaultTourSteps is the number of onboarding tour pages.
const DefaultTourSteps = 5

type Kind int

const (
	None Kind = iota
	Gallery
	HistoricalMap
	Contacts
	OperationInfo
	River
	Tour
)

var kindNames = [...]string{
	None:          "none",
	Gallery:       "gallery",
	HistoricalMap: "historicalMap",
	Contacts:      "contacts",
	OperationInfo: "operationInfo",
	River:         "river",
	Tour:          "tour",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownOverlay, s)
}

// State is a snapshot of the overlay layer.
type State struct {
	Kind    Kind   `json:"kind"`
	Closing bool   `json:"closing"`
	Image   int    `json:"image"`
	RiverID string `json:"riverId,omitempty"`
	Step    int    `json:"step"`
}

// Active reports whether an overlay is showing, including while it fades out.
func (s State) Active() bool {
	return s.Kind != None
}

// Machine owns the overlay state of one view. It is safe for concurrent use.
// OnChange callbacks run without the machine lock held.
type Machine struct {
	mu         sync.Mutex
	state      State
	images     int
	tourSteps  int
	closeDelay time.Duration
	timer      *time.Timer
	gen        uint64
	stopped    bool
	onChange   func(State)
	onTourDone func()
}

// NewMachine creates a machine for a gallery of images entries.
func NewMachine(images, tourSteps int, closeDelay time.Duration) *Machine {
	if tourSteps <= 0 {
		tourSteps = DefaultTourSteps
	}
	if closeDelay < 0 {
		closeDelay = 0
	}
	return &Machine{
		images:     images,
		tourSteps:  tourSteps,
		closeDelay: closeDelay,
	}
}

// OnChange registers fn to be called after every transition.
func (m *Machine) OnChange(fn func(State)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// OnTourDone registers fn to be called once the tour is finished or dismissed.
func (m *Machine) OnTourDone(fn func()) {
	m.mu.Lock()
	m.onTourDone = fn
	m.mu.Unlock()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open shows kind, replacing any open overlay and cancelling a pending close.
// For Gallery arg is an optional starting image index, for River it is the
// river id.
func (m *Machine) Open(kind Kind, arg string) error {
	next := State{Kind: kind}
	switch kind {
	case None:
		return fmt.Errorf("%w: cannot open %s", ErrUnknownOverlay, kind)
	case Gallery:
		if arg != "" {
			i, err := strconv.Atoi(arg)
			if err != nil || i < 0 || i >= m.images {
				return fmt.Errorf("%w: gallery image %q", ErrUnknownOverlay, arg)
			}
			next.Image = i
		}
	case River:
		if arg == "" {
			return fmt.Errorf("%w: river overlay needs a river id", ErrUnknownOverlay)
		}
		next.RiverID = arg
	case HistoricalMap, Contacts, OperationInfo, Tour:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOverlay, kind)
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.cancelTimerLocked()
	m.state = next
	m.mu.Unlock()
	m.notify(next)
	return nil
}

// Close starts the closing transition of the active overlay. Closing again
// restarts the delay. Closing the tour counts as dismissing it.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.stopped || m.state.Kind == None {
		m.mu.Unlock()
		return
	}
	m.cancelTimerLocked()
	m.state.Closing = true
	s := m.state
	gen := m.gen
	tourDone := s.Kind == Tour
	if m.closeDelay == 0 {
		m.state = State{}
	} else {
		m.timer = time.AfterFunc(m.closeDelay, func() { m.finishClose(gen) })
	}
	m.mu.Unlock()

	m.notify(s)
	if tourDone {
		m.tourDone()
	}
	if m.closeDelay == 0 {
		m.notify(State{})
	}
}

func (m *Machine) finishClose(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen || !m.state.Closing {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = State{}
	m.mu.Unlock()
	m.notify(State{})
}

// Key handles a keyboard event and reports whether it changed anything.
// Escape closes the active overlay; ArrowLeft and ArrowRight page through the
// gallery with wrap-around.
func (m *Machine) Key(key string) bool {
	switch key {
	case "Escape":
		s := m.State()
		if !s.Active() || s.Closing {
			return false
		}
		m.Close()
		return true
	case "ArrowLeft", "ArrowRight":
		m.mu.Lock()
		if m.stopped || m.state.Kind != Gallery || m.state.Closing || m.images == 0 {
			m.mu.Unlock()
			return false
		}
		if key == "ArrowLeft" {
			m.state.Image = (m.state.Image - 1 + m.images) % m.images
		} else {
			m.state.Image = (m.state.Image + 1) % m.images
		}
		s := m.state
		m.mu.Unlock()
		m.notify(s)
		return true
	}
	return false
}

// Next advances the tour. Advancing past the last step finishes it.
func (m *Machine) Next() bool {
	m.mu.Lock()
	if m.stopped || m.state.Kind != Tour || m.state.Closing {
		m.mu.Unlock()
		return false
	}
	if m.state.Step+1 >= m.tourSteps {
		m.mu.Unlock()
		m.Close()
		return true
	}
	m.state.Step++
	s := m.state
	m.mu.Unlock()
	m.notify(s)
	return true
}

// Finish ends the tour from any step.
func (m *Machine) Finish() bool {
	s := m.State()
	if s.Kind != Tour || s.Closing {
		return false
	}
	m.Close()
	return true
}

// Stop cancels any pending close. The machine ignores all later calls.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.stopped = true
}

func (m *Machine) cancelTimerLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) notify(s State) {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (m *Machine) tourDone() {
	m.mu.Lock()
	fn := m.onTourDone
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
