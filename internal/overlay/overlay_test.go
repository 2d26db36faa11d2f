package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{None, Gallery, HistoricalMap, Contacts, OperationInfo, River, Tour} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("video")
	assert.ErrorIs(t, err, ErrUnknownOverlay)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestOpen_ReplacesActiveOverlay(t *testing.T) {
	m := NewMachine(4, 0, 0)
	defer m.Stop()

	require.NoError(t, m.Open(Contacts, ""))
	require.NoError(t, m.Open(HistoricalMap, ""))

	s := m.State()
	assert.Equal(t, HistoricalMap, s.Kind)
	assert.False(t, s.Closing)
}

func TestOpen_Arguments(t *testing.T) {
	m := NewMachine(4, 0, 0)
	defer m.Stop()

	require.NoError(t, m.Open(Gallery, "2"))
	assert.Equal(t, 2, m.State().Image)

	assert.ErrorIs(t, m.Open(Gallery, "4"), ErrUnknownOverlay)
	assert.ErrorIs(t, m.Open(Gallery, "x"), ErrUnknownOverlay)
	assert.ErrorIs(t, m.Open(River, ""), ErrUnknownOverlay)
	assert.ErrorIs(t, m.Open(None, ""), ErrUnknownOverlay)
	assert.ErrorIs(t, m.Open(Kind(99), ""), ErrUnknownOverlay)

	require.NoError(t, m.Open(River, "dniester_estuary"))
	assert.Equal(t, "dniester_estuary", m.State().RiverID)
}

func TestClose_DelayedFinish(t *testing.T) {
	m := NewMachine(4, 0, 20*time.Millisecond)
	defer m.Stop()
	rec := &recorder{}
	m.OnChange(rec.record)

	require.NoError(t, m.Open(OperationInfo, ""))
	m.Close()

	s := m.State()
	assert.Equal(t, OperationInfo, s.Kind)
	assert.True(t, s.Closing)

	assert.Eventually(t, func() bool { return !m.State().Active() }, time.Second, 5*time.Millisecond)

	states := rec.all()
	require.Len(t, states, 3)
	assert.Equal(t, State{Kind: OperationInfo}, states[0])
	assert.Equal(t, State{Kind: OperationInfo, Closing: true}, states[1])
	assert.Equal(t, State{}, states[2])
}

func TestClose_NoDelay(t *testing.T) {
	m := NewMachine(0, 0, 0)
	defer m.Stop()

	require.NoError(t, m.Open(Contacts, ""))
	m.Close()
	assert.Equal(t, State{}, m.State())

	// closing nothing is a no-op
	m.Close()
	assert.Equal(t, State{}, m.State())
}

func TestOpen_CancelsPendingClose(t *testing.T) {
	m := NewMachine(4, 0, 30*time.Millisecond)
	defer m.Stop()

	require.NoError(t, m.Open(Contacts, ""))
	m.Close()
	require.NoError(t, m.Open(Gallery, ""))

	time.Sleep(60 * time.Millisecond)
	s := m.State()
	assert.Equal(t, Gallery, s.Kind, "stale close timer must not dismiss the new overlay")
	assert.False(t, s.Closing)
}

func TestStop_CancelsPendingClose(t *testing.T) {
	m := NewMachine(4, 0, 30*time.Millisecond)
	rec := &recorder{}
	m.OnChange(rec.record)

	require.NoError(t, m.Open(Contacts, ""))
	m.Close()
	m.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, rec.all(), 2)
	assert.True(t, m.State().Closing)

	require.NoError(t, m.Open(Gallery, ""))
	assert.Equal(t, Contacts, m.State().Kind, "stopped machine ignores transitions")
}

func TestKey_Escape(t *testing.T) {
	m := NewMachine(4, 0, 0)
	defer m.Stop()

	assert.False(t, m.Key("Escape"), "nothing open")

	require.NoError(t, m.Open(HistoricalMap, ""))
	assert.True(t, m.Key("Escape"))
	assert.False(t, m.State().Active())
}

func TestKey_GalleryWrap(t *testing.T) {
	m := NewMachine(3, 0, 0)
	defer m.Stop()

	assert.False(t, m.Key("ArrowRight"), "gallery closed")

	require.NoError(t, m.Open(Gallery, ""))
	assert.True(t, m.Key("ArrowLeft"))
	assert.Equal(t, 2, m.State().Image)
	assert.True(t, m.Key("ArrowRight"))
	assert.Equal(t, 0, m.State().Image)
	assert.True(t, m.Key("ArrowRight"))
	assert.Equal(t, 1, m.State().Image)

	assert.False(t, m.Key("Enter"))
}

func TestKey_EmptyGallery(t *testing.T) {
	m := NewMachine(0, 0, 0)
	defer m.Stop()

	require.NoError(t, m.Open(Gallery, ""))
	assert.False(t, m.Key("ArrowRight"))
}

func TestTour_NextAndFinish(t *testing.T) {
	m := NewMachine(0, 3, 0)
	defer m.Stop()
	done := 0
	m.OnTourDone(func() { done++ })

	assert.False(t, m.Next(), "tour not open")

	require.NoError(t, m.Open(Tour, ""))
	assert.True(t, m.Next())
	assert.Equal(t, 1, m.State().Step)
	assert.True(t, m.Next())
	assert.Equal(t, 2, m.State().Step)
	assert.True(t, m.Next())
	assert.False(t, m.State().Active())
	assert.Equal(t, 1, done)

	require.NoError(t, m.Open(Tour, ""))
	assert.True(t, m.Finish())
	assert.Equal(t, 2, done)
	assert.False(t, m.Finish())
}

func TestTour_EscapeDismisses(t *testing.T) {
	m := NewMachine(0, 3, 0)
	defer m.Stop()
	done := false
	m.OnTourDone(func() { done = true })

	require.NoError(t, m.Open(Tour, ""))
	assert.True(t, m.Key("Escape"))
	assert.True(t, done)
}

func TestState_JSONKind(t *testing.T) {
	b, err := Gallery.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "gallery", string(b))
}
