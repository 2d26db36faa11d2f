package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/dataset"
	"github.com/brusilov1916/brusilov-map/internal/overlay"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/internal/storage/memory"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *memory.Backend) {
	t.Helper()
	ds, err := dataset.Load("")
	require.NoError(t, err)
	store := memory.New()
	m := NewManager(ds, store, Options{CloseDelay: 0, TourSteps: 2})
	t.Cleanup(func() { _ = m.Close() })
	return m, store
}

func TestCreate_NewClientStartsTour(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.Create("")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.NotEmpty(t, s.ClientID)

	snap := s.Snapshot()
	assert.Equal(t, core.PhaseAll, snap.Phase)
	assert.True(t, snap.LegendVisible)
	assert.False(t, snap.TourCompleted)
	assert.Equal(t, overlay.Tour, snap.Overlay.Kind)
	assert.Equal(t, 1, m.Len())
}

func TestCreate_RestoresPreferences(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, store.SavePreferences("veteran", core.Preferences{
		Phase:         core.PhaseHalychOffensive,
		LegendVisible: false,
		TourCompleted: true,
	}))

	s, err := m.Create("veteran")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, core.PhaseHalychOffensive, snap.Phase)
	assert.False(t, snap.LegendVisible)
	assert.True(t, snap.TourCompleted)
	assert.False(t, snap.Overlay.Active())
}

func TestCreate_IgnoresStalePhase(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, store.SavePreferences("c", core.Preferences{Phase: "battle_of_nowhere", TourCompleted: true}))

	s, err := m.Create("c")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseAll, s.Snapshot().Phase)
}

func TestGetEnd(t *testing.T) {
	m, store := newTestManager(t)
	s, err := m.Create("c1")
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.SelectPhase(s.ID, "kovel_battles")
	require.NoError(t, err)
	require.NoError(t, m.End(s.ID))

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.End(s.ID), ErrNotFound)

	prefs, err := store.Preferences("c1")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseKovelBattles, prefs.Phase)
}

func TestSelectPhase(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("")
	require.NoError(t, err)

	snap, err := m.SelectPhase(s.ID, "fourth_kovel_battle")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseFourthKovelBattle, snap.Phase)

	_, err = m.SelectPhase(s.ID, "fourth_kovel")
	assert.ErrorIs(t, err, phase.ErrUnknownPhase)

	_, err = m.SelectPhase("missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectPhase_ClearsHiddenMovement(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("")
	require.NoError(t, err)

	_, err = m.SelectMovement(s.ID, "8th_army_lutsk_kovel")
	require.NoError(t, err)

	snap, err := m.SelectPhase(s.ID, "kovel_strike")
	require.NoError(t, err)
	assert.Equal(t, "8th_army_lutsk_kovel", snap.SelectedMovement, "still visible")

	snap, err = m.SelectPhase(s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "8th_army_lutsk_kovel", snap.SelectedMovement, "all phases show everything")

	snap, err = m.SelectPhase(s.ID, "halych_offensive")
	require.NoError(t, err)
	assert.Empty(t, snap.SelectedMovement)
}

func TestSelectMovement(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("")
	require.NoError(t, err)

	_, err = m.SelectMovement(s.ID, "no_such_army")
	assert.ErrorIs(t, err, ErrUnknownMovement)

	snap, err := m.SelectMovement(s.ID, "guards_stokhid")
	require.NoError(t, err)
	assert.Equal(t, "guards_stokhid", snap.SelectedMovement)

	snap, err = m.SelectMovement(s.ID, "")
	require.NoError(t, err)
	assert.Empty(t, snap.SelectedMovement)
}

func TestToggleLegend(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("")
	require.NoError(t, err)

	snap, err := m.ToggleLegend(s.ID)
	require.NoError(t, err)
	assert.False(t, snap.LegendVisible)

	snap, err = m.ToggleLegend(s.ID)
	require.NoError(t, err)
	assert.True(t, snap.LegendVisible)
}

func TestTourCompletionWritesThrough(t *testing.T) {
	m, store := newTestManager(t)
	s, err := m.Create("newbie")
	require.NoError(t, err)

	assert.True(t, s.Overlay.Next())
	assert.True(t, s.Overlay.Next(), "second step finishes a two-step tour")

	assert.True(t, s.Snapshot().TourCompleted)
	done, err := store.TourCompleted("newbie")
	require.NoError(t, err)
	assert.True(t, done)

	s2, err := m.Create("newbie")
	require.NoError(t, err)
	assert.False(t, s2.Snapshot().Overlay.Active(), "tour not shown again")
}

func TestSetTourCompleted(t *testing.T) {
	m, store := newTestManager(t)
	s, err := m.Create("c")
	require.NoError(t, err)

	snap, err := m.SetTourCompleted(s.ID, true)
	require.NoError(t, err)
	assert.True(t, snap.TourCompleted)

	done, err := store.TourCompleted("c")
	require.NoError(t, err)
	assert.True(t, done)
}

type failingStore struct{ *memory.Backend }

func (failingStore) Preferences(string) (core.Preferences, error) {
	return core.Preferences{}, errors.New("db down")
}

func TestCreate_StorageError(t *testing.T) {
	ds, err := dataset.Load("")
	require.NoError(t, err)
	m := NewManager(ds, failingStore{memory.New()}, Options{})

	_, err = m.Create("c")
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestExpire_EndsIdleDetachedSessions(t *testing.T) {
	ds, err := dataset.Load("")
	require.NoError(t, err)
	store := memory.New()
	clock := &fakeClock{now: time.Date(1916, 6, 4, 3, 0, 0, 0, time.UTC)}
	m := NewManager(ds, store, Options{TourSteps: 2, IdleTimeout: time.Minute, Now: clock.Now})
	t.Cleanup(func() { _ = m.Close() })

	idle, err := m.Create("idle")
	require.NoError(t, err)
	busy, err := m.Create("busy")
	require.NoError(t, err)
	viewed, err := m.Create("viewed")
	require.NoError(t, err)
	_, err = m.SelectPhase(idle.ID, string(core.PhaseKovelStrike))
	require.NoError(t, err)
	_, err = m.Attach(viewed.ID)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	_, err = m.Get(busy.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Expire())

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, m.Expire())
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	prefs, err := store.Preferences("idle")
	require.NoError(t, err)
	assert.Equal(t, core.PhaseKovelStrike, prefs.Phase)

	// attached sessions stay regardless of age
	clock.Advance(time.Hour)
	assert.Equal(t, 1, m.Expire())
	_, err = m.Get(viewed.ID)
	assert.NoError(t, err)

	m.Detach(viewed.ID)
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.Expire())
	assert.Equal(t, 0, m.Len())
}

func TestExpire_Disabled(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create("")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Expire())
	assert.Equal(t, 1, m.Len())
}

func TestCreate_MaxSessions(t *testing.T) {
	ds, err := dataset.Load("")
	require.NoError(t, err)
	m := NewManager(ds, memory.New(), Options{TourSteps: 2, MaxSessions: 2})
	t.Cleanup(func() { _ = m.Close() })

	first, err := m.Create("")
	require.NoError(t, err)
	_, err = m.Create("")
	require.NoError(t, err)

	_, err = m.Create("")
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.End(first.ID))
	_, err = m.Create("")
	assert.NoError(t, err)
}

func TestAttach(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("")
	require.NoError(t, err)

	got, err := m.Attach(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Attach(s.ID)
	assert.ErrorIs(t, err, ErrAttached)

	m.Detach(s.ID)
	_, err = m.Attach(s.ID)
	assert.NoError(t, err)

	_, err = m.Attach("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
