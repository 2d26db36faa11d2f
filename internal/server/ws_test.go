package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/overlay"
	"github.com/brusilov1916/brusilov-map/internal/session"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/brusilov1916/brusilov-map/pkg/streaming"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) dial(t *testing.T, sessionID string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws?session=" + sessionID
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *ws.Conn, msgType string, payload any) {
	t.Helper()
	data, err := streaming.Marshal(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(ws.TextMessage, data))
}

func readEnvelope(t *testing.T, conn *ws.Conn) streaming.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

// readUntil skips messages until one of msgType satisfies match.
func readUntil(t *testing.T, conn *ws.Conn, msgType string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType && (match == nil || match(env.Payload)) {
			return env.Payload
		}
	}
	t.Fatalf("no %s message received", msgType)
	return nil
}

func stateWhere(t *testing.T, fn func(session.Snapshot) bool) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var snap session.Snapshot
		require.NoError(t, json.Unmarshal(raw, &snap))
		return fn(snap)
	}
}

func newWSSession(t *testing.T, env *testEnv) *session.Session {
	t.Helper()
	sess, err := env.sessions.Create("ws-client")
	require.NoError(t, err)
	return sess
}

func TestWS_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.http.URL + "/ws?session=missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWS_InitialStateAndLayers(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)
	conn := env.dial(t, sess.ID)

	first := readEnvelope(t, conn)
	require.Equal(t, streaming.TypeState, first.Type)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(first.Payload, &snap))
	assert.Equal(t, sess.ID, snap.ID)
	assert.Equal(t, overlay.Tour, snap.Overlay.Kind)

	second := readEnvelope(t, conn)
	require.Equal(t, streaming.TypeLayers, second.Type)
	var fc map[string]any
	require.NoError(t, json.Unmarshal(second.Payload, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
}

func TestWS_SelectPhase(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)
	conn := env.dial(t, sess.ID)
	readUntil(t, conn, streaming.TypeLayers, nil)

	send(t, conn, streaming.TypeSelectPhase, streaming.SelectPhasePayload{Phase: string(core.PhaseKovelStrike)})

	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return s.Phase == core.PhaseKovelStrike
	}))
	readUntil(t, conn, streaming.TypeLayers, nil)

	assert.Eventually(t, func() bool {
		phases, _, _ := env.usage.snapshot()
		return len(phases) == 1 && phases[0] == string(core.PhaseKovelStrike)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWS_Errors(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)
	conn := env.dial(t, sess.ID)
	readUntil(t, conn, streaming.TypeLayers, nil)

	tests := []struct {
		name    string
		msgType string
		payload any
	}{
		{"unknown type", "launch_zeppelin", nil},
		{"internal type", typeUsagePhase, streaming.SelectPhasePayload{Phase: "kovel_strike"}},
		{"unknown phase", streaming.TypeSelectPhase, streaming.SelectPhasePayload{Phase: "verdun"}},
		{"unknown movement", streaming.TypeSelectMovement, streaming.SelectMovementPayload{MovementID: "nope"}},
		{"unknown overlay", streaming.TypeOpenOverlay, streaming.OpenOverlayPayload{Overlay: "cinema"}},
		{"unknown river", streaming.TypeOpenOverlay, streaming.OpenOverlayPayload{Overlay: "river", Arg: "volga"}},
		{"hidden river line", streaming.TypeOpenOverlay, streaming.OpenOverlayPayload{Overlay: "river", Arg: "styr_line"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msgType, tt.payload)
			raw := readUntil(t, conn, streaming.TypeError, nil)
			var p streaming.ErrorPayload
			require.NoError(t, json.Unmarshal(raw, &p))
			assert.Equal(t, tt.msgType, p.For)
			assert.NotEmpty(t, p.Error)
		})
	}
}

func TestWS_TourAndOverlays(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)
	conn := env.dial(t, sess.ID)
	readUntil(t, conn, streaming.TypeLayers, nil)

	send(t, conn, streaming.TypeTourFinish, nil)
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return s.Overlay.Kind == overlay.None && s.TourCompleted
	}))

	send(t, conn, streaming.TypeOpenOverlay, streaming.OpenOverlayPayload{Overlay: "gallery"})
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return s.Overlay.Kind == overlay.Gallery && s.Overlay.Image == 0
	}))

	send(t, conn, streaming.TypeKey, streaming.KeyPayload{Key: "ArrowLeft"})
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return s.Overlay.Kind == overlay.Gallery && s.Overlay.Image == len(env.srv.composer.Dataset().Gallery)-1
	}))

	send(t, conn, streaming.TypeKey, streaming.KeyPayload{Key: "Escape"})
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return s.Overlay.Kind == overlay.None
	}))

	send(t, conn, streaming.TypeToggleLegend, nil)
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool {
		return !s.LegendVisible
	}))

	prefs, err := env.store.Preferences("ws-client")
	require.NoError(t, err)
	assert.True(t, prefs.TourCompleted)
}

func TestWS_DisconnectEndsSession(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)
	conn := env.dial(t, sess.ID)
	readUntil(t, conn, streaming.TypeLayers, nil)

	send(t, conn, streaming.TypeSelectPhase, streaming.SelectPhasePayload{Phase: string(core.PhaseHalychOffensive)})
	readUntil(t, conn, streaming.TypeLayers, nil)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		prefs, err := env.store.Preferences("ws-client")
		return err == nil && prefs.Phase == core.PhaseHalychOffensive
	}, 2*time.Second, 10*time.Millisecond)

	_, err := env.sessions.Get(sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestWS_SecondAttachRejected(t *testing.T) {
	env := newTestEnv(t)
	sess := newWSSession(t, env)

	conn := env.dial(t, sess.ID)
	readUntil(t, conn, streaming.TypeState, nil)

	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws?session=" + sess.ID
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// the first view keeps working
	send(t, conn, streaming.TypeToggleLegend, nil)
	readUntil(t, conn, streaming.TypeState, stateWhere(t, func(s session.Snapshot) bool { return !s.LegendVisible }))
	_, err = env.sessions.Get(sess.ID)
	assert.NoError(t, err)
}
