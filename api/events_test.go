package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/albumflow/api/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, env *testEnv, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/sessions/" + sessionID + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.EventMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg models.EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.client.Demo(ctx)
	require.NoError(t, err)

	conn := dialEvents(t, env, sess.ID)
	snapshot := readEvent(t, conn)
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Equal(t, sess.ID, snapshot.Session.ID)
	assert.Equal(t, 0, snapshot.Session.Index)

	require.NoError(t, conn.WriteJSON(models.CommandMessage{Action: "next"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "index", ev.Type)
	assert.Equal(t, 1, ev.Session.Index)
	assert.Equal(t, "demo-1", ev.Session.Photo.ID)
	assert.True(t, ev.Session.ControlsVisible)

	_, err = env.client.Toggle(ctx, sess.ID)
	require.NoError(t, err)
	ev = readEvent(t, conn)
	assert.Equal(t, "state", ev.Type)
	assert.False(t, ev.Session.Playing)

	interval := 12.0
	_, err = env.client.UpdateSessionSettings(ctx, sess.ID, models.UpdateSessionSettingsRequest{IntervalSeconds: &interval})
	require.NoError(t, err)
	ev = readEvent(t, conn)
	assert.Equal(t, "config", ev.Type)
	assert.Equal(t, 12.0, ev.Session.Settings.IntervalSeconds)

	require.NoError(t, conn.WriteJSON(models.CommandMessage{Action: "unknown"}))
	require.NoError(t, conn.WriteJSON(models.CommandMessage{Action: "prev"}))
	ev = readEvent(t, conn)
	assert.Equal(t, "index", ev.Type)
	assert.Equal(t, 0, ev.Session.Index)
}

func TestEventsClosedWithSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.client.Demo(ctx)
	require.NoError(t, err)

	conn := dialEvents(t, env, sess.ID)
	readEvent(t, conn)

	require.NoError(t, env.client.DeleteSession(ctx, sess.ID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestEventsUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/sessions/missing/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHubStopsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// must not block once the hub is gone
	hub.Publish("any", models.EventMessage{Type: "index"})
	hub.Drop("any")
	assert.False(t, hub.Register(&wsClient{sessionID: "any", send: make(chan []byte, 1)}))
}
