package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *AnalysisHub, userID uint) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeWS(userID, conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[userID]) == 1
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestHubDeliversConcurrentBroadcasts(t *testing.T) {
	hub := NewAnalysisHub()
	conn := dialHub(t, hub, 7)

	// fire broadcasts from many goroutines at once, the way risk enrichment
	// does; all frames must arrive intact on the single connection
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(7, map[string]any{"kind": "risk.updated", "ingredient": "peanuts"})
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(msg), "risk.updated")
	}
}

func TestHubScopesBroadcastsByUser(t *testing.T) {
	hub := NewAnalysisHub()
	conn := dialHub(t, hub, 7)

	hub.Broadcast(8, map[string]any{"kind": "chat.reply", "for": "someone else"})
	hub.Broadcast(7, map[string]any{"kind": "chat.reply", "for": "me"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"me"`)
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewAnalysisHub()
	// no sockets registered; must be a no-op
	hub.Broadcast(1, map[string]any{"kind": "risk.updated"})
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	hub := NewAnalysisHub()
	c := &AnalysisClient{hub: hub, userID: 1, send: make(chan []byte, 1)}
	hub.clients[1] = map[*AnalysisClient]struct{}{c: {}}

	hub.remove(c)
	hub.remove(c) // second call must not close the channel again

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.clients)
}
