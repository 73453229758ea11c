package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectClient registers a server-side connection for userID in hub and
// returns the client end
func connectClient(t *testing.T, hub *WSHub, userID string) *websocket.Conn {
	t.Helper()

	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not registered")
	}
	return client
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSHub_SendToUser(t *testing.T) {
	hub := NewWSHub()
	client := connectClient(t, hub, "user-1")

	assert.True(t, hub.IsOnline("user-1"))
	assert.False(t, hub.IsOnline("user-2"))
	assert.Equal(t, 1, hub.OnlineCount())

	err := hub.SendToUser("user-1", WSMessage{Type: EventFriendRequestReceived, Data: map[string]string{"id": "r1"}})
	require.NoError(t, err)

	msg := readMessage(t, client)
	assert.Equal(t, EventFriendRequestReceived, msg.Type)
	assert.Equal(t, map[string]interface{}{"id": "r1"}, msg.Data)
}

func TestWSHub_SendToOfflineUser(t *testing.T) {
	hub := NewWSHub()
	err := hub.SendToUser("nobody", WSMessage{Type: "ping"})
	assert.Error(t, err)
}

func TestWSHub_RegisterReplacesPreviousConnection(t *testing.T) {
	hub := NewWSHub()
	first := connectClient(t, hub, "user-1")
	second := connectClient(t, hub, "user-1")
	assert.Equal(t, 1, hub.OnlineCount())

	// The replaced connection is closed by the hub
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	require.NoError(t, hub.SendToUser("user-1", WSMessage{Type: "hello"}))
	assert.Equal(t, "hello", readMessage(t, second).Type)
}

func TestWSHub_UnregisterIgnoresStaleConnection(t *testing.T) {
	hub := NewWSHub()
	client := connectClient(t, hub, "user-2")
	hub.mu.RLock()
	live := hub.connections["user-2"].conn
	hub.mu.RUnlock()

	// A different connection for the same user leaves the live one alone
	hub.Unregister("user-2", &websocket.Conn{})
	assert.True(t, hub.IsOnline("user-2"))

	hub.Unregister("user-2", live)
	assert.False(t, hub.IsOnline("user-2"))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}
