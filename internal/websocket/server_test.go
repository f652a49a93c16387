package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/pkg/logger"
)

func TestSubscriptionFiltering(t *testing.T) {
	client := &Client{subscriptions: make(map[string]bool)}
	client.setSubscription("31.71.01.1001", true)

	update := &Message{
		Type: MessageTypeForecastUpdate,
		Data: map[string]any{"region_code": "31.71.01.1001"},
	}
	assert.True(t, shouldSendToClient(client, update))

	other := &Message{
		Type: MessageTypeForecastUpdate,
		Data: map[string]any{"region_code": "32.01.01.2001"},
	}
	assert.False(t, shouldSendToClient(client, other))

	// Non-forecast messages always pass
	assert.True(t, shouldSendToClient(client, &Message{Type: "status"}))

	client.setSubscription("31.71.01.1001", false)
	assert.False(t, shouldSendToClient(client, update))
}

func TestForecastUpdateRoundTrip(t *testing.T) {
	server := NewServer(logger.NewNop())
	go server.Run()

	httpServer := httptest.NewServer(http.HandlerFunc(server.HandleConnection))
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	sub := Message{
		Type: MessageTypeSubscribe,
		Data: map[string]any{"region_code": "31.71.01.1001"},
	}
	require.NoError(t, conn.WriteJSON(sub))

	// Wait for the subscription to land in the hub before broadcasting
	require.Eventually(t, func() bool {
		server.mu.RLock()
		defer server.mu.RUnlock()
		for c := range server.clients {
			if c.isSubscribed("31.71.01.1001") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	snapshot := &forecast.Snapshot{
		RegionCode: "31.71.01.1001",
		FetchedAt:  time.Now().UTC(),
	}
	server.BroadcastForecastUpdate("31.71.01.1001", snapshot)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, MessageTypeForecastUpdate, msg.Type)
	assert.Equal(t, "31.71.01.1001", msg.Data["region_code"])
}
