package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_CreatesClient(t *testing.T) {
	hub := NewHub(nil)

	client := NewClient(hub, nil, 42, nil)

	assert.NotNil(t, client)
	assert.Equal(t, hub, client.hub)
	assert.Equal(t, uint(42), client.userID)
	assert.NotNil(t, client.send)
}

func TestClient_HandleMessage_PingAnswersPong(t *testing.T) {
	client := NewClient(NewHub(nil), nil, 3, nil)

	data, err := json.Marshal(Event{Type: EventPing})
	require.NoError(t, err)
	client.handleMessage(data)

	evt := receive(t, client)
	assert.Equal(t, EventPong, evt.Type)
	assert.Equal(t, uint(3), evt.UserID)
}

func TestClient_HandleMessage_SendsErrorForInvalidJSON(t *testing.T) {
	client := NewClient(NewHub(nil), nil, 1, nil)

	client.handleMessage([]byte("invalid json"))

	evt := receive(t, client)
	assert.Equal(t, EventError, evt.Type)
	assert.Contains(t, evt.Error, "invalid message format")
}

func TestClient_HandleMessage_SendsErrorForUnknownType(t *testing.T) {
	client := NewClient(NewHub(nil), nil, 1, nil)

	data, err := json.Marshal(Event{Type: "subscribe"})
	require.NoError(t, err)
	client.handleMessage(data)

	evt := receive(t, client)
	assert.Equal(t, EventError, evt.Type)
	assert.Contains(t, evt.Error, "unknown message type")
}

func TestClient_SendChannel_DropsWhenFull(t *testing.T) {
	client := NewClient(NewHub(nil), nil, 1, nil)

	for i := 0; i < cap(client.send)+10; i++ {
		client.sendError("test error")
	}

	assert.Equal(t, cap(client.send), len(client.send))
}

func TestEventTypes_AreCorrectValues(t *testing.T) {
	assert.Equal(t, EventType("new_message"), EventNewMessage)
	assert.Equal(t, EventType("unread_count"), EventUnreadCount)
	assert.Equal(t, EventType("ping"), EventPing)
	assert.Equal(t, EventType("pong"), EventPong)
	assert.Equal(t, EventType("error"), EventError)
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventPong})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}
