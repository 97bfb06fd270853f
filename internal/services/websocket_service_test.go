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
	"go.uber.org/zap"

	"slidedeck/internal/models"
)

func startHub(t *testing.T) (*WebSocketService, string) {
	t.Helper()
	hub := NewWebSocketService(zap.NewNop())
	go hub.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn)
	}))
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, hub *WebSocketService, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 5*time.Millisecond)
	return conn
}

// viewerMessage mirrors Message without decoding slides into the
// interface type.
type viewerMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Snapshot *struct {
		Slides         []json.RawMessage `json:"slides"`
		CurrentSlideID string            `json:"currentSlideId"`
		EditMode       bool              `json:"editMode"`
	} `json:"snapshot"`
}

func readMessage(t *testing.T, conn *websocket.Conn) viewerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg viewerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketServiceBroadcastsStoreChanges(t *testing.T) {
	hub, url := startHub(t)
	conn := dialHub(t, hub, url, 1)

	store, err := NewSlideStore(NewMemorySlot(), WithPublisher(hub), WithNotifier(hub), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	require.True(t, store.SetCurrentSlideID("default-content"))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSlides, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "default-content", msg.Snapshot.CurrentSlideID)

	require.NoError(t, store.SetSlides([]models.Slide{&models.DrawingSlide{ID: "only"}}, true))
	_ = readMessage(t, conn)

	deleted, err := store.DeleteSlide("only")
	require.NoError(t, err)
	assert.False(t, deleted)
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeWarning, msg.Type)
	assert.Equal(t, lastSlideWarning, msg.Message)
}

func TestWebSocketServiceSendsLatestOnConnect(t *testing.T) {
	hub, url := startHub(t)
	hub.PublishSlides(models.Snapshot{CurrentSlideID: "s1"})
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.latest != nil
	}, time.Second, 5*time.Millisecond)

	conn := dialHub(t, hub, url, 1)
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSlides, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "s1", msg.Snapshot.CurrentSlideID)
}

func TestWebSocketServiceUnregistersClosedViewers(t *testing.T) {
	hub, url := startHub(t)
	conn := dialHub(t, hub, url, 1)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
