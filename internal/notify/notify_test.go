package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"messenger/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkFunc func(evt domain.Event) error

func (f sinkFunc) Deliver(evt domain.Event) error { return f(evt) }

func TestOutbox_DeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	sink := sinkFunc(func(evt domain.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt.MessageID)
		if evt.MessageID == "2" {
			return errors.New("ignored")
		}
		return nil
	})

	o := NewOutbox(8, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, o.Notify(ctx, domain.Event{Type: domain.EventMessage, MessageID: id}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "2", "3"}, got)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, o.Notify(context.Background(), domain.Event{}), ErrOutboxClosed)
}

func TestOutbox_FullQueueDoesNotBlock(t *testing.T) {
	o := NewOutbox(1, sinkFunc(func(domain.Event) error { return nil }), zerolog.Nop())

	require.NoError(t, o.Notify(context.Background(), domain.Event{}))
	assert.ErrorIs(t, o.Notify(context.Background(), domain.Event{}), ErrOutboxFull)
	assert.Equal(t, 1, o.Pending())
}

func dialHub(t *testing.T, h *Hub, userID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return h.Connected(userID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHub_DeliversToSenderAndRecipient(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := dialHub(t, h, "alice")
	bob := dialHub(t, h, "bob")
	carol := dialHub(t, h, "carol")

	evt := domain.Event{Type: domain.EventMessage, SenderID: "alice", RecipientID: "bob", MessageID: "m1"}
	require.NoError(t, h.Deliver(evt))

	for _, conn := range []*websocket.Conn{alice, bob} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got domain.Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "message", got.Type)
		assert.Equal(t, "alice", got.SenderID)
		assert.Equal(t, "bob", got.RecipientID)
		assert.Equal(t, "m1", got.MessageID)
	}

	require.NoError(t, carol.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := carol.ReadMessage()
	assert.Error(t, err, "bystanders receive nothing")
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h := NewHub(zerolog.Nop())
	conn := dialHub(t, h, "dave")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Connected("dave") == 0 }, 2*time.Second, 5*time.Millisecond)

	// Delivering to a user without connections is not an error.
	assert.NoError(t, h.Deliver(domain.Event{SenderID: "x", RecipientID: "dave"}))
}
