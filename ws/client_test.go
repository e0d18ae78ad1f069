package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubSocket - сокет-заглушка: клиентская логика attach/detach не трогает
// сеть, поэтому тестируется без живого соединения
type stubSocket struct {
	closeCalls int
}

func (s *stubSocket) ReadMessage() (int, []byte, error)       { return 0, nil, nil }
func (s *stubSocket) WriteJSON(interface{}) error             { return nil }
func (s *stubSocket) WriteMessage(int, []byte) error          { return nil }
func (s *stubSocket) WriteControl(int, []byte, time.Time) error { return nil }
func (s *stubSocket) SetReadLimit(int64)                      {}
func (s *stubSocket) SetReadDeadline(time.Time) error         { return nil }
func (s *stubSocket) SetPongHandler(func(string) error)       {}
func (s *stubSocket) Close() error {
	s.closeCalls++
	return nil
}

func newTestClient(hub *RoomHub, presence *PresenceTracker, userID string, roomIDs []string) *Client {
	return newClient(
		&stubSocket{},
		userID,
		roomIDs,
		hub,
		presence,
		nil, nil, nil,
		8,
		time.Minute,
		time.Second,
		64*1024,
	)
}

func TestClient_AttachBroadcastsOnlineToPeers(t *testing.T) {
	hub := NewRoomHub()
	presence := NewPresenceTracker()

	peer := newStubSubscriber("peer", 10)
	hub.Subscribe("room-1", peer)

	client := newTestClient(hub, presence, "bob", []string{"room-1"})
	client.attach()

	events := peer.received()
	assert.Len(t, events, 1)
	assert.Equal(t, EventUserOnline, events[0].Type)
	payload, ok := events[0].Payload.(PresencePayload)
	assert.True(t, ok)
	assert.Equal(t, "bob", payload.UserID)

	// собственное событие подключения клиенту не приходит
	select {
	case ev := <-client.send:
		t.Fatalf("client received its own presence event: %v", ev.Type)
	default:
	}

	assert.True(t, presence.IsOnline("room-1", "bob"))
	assert.Equal(t, 2, hub.SubscriberCount("room-1"))
}

func TestClient_SecondConnectionNoDuplicateOnline(t *testing.T) {
	hub := NewRoomHub()
	presence := NewPresenceTracker()

	peer := newStubSubscriber("peer", 10)
	hub.Subscribe("room-1", peer)

	first := newTestClient(hub, presence, "bob", []string{"room-1"})
	second := newTestClient(hub, presence, "bob", []string{"room-1"})
	first.attach()
	second.attach()

	assert.Len(t, peer.received(), 1, "online уходит только на переходе 0 -> 1")

	// первое соединение закрылось - пользователь все еще online
	first.detach()
	assert.Len(t, peer.received(), 1)
	assert.True(t, presence.IsOnline("room-1", "bob"))

	// последнее соединение закрылось - offline
	second.detach()
	events := peer.received()
	assert.Len(t, events, 2)
	assert.Equal(t, EventUserOffline, events[1].Type)
	assert.False(t, presence.IsOnline("room-1", "bob"))
}

func TestClient_DetachIdempotent(t *testing.T) {
	hub := NewRoomHub()
	presence := NewPresenceTracker()

	peer := newStubSubscriber("peer", 10)
	hub.Subscribe("room-1", peer)

	sock := &stubSocket{}
	client := newClient(sock, "bob", []string{"room-1"}, hub, presence,
		nil, nil, nil, 8, time.Minute, time.Second, 64*1024)
	client.attach()

	client.detach()
	client.detach()

	assert.Equal(t, 1, sock.closeCalls, "повторный detach - no-op")
	assert.Len(t, peer.received(), 2) // online + один offline
	assert.Equal(t, 1, hub.SubscriberCount("room-1"))
}

func TestClient_EnqueueAfterDetach(t *testing.T) {
	hub := NewRoomHub()
	presence := NewPresenceTracker()

	client := newTestClient(hub, presence, "bob", []string{"room-1"})
	client.attach()

	assert.True(t, client.Enqueue(OutEvent{Type: EventChatMessage}))

	client.detach()
	assert.False(t, client.Enqueue(OutEvent{Type: EventChatMessage}),
		"закрытое соединение не принимает события")
}

func TestClient_AttachSubscribesAllRooms(t *testing.T) {
	hub := NewRoomHub()
	presence := NewPresenceTracker()

	client := newTestClient(hub, presence, "bob", []string{"room-1", "room-2", "room-3"})
	client.attach()

	for _, roomID := range client.RoomIDs {
		assert.Equal(t, 1, hub.SubscriberCount(roomID))
		assert.True(t, presence.IsOnline(roomID, "bob"))
	}

	client.detach()
	for _, roomID := range client.RoomIDs {
		assert.Equal(t, 0, hub.SubscriberCount(roomID))
		assert.False(t, presence.IsOnline(roomID, "bob"))
	}
}
