package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubSubscriber собирает доставленные события; cap имитирует
// переполненный буфер медленного клиента
type stubSubscriber struct {
	id     string
	cap    int
	mu     sync.Mutex
	events []OutEvent
}

func newStubSubscriber(id string, capacity int) *stubSubscriber {
	return &stubSubscriber{id: id, cap: capacity}
}

func (s *stubSubscriber) SubscriberID() string { return s.id }

func (s *stubSubscriber) Enqueue(event OutEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.cap {
		return false
	}
	s.events = append(s.events, event)
	return true
}

func (s *stubSubscriber) received() []OutEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestRoomHub_PublishOrderPreserved(t *testing.T) {
	hub := NewRoomHub()
	sub := newStubSubscriber("a", 1000)
	hub.Subscribe("room-1", sub)

	const n = 200
	for i := 0; i < n; i++ {
		hub.Publish("room-1", OutEvent{Type: EventChatMessage, Payload: i}, nil)
	}

	events := sub.received()
	assert.Len(t, events, n)
	for i, ev := range events {
		assert.Equal(t, i, ev.Payload, "events must arrive in publish order")
	}
}

func TestRoomHub_ExcludesSender(t *testing.T) {
	hub := NewRoomHub()
	sender := newStubSubscriber("sender", 10)
	peer := newStubSubscriber("peer", 10)
	hub.Subscribe("room-1", sender)
	hub.Subscribe("room-1", peer)

	hub.Publish("room-1", OutEvent{Type: EventChatMessage, Payload: "hi"}, sender)

	assert.Empty(t, sender.received())
	assert.Len(t, peer.received(), 1)
}

func TestRoomHub_PublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewRoomHub()

	// не должно ни паниковать, ни ошибаться
	hub.Publish("ghost-room", OutEvent{Type: EventChatMessage, Payload: "x"}, nil)

	assert.Equal(t, 0, hub.SubscriberCount("ghost-room"))
}

func TestRoomHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewRoomHub()
	slow := newStubSubscriber("slow", 0) // буфер всегда полон
	fast := newStubSubscriber("fast", 10)
	hub.Subscribe("room-1", slow)
	hub.Subscribe("room-1", fast)

	var droppedID string
	hub.SetDropHandler(func(roomID string, sub Subscriber) {
		droppedID = sub.SubscriberID()
		hub.Unsubscribe(roomID, sub)
	})

	hub.Publish("room-1", OutEvent{Type: EventChatMessage, Payload: "m"}, nil)

	assert.Len(t, fast.received(), 1, "fast subscriber still gets the event")
	assert.Equal(t, "slow", droppedID)
	assert.Equal(t, 1, hub.SubscriberCount("room-1"))
}

func TestRoomHub_Unsubscribe(t *testing.T) {
	hub := NewRoomHub()
	sub := newStubSubscriber("a", 10)
	hub.Subscribe("room-1", sub)
	assert.Equal(t, 1, hub.SubscriberCount("room-1"))

	hub.Unsubscribe("room-1", sub)
	assert.Equal(t, 0, hub.SubscriberCount("room-1"))

	hub.Publish("room-1", OutEvent{Type: EventChatMessage, Payload: "m"}, nil)
	assert.Empty(t, sub.received())

	// повторный Unsubscribe безопасен
	hub.Unsubscribe("room-1", sub)
}

func TestRoomHub_SubscribeDuringLastUnsubscribe(t *testing.T) {
	// Гонка: последний подписчик уходит (entry вычищается из карты),
	// пока новый одновременно подписывается. Новый не должен застрять
	// в осиротевшем entry, иначе все Publish для него молча теряются.
	for i := 0; i < 10000; i++ {
		hub := NewRoomHub()
		old := newStubSubscriber("old", 10)
		hub.Subscribe("room-1", old)

		fresh := newStubSubscriber("fresh", 10)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Unsubscribe("room-1", old)
		}()
		go func() {
			defer wg.Done()
			hub.Subscribe("room-1", fresh)
		}()
		wg.Wait()

		hub.Publish("room-1", OutEvent{Type: EventChatMessage, Payload: "m"}, nil)

		if len(fresh.received()) != 1 {
			t.Fatalf("iteration %d: subscriber attached to orphaned room entry, event lost", i)
		}
		assert.Equal(t, 1, hub.SubscriberCount("room-1"))
	}
}

func TestRoomHub_RoomsAreIndependent(t *testing.T) {
	hub := NewRoomHub()
	a := newStubSubscriber("a", 100)
	b := newStubSubscriber("b", 100)
	hub.Subscribe("room-a", a)
	hub.Subscribe("room-b", b)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			hub.Publish("room-a", OutEvent{Type: EventChatMessage, Payload: fmt.Sprintf("a-%d", i)}, nil)
		}(i)
		go func(i int) {
			defer wg.Done()
			hub.Publish("room-b", OutEvent{Type: EventChatMessage, Payload: fmt.Sprintf("b-%d", i)}, nil)
		}(i)
	}
	wg.Wait()

	assert.Len(t, a.received(), 50)
	assert.Len(t, b.received(), 50)
}
