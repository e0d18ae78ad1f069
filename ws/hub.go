package ws

import (
	"sync"

	"circle_backend/internal/logger"
)

// Subscriber - живое соединение, прикрепленное к комнате.
// Enqueue не блокируется: false означает, что буфер переполнен
// или соединение уже закрыто.
type Subscriber interface {
	Enqueue(event OutEvent) bool
	SubscriberID() string
}

type roomEntry struct {
	mu          sync.Mutex
	subscribers map[Subscriber]struct{}

	// выставляется под mu, когда опустевший entry вычищен из карты хаба;
	// вставка в такой entry потеряла бы подписчика для всех будущих Publish
	dead bool
}

// RoomHub владеет списками подписчиков по комнатам и доставляет события
// каждому, кроме опционально исключенного отправителя.
//
// Публикации одной комнаты сериализуются ее собственным мьютексом,
// поэтому все подписчики видят события в порядке публикации; разные
// комнаты не делят никакой общий лок и идут параллельно.
//
// Доставка fire-and-forget: медленный подписчик отбрасывается, а не
// тормозит публикацию остальным. Создается при старте процесса и
// передается явно - глобального состояния нет.
type RoomHub struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry

	// вызывается для подписчика, чей буфер переполнен
	onDrop func(roomID string, sub Subscriber)
}

func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms: make(map[string]*roomEntry),
	}
}

// SetDropHandler задает обработчик отбрасывания медленного подписчика.
// Вызывается вне локов комнаты.
func (h *RoomHub) SetDropHandler(fn func(roomID string, sub Subscriber)) {
	h.onDrop = fn
}

// Subscribe прикрепляет соединение к комнате
func (h *RoomHub) Subscribe(roomID string, sub Subscriber) {
	for {
		h.mu.Lock()
		entry, ok := h.rooms[roomID]
		if !ok {
			entry = &roomEntry{subscribers: make(map[Subscriber]struct{})}
			h.rooms[roomID] = entry
		}
		h.mu.Unlock()

		entry.mu.Lock()
		// Между локами конкурентный Unsubscribe мог вычистить опустевшую
		// комнату из карты; такой entry помечен dead, берем свежий
		if entry.dead {
			entry.mu.Unlock()
			continue
		}

		entry.subscribers[sub] = struct{}{}
		entry.mu.Unlock()
		return
	}
}

// Unsubscribe открепляет соединение от комнаты
func (h *RoomHub) Unsubscribe(roomID string, sub Subscriber) {
	h.mu.RLock()
	entry, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	delete(entry.subscribers, sub)
	empty := len(entry.subscribers) == 0
	entry.mu.Unlock()

	if empty {
		h.mu.Lock()
		// перепроверка: кто-то мог подписаться между локами, а слот в карте
		// мог уже заняться новым entry - удаляем только свой
		entry.mu.Lock()
		if len(entry.subscribers) == 0 && h.rooms[roomID] == entry {
			entry.dead = true
			delete(h.rooms, roomID)
		}
		entry.mu.Unlock()
		h.mu.Unlock()
	}
}

// Publish доставляет событие всем текущим подписчикам комнаты, кроме
// exclude. Комната без подписчиков - тихий no-op. Ошибка доставки
// одному получателю никогда не всплывает к отправителю.
func (h *RoomHub) Publish(roomID string, event OutEvent, exclude Subscriber) {
	h.mu.RLock()
	entry, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var dropped []Subscriber

	entry.mu.Lock()
	for sub := range entry.subscribers {
		if sub == exclude {
			continue
		}
		if !sub.Enqueue(event) {
			dropped = append(dropped, sub)
		}
	}
	entry.mu.Unlock()

	for _, sub := range dropped {
		logger.Warn("dropping slow subscriber",
			"room_id", roomID,
			"subscriber", sub.SubscriberID(),
			"event", event.Type,
		)
		if h.onDrop != nil {
			h.onDrop(roomID, sub)
		}
	}
}

// SubscriberCount возвращает число подписчиков комнаты
func (h *RoomHub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	entry, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return len(entry.subscribers)
}
