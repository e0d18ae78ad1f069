package ws

import "sync"

type roomPresence struct {
	mu     sync.Mutex
	counts map[string]int // userID -> число живых соединений

	// выставляется под mu, когда опустевший entry вычищен из карты
	dead bool
}

// PresenceTracker держит множество подключенных пользователей по комнатам.
// Несколько одновременных соединений одного пользователя считаются по
// ссылкам: offline наступает только когда счетчик дошел до нуля.
//
// Состояние живет в памяти и перестраивается с нуля при рестарте процесса -
// это кэш живых соединений, а не источник истины о членстве.
type PresenceTracker struct {
	mu    sync.RWMutex
	rooms map[string]*roomPresence
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		rooms: make(map[string]*roomPresence),
	}
}

func (t *PresenceTracker) room(roomID string) *roomPresence {
	t.mu.Lock()
	defer t.mu.Unlock()
	rp, ok := t.rooms[roomID]
	if !ok {
		rp = &roomPresence{counts: make(map[string]int)}
		t.rooms[roomID] = rp
	}
	return rp
}

// Join инкрементирует счетчик соединений. true - переход Offline -> Online
// (первое живое соединение пользователя в комнате).
func (t *PresenceTracker) Join(roomID, userID string) bool {
	for {
		rp := t.room(roomID)

		rp.mu.Lock()
		// конкурентный Leave мог вычистить опустевший entry из карты
		if rp.dead {
			rp.mu.Unlock()
			continue
		}
		rp.counts[userID]++
		first := rp.counts[userID] == 1
		rp.mu.Unlock()
		return first
	}
}

// Leave декрементирует счетчик. true - переход Online -> Offline
// (закрылось последнее соединение).
func (t *PresenceTracker) Leave(roomID, userID string) bool {
	t.mu.RLock()
	rp, ok := t.rooms[roomID]
	t.mu.RUnlock()
	if !ok {
		return false
	}

	rp.mu.Lock()
	count, ok := rp.counts[userID]
	if !ok {
		rp.mu.Unlock()
		return false
	}

	last := count <= 1
	if last {
		delete(rp.counts, userID)
	} else {
		rp.counts[userID] = count - 1
	}
	empty := len(rp.counts) == 0
	rp.mu.Unlock()

	// опустевшие комнаты вычищаются, иначе карта растет без предела.
	// Слот в карте мог уже заняться новым entry - удаляем только свой.
	if empty {
		t.mu.Lock()
		rp.mu.Lock()
		if len(rp.counts) == 0 && t.rooms[roomID] == rp {
			rp.dead = true
			delete(t.rooms, roomID)
		}
		rp.mu.Unlock()
		t.mu.Unlock()
	}

	return last
}

// IsOnline проверяет, есть ли у пользователя живое соединение в комнате
func (t *PresenceTracker) IsOnline(roomID, userID string) bool {
	t.mu.RLock()
	rp, ok := t.rooms[roomID]
	t.mu.RUnlock()
	if !ok {
		return false
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.counts[userID] > 0
}

// Online возвращает снимок множества подключенных пользователей комнаты
func (t *PresenceTracker) Online(roomID string) []string {
	t.mu.RLock()
	rp, ok := t.rooms[roomID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	users := make([]string, 0, len(rp.counts))
	for userID := range rp.counts {
		users = append(users, userID)
	}
	return users
}
