package bus

import (
	"log"
	"sync"
)

// Handle is a single live connection capable of receiving pushed events.
type Handle interface {
	Emit(ev string, args ...any) error
}

// Bus tracks which principals currently hold live connections and fans
// events out to all of them. A principal may be connected from several
// devices at once; every handle gets every push.
type Bus struct {
	mu         sync.RWMutex
	handles    map[uint]map[string]Handle
	principals map[string]uint
}

func New() *Bus {
	return &Bus{
		handles:    map[uint]map[string]Handle{},
		principals: map[string]uint{},
	}
}

// Join registers a connection under a principal. A connection id can only
// belong to one principal; rejoining moves it.
func (b *Bus) Join(principalID uint, connID string, h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.principals[connID]; ok && prev != principalID {
		delete(b.handles[prev], connID)
		if len(b.handles[prev]) == 0 {
			delete(b.handles, prev)
		}
	}
	if b.handles[principalID] == nil {
		b.handles[principalID] = map[string]Handle{}
	}
	b.handles[principalID][connID] = h
	b.principals[connID] = principalID
}

func (b *Bus) Leave(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	principalID, ok := b.principals[connID]
	if !ok {
		return
	}
	delete(b.principals, connID)
	delete(b.handles[principalID], connID)
	if len(b.handles[principalID]) == 0 {
		delete(b.handles, principalID)
	}
}

// PrincipalOf reports which principal a connection was joined as.
func (b *Bus) PrincipalOf(connID string) (uint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.principals[connID]
	return id, ok
}

func (b *Bus) Online(principalID uint) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handles[principalID]) > 0
}

// Push emits the event to every live connection of the principal and
// returns how many handles it reached. Zero means the recipient is
// offline and the caller should rely on the stored copy.
//
// Emits run on the caller's goroutine outside the registry lock, so
// concurrent pushes to one principal may interleave; the store, not the
// live channel, is the order of record for a thread.
func (b *Bus) Push(principalID uint, event string, payload any) int {
	b.mu.RLock()
	snapshot := make([]Handle, 0, len(b.handles[principalID]))
	for _, h := range b.handles[principalID] {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		if err := h.Emit(event, payload); err != nil {
			log.Printf("Error emitting %s to principal [%d]: %s\n", event, principalID, err.Error())
		}
	}
	return len(snapshot)
}
