// Package room implements the per-showtime broadcast groups.  The
// broadcaster is pure pub/sub: it holds no seat state of its own and
// delivery is best-effort, at-most-once per viewer.
package room

import (
    "sync"

    "github.com/cinelive/reservation-engine/internal/model"
)

// Viewer is one connected client of a showtime room.  Deliver must
// not block: implementations push into a buffered channel and report
// false when the buffer is full, at which point the broadcaster
// detaches the viewer so one stuck connection cannot stall the rest.
type Viewer interface {
    Deliver(ev model.Event) bool
    Close()
}

// Broadcaster fans events out to every viewer currently joined to a
// showtime.  Rooms are created on first join and garbage-collected
// when the last viewer leaves.
type Broadcaster struct {
    mu    sync.RWMutex
    rooms map[uint64]map[Viewer]struct{}
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
    return &Broadcaster{rooms: make(map[uint64]map[Viewer]struct{})}
}

// Join adds a viewer to a showtime room.  Joining twice is a no-op.
// Callers are expected to follow up with a full status snapshot so a
// late joiner is not missing history.
func (b *Broadcaster) Join(showtimeID uint64, v Viewer) {
    b.mu.Lock()
    defer b.mu.Unlock()

    members, ok := b.rooms[showtimeID]
    if !ok {
        members = make(map[Viewer]struct{})
        b.rooms[showtimeID] = members
    }
    members[v] = struct{}{}
}

// Leave removes a viewer from a showtime room, dropping the room
// entirely when it becomes empty.
func (b *Broadcaster) Leave(showtimeID uint64, v Viewer) {
    b.mu.Lock()
    defer b.mu.Unlock()
    b.remove(showtimeID, v)
}

// Publish delivers an event to every viewer of the showtime.  Viewers
// that cannot keep up are detached and closed instead of blocking the
// caller; a failed delivery to one viewer never affects the others.
func (b *Broadcaster) Publish(showtimeID uint64, ev model.Event) {
    b.mu.RLock()
    var stalled []Viewer
    for v := range b.rooms[showtimeID] {
        if !v.Deliver(ev) {
            stalled = append(stalled, v)
        }
    }
    b.mu.RUnlock()

    if len(stalled) == 0 {
        return
    }
    b.mu.Lock()
    for _, v := range stalled {
        b.remove(showtimeID, v)
        v.Close()
    }
    b.mu.Unlock()
}

// ViewerCount reports how many viewers are joined to a showtime.
func (b *Broadcaster) ViewerCount(showtimeID uint64) int {
    b.mu.RLock()
    defer b.mu.RUnlock()
    return len(b.rooms[showtimeID])
}

// remove expects b.mu to be held for writing.
func (b *Broadcaster) remove(showtimeID uint64, v Viewer) {
    members, ok := b.rooms[showtimeID]
    if !ok {
        return
    }
    delete(members, v)
    if len(members) == 0 {
        delete(b.rooms, showtimeID)
    }
}
