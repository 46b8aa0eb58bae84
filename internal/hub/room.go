package hub

import (
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sink is the outbound half of a participant's connection as the hub
// sees it. Owned by the adapter, which pushes the frames; the hub only
// stores it, hands it out in recipient snapshots and closes it when it
// evicts a zombie room.
type Sink interface {
	TrySend(data []byte) error
	Close()
}

type member struct {
	p    *domain.Participant
	sink Sink
}

// room is the threadsafe per-room state. All of its mutation happens
// under its own mutex; the registry mutex only guards the room map.
type room struct {
	code domain.RoomCode

	mu         sync.RWMutex
	closed     bool
	hostID     string
	members    map[string]*member
	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code domain.RoomCode, now time.Time) *room {
	return &room{
		code:       code,
		members:    make(map[string]*member),
		createdAt:  now,
		lastActive: now,
	}
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *room) touch(now time.Time) {
	r.mu.Lock()
	r.lastActive = now
	r.mu.Unlock()
}

// rosterLocked returns the membership snapshot in deterministic order:
// join time, then connection id.
func (r *room) rosterLocked() []domain.ParticipantView {
	out := make([]domain.ParticipantView, 0, len(r.members))
	ms := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool {
		a, b := ms[i].p, ms[j].p
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
	for _, m := range ms {
		out = append(out, m.p.View())
	}
	return out
}

func (r *room) roster() []domain.ParticipantView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

// recipientsLocked snapshots the fan-out targets excluding one
// connection. Writes happen after the lock is released.
func (r *room) recipientsLocked(except string) []Recipient {
	out := make([]Recipient, 0, len(r.members))
	for id, m := range r.members {
		if id == except {
			continue
		}
		out = append(out, Recipient{ConnID: id, PeerID: m.p.PeerID, Sink: m.sink})
	}
	return out
}

// promoteLocked flips the host flag to the oldest-joined remaining
// member, breaking ties on the smallest connection id.
func (r *room) promoteLocked() string {
	var oldest *member
	for _, m := range r.members {
		if oldest == nil {
			oldest = m
			continue
		}
		a, b := m.p, oldest.p
		if a.JoinedAt.Before(b.JoinedAt) ||
			(a.JoinedAt.Equal(b.JoinedAt) && a.ID < b.ID) {
			oldest = m
		}
	}
	if oldest == nil {
		return ""
	}
	oldest.p.IsHost = true
	r.hostID = oldest.p.ID
	log.Info().Str("module", "hub.room").Str("room", string(r.code)).Str("host", oldest.p.ID).Msg("host promoted")
	return oldest.p.ID
}
