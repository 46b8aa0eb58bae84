package hub

import (
	"strconv"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Recipient is a fan-out target snapshotted under the room lock.
type Recipient struct {
	ConnID string
	PeerID string
	Sink   Sink
}

// JoinResult is what a successful create/join hands back to the adapter.
type JoinResult struct {
	Room     domain.RoomCode
	Self     domain.ParticipantView
	Roster   []domain.ParticipantView
	Rejoined bool
}

// LeaveResult reports what a departure changed.
type LeaveResult struct {
	WasMember  bool
	WasHost    bool
	NewHostID  string
	RoomClosed bool
	Left       domain.ParticipantView
	Roster     []domain.ParticipantView
}

// Stats is the read-only registry summary for the admin surface.
type Stats struct {
	TotalRooms        int            `json:"totalRooms"`
	TotalParticipants int            `json:"totalParticipants"`
	RoomsBySize       map[string]int `json:"roomsBySize"`
}

// EvictedRoom is one room removed by an idle sweep, with the sinks of
// whatever zombie connections it still held.
type EvictedRoom struct {
	Code       domain.RoomCode
	Recipients []Recipient
}

// Registry is the process-wide owner of all rooms. The registry mutex
// guards only the room map; each room serialises its own state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*room

	maxParticipants int
	clock           Clock
}

func NewRegistry(maxParticipants int, clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock()
	}
	return &Registry{
		rooms:           make(map[domain.RoomCode]*room),
		maxParticipants: maxParticipants,
		clock:           clock,
	}
}

// Create makes a new room with the caller as host. Fails with
// domain.ErrRoomExists if the code is taken.
func (g *Registry) Create(code domain.RoomCode, connID, peerID, name string, sink Sink) (JoinResult, error) {
	now := g.clock.Now()

	g.mu.Lock()
	if old, ok := g.rooms[code]; ok {
		old.mu.RLock()
		closed := old.closed
		old.mu.RUnlock()
		if !closed {
			g.mu.Unlock()
			return JoinResult{}, domain.ErrRoomExists
		}
		// A closed room on its way out of the map does not block reuse
		// of the code.
		delete(g.rooms, code)
	}
	r := newRoom(code, now)
	p := domain.NewParticipant(connID, peerID, name, true, now)
	r.hostID = connID
	r.members[connID] = &member{p: p, sink: sink}
	g.rooms[code] = r
	g.mu.Unlock()

	log.Info().Str("module", "hub.registry").Str("room", string(code)).Str("conn", connID).Msg("room created")
	return JoinResult{
		Room:   code,
		Self:   p.View(),
		Roster: []domain.ParticipantView{p.View()},
	}, nil
}

// Join adds a connection to an existing room. It is idempotent for a
// connection id that is already a member.
func (g *Registry) Join(code domain.RoomCode, connID, peerID, name string, sink Sink) (JoinResult, error) {
	r, ok := g.lookup(code)
	if !ok {
		return JoinResult{}, domain.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// The room emptied out between lookup and lock.
		return JoinResult{}, domain.ErrRoomNotFound
	}
	if m, ok := r.members[connID]; ok {
		return JoinResult{Room: code, Self: m.p.View(), Roster: r.rosterLocked(), Rejoined: true}, nil
	}
	if len(r.members) >= g.maxParticipants {
		return JoinResult{}, domain.ErrRoomFull
	}
	for _, m := range r.members {
		if m.p.PeerID == peerID {
			return JoinResult{}, domain.ErrPeerIDTaken
		}
	}

	now := g.clock.Now()
	p := domain.NewParticipant(connID, peerID, name, false, now)
	r.members[connID] = &member{p: p, sink: sink}
	r.lastActive = now

	log.Info().Str("module", "hub.registry").Str("room", string(code)).Str("conn", connID).Str("peer", peerID).Msg("participant joined")
	return JoinResult{Room: code, Self: p.View(), Roster: r.rosterLocked()}, nil
}

// Leave removes a connection from a room. Unknown rooms and unknown
// connections are no-ops. The last departure deletes the room; a
// departing host is replaced by the oldest-joined remaining member.
func (g *Registry) Leave(code domain.RoomCode, connID string) LeaveResult {
	r, ok := g.lookup(code)
	if !ok {
		return LeaveResult{}
	}

	r.mu.Lock()
	m, ok := r.members[connID]
	if r.closed || !ok {
		r.mu.Unlock()
		return LeaveResult{}
	}

	delete(r.members, connID)
	res := LeaveResult{
		WasMember: true,
		WasHost:   m.p.IsHost,
		Left:      m.p.View(),
	}
	if len(r.members) == 0 {
		r.closed = true
		res.RoomClosed = true
	} else {
		if res.WasHost {
			res.NewHostID = r.promoteLocked()
		}
		res.Roster = r.rosterLocked()
	}
	r.lastActive = g.clock.Now()
	r.mu.Unlock()

	if res.RoomClosed {
		g.drop(code, r)
	}
	if res.WasMember {
		log.Info().Str("module", "hub.registry").Str("room", string(code)).Str("conn", connID).Bool("was_host", res.WasHost).Bool("closed", res.RoomClosed).Msg("participant left")
	}
	return res
}

// RoomSummary is the read-only room header returned by Get.
type RoomSummary struct {
	Code         domain.RoomCode
	Participants int
	HostID       string
	CreatedAt    time.Time
}

// Get looks up a room by its normalized code.
func (g *Registry) Get(code domain.RoomCode) (RoomSummary, bool) {
	r, ok := g.lookup(code)
	if !ok {
		return RoomSummary{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return RoomSummary{}, false
	}
	return RoomSummary{
		Code:         r.code,
		Participants: len(r.members),
		HostID:       r.hostID,
		CreatedAt:    r.createdAt,
	}, true
}

// Participants returns a roster snapshot safe to hand across the
// component boundary.
func (g *Registry) Participants(code domain.RoomCode) []domain.ParticipantView {
	r, ok := g.lookup(code)
	if !ok {
		return nil
	}
	return r.roster()
}

// Recipients snapshots the fan-out targets of a room minus one
// connection. Callers write to the sinks with no lock held.
func (g *Registry) Recipients(code domain.RoomCode, except string) []Recipient {
	r, ok := g.lookup(code)
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recipientsLocked(except)
}

// ResolvePeer maps a peer id to its member within one room.
func (g *Registry) ResolvePeer(code domain.RoomCode, peerID string) (Recipient, bool) {
	r, ok := g.lookup(code)
	if !ok {
		return Recipient{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, m := range r.members {
		if m.p.PeerID == peerID {
			return Recipient{ConnID: id, PeerID: peerID, Sink: m.sink}, true
		}
	}
	return Recipient{}, false
}

// Touch refreshes a room's last-activity timestamp. Semantic traffic
// only; transport pings never reach this.
func (g *Registry) Touch(code domain.RoomCode) {
	if r, ok := g.lookup(code); ok {
		r.touch(g.clock.Now())
	}
}

// Stats summarises the registry for the admin surface.
func (g *Registry) Stats() Stats {
	g.mu.RLock()
	rooms := make([]*room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	st := Stats{RoomsBySize: make(map[string]int)}
	for _, r := range rooms {
		n := r.size()
		if n == 0 {
			continue
		}
		st.TotalRooms++
		st.TotalParticipants += n
		st.RoomsBySize[strconv.Itoa(n)]++
	}
	return st
}

// SweepIdle deletes every room whose last activity is older than
// maxIdle and returns what was evicted so the caller can close the
// leftover sinks.
func (g *Registry) SweepIdle(maxIdle time.Duration) []EvictedRoom {
	cutoff := g.clock.Now().Add(-maxIdle)

	g.mu.RLock()
	rooms := make([]*room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	var evicted []EvictedRoom
	for _, r := range rooms {
		r.mu.Lock()
		if r.closed || r.lastActive.After(cutoff) {
			r.mu.Unlock()
			continue
		}
		r.closed = true
		ev := EvictedRoom{Code: r.code, Recipients: r.recipientsLocked("")}
		r.members = make(map[string]*member)
		r.mu.Unlock()

		g.drop(r.code, r)
		evicted = append(evicted, ev)
	}
	return evicted
}

func (g *Registry) lookup(code domain.RoomCode) (*room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	return r, ok
}

// drop removes a closed room from the map, unless the code was already
// reused by a newer room.
func (g *Registry) drop(code domain.RoomCode, r *room) {
	g.mu.Lock()
	if cur, ok := g.rooms[code]; ok && cur == r {
		delete(g.rooms, code)
	}
	g.mu.Unlock()
}
