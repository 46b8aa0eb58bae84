package domain

import (
	"fmt"
	"strings"
	"time"
)

const MaxNameLen = 64

// Participant is one connection's membership of one room.
// The ID is the transport-assigned connection id; PeerID is the
// client-chosen address other clients use for unicast signaling.
type Participant struct {
	ID       string
	PeerID   string
	Name     string
	IsHost   bool
	JoinedAt time.Time
}

// ParticipantView is a read-only snapshot handed across component
// boundaries and serialized to clients.
type ParticipantView struct {
	ID     string `json:"id"`
	PeerID string `json:"peerId"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

func (p *Participant) View() ParticipantView {
	return ParticipantView{ID: p.ID, PeerID: p.PeerID, Name: p.Name, IsHost: p.IsHost}
}

// NewParticipant trims the display name and applies the deterministic
// fallback for an empty one.
func NewParticipant(connID, peerID, name string, isHost bool, joinedAt time.Time) *Participant {
	name = strings.TrimSpace(name)
	if name == "" {
		name = FallbackName(connID)
	}
	if r := []rune(name); len(r) > MaxNameLen {
		name = string(r[:MaxNameLen])
	}
	return &Participant{
		ID:       connID,
		PeerID:   peerID,
		Name:     name,
		IsHost:   isHost,
		JoinedAt: joinedAt,
	}
}

// FallbackName derives a stable display name from the connection id.
func FallbackName(connID string) string {
	short := connID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("guest-%s", short)
}
