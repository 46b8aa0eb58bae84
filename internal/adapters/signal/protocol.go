package signal

import "encoding/json"

// Client → server events.
const (
	evJoinRoom         = "join-room"
	evLeaveRoom        = "leave-room"
	evWebRTCOffer      = "webrtc-offer"
	evWebRTCAnswer     = "webrtc-answer"
	evWebRTCCandidate  = "webrtc-ice-candidate"
	evMediaState       = "media-state"
	evChatMessage      = "chat-message"
	evScreenShareStart = "screen-share-start"
	evScreenShareStop  = "screen-share-stop"
)

// Server → client events.
const (
	evRoomJoined         = "room-joined"
	evRoomError          = "room-error"
	evRoomLeft           = "room-left"
	evParticipantJoined  = "participant-joined"
	evParticipantLeft    = "participant-left"
	evParticipantsUpdate = "participants-update"
	evMediaStateChanged  = "media-state-changed"
	evScreenShareStarted = "screen-share-started"
	evScreenShareStopped = "screen-share-stopped"
)

// envelope is the one frame shape on the wire, both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	PeerID   string `json:"peerId"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
}

// relayPayload carries a negotiation fragment. The fragment fields stay
// json.RawMessage end to end; the hub never looks inside them. There is
// deliberately no inbound `from` field to read.
type relayPayload struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// relayOut is the relayed fragment with the server-stamped sender.
type relayOut struct {
	To        string          `json:"to"`
	From      string          `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type mediaStatePayload struct {
	VideoEnabled  bool `json:"videoEnabled"`
	AudioEnabled  bool `json:"audioEnabled"`
	ScreenSharing bool `json:"screenSharing,omitempty"`
}

type chatPayload struct {
	Message string `json:"message"`
}

func encodeEvent(event string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: data})
}
