package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleRelay forwards one negotiation fragment to exactly one peer in
// the sender's room. The fragment body is never parsed, and the `from`
// field is stamped from the sender's participant record, so a client
// cannot forge its identity.
func (ctl *Controller) handleRelay(cl *client, kind string, data []byte) {
	if cl.room == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Str("kind", kind).Msg("relay while not in a room")
		return
	}

	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Str("kind", kind).Msg("bad relay payload")
		return
	}
	if p.To == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Str("kind", kind).Msg("relay without target")
		return
	}

	rcp, ok := ctl.Hub.ResolvePeer(cl.room, p.To)
	if !ok {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Str("room", string(cl.room)).Str("to", p.To).Str("kind", kind).Msg("relay target not in room")
		return
	}

	ctl.sendEvent(rcp.Sink, kind, relayOut{
		To:        p.To,
		From:      cl.peerID,
		Offer:     p.Offer,
		Answer:    p.Answer,
		Candidate: p.Candidate,
	})
	ctl.Hub.Touch(cl.room)
}
