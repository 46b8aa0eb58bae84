package signal

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleMediaState(cl *client, data []byte) {
	if cl.room == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Msg("media-state while not in a room")
		return
	}
	var p mediaStatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("bad media-state payload")
		return
	}

	ctl.broadcast(cl.room, cl.id, evMediaStateChanged, gin.H{
		"participantId": cl.id,
		"peerId":        cl.peerID,
		"videoEnabled":  p.VideoEnabled,
		"audioEnabled":  p.AudioEnabled,
		"screenSharing": p.ScreenSharing,
	})
	ctl.Hub.Touch(cl.room)
}

func (ctl *Controller) handleScreenShare(cl *client, started bool) {
	if cl.room == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Msg("screen-share while not in a room")
		return
	}
	event := evScreenShareStopped
	if started {
		event = evScreenShareStarted
	}
	ctl.broadcast(cl.room, cl.id, event, gin.H{
		"participantId": cl.id,
		"peerId":        cl.peerID,
	})
	ctl.Hub.Touch(cl.room)
}
