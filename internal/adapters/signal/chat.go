package signal

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleChat(cl *client, data []byte) {
	if cl.room == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Msg("chat while not in a room")
		return
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("bad chat payload")
		return
	}

	msg := truncateMessage(p.Message, ctl.Cfg.MaxChatLen)
	if msg == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Msg("empty chat message")
		return
	}

	ctl.broadcast(cl.room, cl.id, evChatMessage, gin.H{
		"from":      cl.id,
		"fromName":  cl.name,
		"message":   msg,
		"timestamp": ctl.Clock.Now().UnixMilli(),
	})
	ctl.Hub.Touch(cl.room)
}

// truncateMessage trims whitespace and caps the message at max Unicode
// code points.
func truncateMessage(s string, max int) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > max {
		s = string(runes[:max])
	}
	return s
}
