package signal

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/hub"
)

func (ctl *Controller) handleJoinRoom(cl *client, data []byte) {
	if cl.room != "" {
		ctl.sendRoomError(cl, domain.CodeAlreadyInRoom, "already in a room")
		return
	}

	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("bad join payload")
		ctl.sendRoomError(cl, domain.CodeInvalidRoomCode, "missing or invalid room code")
		return
	}

	code := domain.NormalizeRoomCode(p.RoomCode)
	if !code.Valid() {
		ctl.sendRoomError(cl, domain.CodeInvalidRoomCode, "missing or invalid room code")
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		ctl.sendRoomError(cl, domain.CodeNameRequired, "display name is required")
		return
	}
	peerID := strings.TrimSpace(p.PeerID)
	if peerID == "" {
		ctl.sendRoomError(cl, domain.CodePeerIDRequired, "peer id is required")
		return
	}

	var (
		res hub.JoinResult
		err error
	)
	if p.IsHost {
		res, err = ctl.Hub.Create(code, cl.id, peerID, p.Name, cl.conn)
	} else {
		res, err = ctl.Hub.Join(code, cl.id, peerID, p.Name, cl.conn)
	}
	if err != nil {
		var re *domain.RoomError
		if errors.As(err, &re) {
			ctl.sendRoomError(cl, re.Code, re.Message)
		} else {
			log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("join failed")
			ctl.sendRoomError(cl, domain.CodeServerError, "internal error")
		}
		return
	}

	cl.room = code
	cl.peerID = peerID
	cl.name = res.Self.Name
	log.Info().Str("module", "signal").Str("conn", cl.id).Str("room", string(code)).Bool("host", res.Self.IsHost).Msg("joined room")

	ctl.sendEvent(cl.conn, evRoomJoined, gin.H{
		"roomCode":     code,
		"isHost":       res.Self.IsHost,
		"participants": res.Roster,
	})
	if !res.Rejoined {
		ctl.broadcast(code, cl.id, evParticipantJoined, gin.H{"participant": res.Self})
		ctl.broadcast(code, cl.id, evParticipantsUpdate, gin.H{"participants": res.Roster})
	}
}

func (ctl *Controller) handleLeaveRoom(cl *client) {
	if cl.room == "" {
		log.Warn().Str("module", "signal").Str("conn", cl.id).Msg("leave-room while not in a room")
		return
	}
	ctl.depart(cl, true)
}

// disconnect runs the departure path for a dropped connection. Safe to
// call on a connection that never joined or already left.
func (ctl *Controller) disconnect(cl *client) {
	if cl.room == "" {
		return
	}
	ctl.depart(cl, false)
}

// depart is the one exit path: explicit leave and transport drop differ
// only in whether the sender still gets a room-left frame.
func (ctl *Controller) depart(cl *client, notifySelf bool) {
	room := cl.room
	res := ctl.Hub.Leave(room, cl.id)
	cl.room = ""
	cl.peerID = ""
	cl.name = ""

	if notifySelf {
		ctl.sendEvent(cl.conn, evRoomLeft, gin.H{})
	}
	if !res.WasMember || res.RoomClosed {
		return
	}
	ctl.broadcast(room, cl.id, evParticipantLeft, gin.H{
		"participantId": res.Left.ID,
		"peerId":        res.Left.PeerID,
	})
	ctl.broadcast(room, cl.id, evParticipantsUpdate, gin.H{"participants": res.Roster})
}
