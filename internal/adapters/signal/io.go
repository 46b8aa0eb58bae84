package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cl *client, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", cl.id).Msg("readPump closing")
		ctl.disconnect(cl)
		cancel()
		c.Close()
		ctl.forget(c)
		ctl.readers.Done()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PingTimeout))
	c.conn.SetPongHandler(func(string) error {
		// A pong only proves the TCP path is alive; it does not count
		// as room activity for the idle sweeper.
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PingTimeout))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("readPump read error")
				return
			}
			ctl.dispatch(cl, data)
		}
	}
}

// dispatch routes one inbound frame. A panic in a handler is confined
// to this connection.
func (ctl *Controller) dispatch(cl *client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("conn", cl.id).Any("panic", r).Msg("handler panic")
		}
	}()

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", cl.id).Msg("bad json")
		return
	}

	switch env.Event {
	case evJoinRoom:
		ctl.handleJoinRoom(cl, env.Data)
	case evLeaveRoom:
		ctl.handleLeaveRoom(cl)
	case evWebRTCOffer, evWebRTCAnswer, evWebRTCCandidate:
		ctl.handleRelay(cl, env.Event, env.Data)
	case evMediaState:
		ctl.handleMediaState(cl, env.Data)
	case evChatMessage:
		ctl.handleChat(cl, env.Data)
	case evScreenShareStart:
		ctl.handleScreenShare(cl, true)
	case evScreenShareStop:
		ctl.handleScreenShare(cl, false)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}
