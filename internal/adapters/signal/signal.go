package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/hub"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket boundary: it upgrades connections,
// runs the per-connection pumps and dispatches inbound events into the
// room registry. Upgraded sockets are hijacked out of net/http, so the
// controller tracks them itself for shutdown.
type Controller struct {
	Hub   *hub.Registry
	Cfg   *config.Config
	Clock hub.Clock

	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   map[*wsConn]struct{}
	readers sync.WaitGroup
}

func NewController(h *hub.Registry, cfg *config.Config) *Controller {
	ctl := &Controller{
		Hub:   h,
		Cfg:   cfg,
		Clock: hub.SystemClock(),
		conns: make(map[*wsConn]struct{}),
	}
	ctl.upgrader = websocket.Upgrader{
		CheckOrigin: originChecker(cfg.Origins()),
	}
	return ctl
}

func (ctl *Controller) track(c *wsConn) {
	ctl.mu.Lock()
	ctl.conns[c] = struct{}{}
	ctl.mu.Unlock()
}

func (ctl *Controller) forget(c *wsConn) {
	ctl.mu.Lock()
	delete(ctl.conns, c)
	ctl.mu.Unlock()
}

// Shutdown closes every live connection, which unblocks the blocked
// reads, then waits for the reader goroutines to run their departure
// paths and drain, or until ctx expires.
func (ctl *Controller) Shutdown(ctx context.Context) {
	ctl.mu.Lock()
	conns := make([]*wsConn, 0, len(ctl.conns))
	for c := range ctl.conns {
		conns = append(conns, c)
	}
	ctl.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		ctl.readers.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Str("module", "signal").Int("conns", len(conns)).Msg("all connections drained")
	case <-ctx.Done():
		log.Warn().Str("module", "signal").Msg("shutdown timeout before readers drained")
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// wsConn wraps one websocket with a buffered outbound channel drained
// by a single writer goroutine. TrySend never blocks; a full channel
// counts as a dropped frame.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// client is the per-connection endpoint state. The room binding and
// peer id are written only by the connection's own reader goroutine.
type client struct {
	id   string
	conn hub.Sink

	room   domain.RoomCode
	peerID string
	name   string
}

// HandleWS upgrades the request and starts the connection's pumps.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	cl := &client{id: uuid.NewString(), conn: conn}
	log.Info().Str("module", "signal").Str("conn", cl.id).Msg("new WS connection")

	ctl.track(conn)
	ctl.readers.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cl, conn)
}

func (ctl *Controller) sendEvent(sink hub.Sink, event string, v any) {
	frame, err := encodeEvent(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("encode event")
		return
	}
	_ = sink.TrySend(frame)
}

func (ctl *Controller) sendRoomError(cl *client, code domain.ErrorCode, msg string) {
	ctl.sendEvent(cl.conn, evRoomError, gin.H{"code": code, "message": msg})
}

// broadcast fans an event out to every room member but one. The
// recipient snapshot is taken inside the registry; writes happen here
// with no lock held and never block on a slow client.
func (ctl *Controller) broadcast(room domain.RoomCode, except string, event string, v any) {
	frame, err := encodeEvent(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("encode broadcast")
		return
	}
	sent, dropped := 0, 0
	for _, rcp := range ctl.Hub.Recipients(room, except) {
		if err := rcp.Sink.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "signal").Str("room", string(room)).Str("event", event).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}
