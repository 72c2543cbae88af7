package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/app/orch"
	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/minwoo-dev/talklink/internal/metrics"
)

var ErrBackpressure = errors.New("backpressure")

// WSController owns the websocket hub and translates inbound events into
// engine calls. It implements core.Dispatcher, so the engine fans out
// through it without knowing about transports.
type WSController struct {
	Engine  *orch.Engine
	Metrics *metrics.Metrics

	mu    sync.RWMutex
	conns map[domain.ConnID]*WsSignalConn

	joinLimiter *JoinRateLimiter
}

func NewWSController(engine *orch.Engine, m *metrics.Metrics) *WSController {
	return &WSController{
		Engine:      engine,
		Metrics:     m,
		conns:       make(map[domain.ConnID]*WsSignalConn),
		joinLimiter: NewJoinRateLimiter(10, time.Minute),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*WsSignalConn)(nil)

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

// -- core.Dispatcher --

func (ctl *WSController) Unicast(id domain.ConnID, v any) {
	ctl.mu.RLock()
	conn, ok := ctl.conns[id]
	ctl.mu.RUnlock()
	if ok {
		ctl.sendJSON(conn, v)
	}
}

func (ctl *WSController) Multicast(ids []domain.ConnID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("multicast marshal")
		return
	}
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	for _, id := range ids {
		if conn, ok := ctl.conns[id]; ok {
			_ = conn.TrySend(b)
		}
	}
}

func (ctl *WSController) All(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	for _, conn := range ctl.conns {
		_ = conn.TrySend(b)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection's pumps. The
// client token minted by the router middleware is the connection id.
func (ctl *WSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctl.mu.Lock()
	if prev, ok := ctl.conns[id]; ok {
		prev.Close()
	}
	ctl.conns[id] = conn
	ctl.mu.Unlock()
	ctl.Metrics.WSConnections.Inc()

	ctx, cancel := context.WithCancel(ctx)
	ctl.Engine.Connect(id)

	go ctl.writePump(ctx, conn)
	go func() {
		ctl.readPump(ctx, id, conn)
		cancel()
		if ctl.release(id, conn) {
			ctl.Engine.Disconnect(context.Background(), id)
		}
		ctl.Metrics.WSConnections.Dec()
	}()
}

// release drops conn's hub registration, reporting whether conn still
// owned the id. The client token survives reconnects, so a superseded
// socket must not tear down the presence its successor now owns.
func (ctl *WSController) release(id domain.ConnID, conn *WsSignalConn) bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.conns[id] != conn {
		return false
	}
	delete(ctl.conns, id)
	return true
}

func (ctl *WSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *WSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, core.NewErrorEvent(err.Error()))
}
