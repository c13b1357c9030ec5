package gateway

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[blackjack.PlayerID]*Connection

	lobby    *lobby.Lobby
	errs     chan<- error
	listener net.Listener
	router   *mux.Router
	closing  atomic.Bool
	dropped  atomic.Uint64
}

// New binds addr and wires the gateway as the lobby's outbound sink. errs may
// be nil; otherwise every connection fault is sent on it as a *ServerError.
func New(addr string, lby *lobby.Lobby, errs chan<- error) (*Gateway, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		connections: make(map[blackjack.PlayerID]*Connection),
		lobby:       lby,
		errs:        errs,
		listener:    ln,
		router:      mux.NewRouter(),
	}
	g.router.HandleFunc("/ws", g.HandleWebSocket).Methods(http.MethodGet)

	if err := lby.SetOutbound(g.deliver); err != nil {
		ln.Close()
		return nil, err
	}
	return g, nil
}

// Router exposes the HTTP router so callers can mount more routes.
func (g *Gateway) Router() *mux.Router {
	return g.router
}

// Addr is the bound listener address.
func (g *Gateway) Addr() net.Addr {
	return g.listener.Addr()
}

// Run serves until ctx is cancelled, then closes the listener and every open
// connection.
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{Handler: g.router}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		g.closing.Store(true)
		srv.Close()
		g.closeAll()
	}()

	log.Printf("[Gateway] Listening on %s", g.listener.Addr())
	err := srv.Serve(g.listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.report(KindUpgrade, blackjack.PlayerID{}, err)
		return
	}

	playerID, err := g.lobby.Admit()
	if err != nil {
		log.Printf("[Gateway] Admit failed: %v", err)
		conn.Close()
		return
	}

	c := newConnection(g, playerID, conn)
	g.mu.Lock()
	g.connections[playerID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: player %s, total: %d", playerID, total)

	go c.readPump()
	go c.writePump()
}

func (g *Gateway) removeConnection(c *Connection) {
	if err := g.lobby.Drop(c.PlayerID); err != nil && !errors.Is(err, lobby.ErrLobbyClosed) {
		log.Printf("[Gateway] Drop player %s: %v", c.PlayerID, err)
	}

	g.mu.Lock()
	if g.connections[c.PlayerID] == c {
		delete(g.connections, c.PlayerID)
	}
	total := len(g.connections)
	g.mu.Unlock()

	c.closeSend()
	log.Printf("[Gateway] Client disconnected: player %s, total: %d", c.PlayerID, total)
}

func (g *Gateway) closeAll() {
	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		c.Conn.Close()
	}
}

// deliver is the lobby's outbound sink. It runs on the lobby actor, so it only
// ever does non-blocking sends.
func (g *Gateway) deliver(out map[blackjack.PlayerID][]blackjack.ClientEvent) {
	for playerID, events := range out {
		if len(events) == 0 {
			continue
		}
		data, err := codec.EncodeEvents(events)
		if err != nil {
			g.report(KindEncode, playerID, err)
			continue
		}
		g.sendToPlayer(playerID, data)
	}
}

// sendToPlayer queues a frame for one player and drops it if the buffer is
// full.
func (g *Gateway) sendToPlayer(playerID blackjack.PlayerID, data []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := g.connections[playerID]
	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[Gateway] Send buffer full, dropping frame for player %s", playerID)
	}
}

func (g *Gateway) report(kind ErrorKind, playerID blackjack.PlayerID, err error) {
	serr := &ServerError{Kind: kind, PlayerID: playerID, Err: err}
	log.Printf("[Gateway] %v", serr)
	if g.errs == nil {
		return
	}
	// report also runs on the lobby actor, so a slow reader loses faults
	// instead of stalling every table.
	select {
	case g.errs <- serr:
	default:
		g.dropped.Add(1)
		log.Printf("[Gateway] Error channel full, dropping: %v", serr)
	}
}

// DroppedErrors counts faults that were logged but did not fit in the error
// channel.
func (g *Gateway) DroppedErrors() uint64 {
	return g.dropped.Load()
}

// ConnectionCount returns the number of registered connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
