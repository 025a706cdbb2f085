package httpapi

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"chiafan-supervisor/supervisor"
)

// broadcastInterval is how often the hub pushes a fresh status payload to
// connected clients.
const broadcastInterval = 2 * time.Second

// clientBuffer caps how many unsent snapshots a slow client tolerates
// before the hub drops it rather than block the broadcaster.
const clientBuffer = 4

// writeDeadline bounds how long a single websocket write may take, so a
// client that accepted the frame but never ACKs it cannot wedge the
// per-client writer goroutine forever.
const writeDeadline = 2 * time.Second

// hub fans a periodic status snapshot out to any number of connected
// websocket clients, reimplemented from the teacher's WebSocketHub but
// scoped to one message type with no inbound command handling. Each
// client gets its own outgoing channel and writer goroutine so a stalled
// client only backs up its own buffer, never the broadcaster's lock -
// mirroring the teacher's non-blocking progress-channel send in
// worker_pool.go's processFileOptimized.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan interface{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan interface{})}
}

// serve is the per-connection websocket handler. It registers the
// connection and starts its writer goroutine, then blocks reading (to
// detect close/error), and unregisters on the way out.
func (h *hub) serve(c *websocket.Conn) {
	out := make(chan interface{}, clientBuffer)

	h.mu.Lock()
	h.clients[c] = out
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, out, done)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(out)
		<-done
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains one client's outgoing channel, applying a write
// deadline per message so a stalled peer is dropped instead of wedging
// this goroutine forever.
func (h *hub) writeLoop(c *websocket.Conn, out chan interface{}, done chan struct{}) {
	defer close(done)

	for payload := range out {
		if err := c.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
			return
		}
		if err := c.WriteJSON(payload); err != nil {
			return
		}
	}
}

// broadcastLoop periodically serializes super's status and pushes it to
// every connected client.
func (h *hub) broadcastLoop(super *supervisor.Supervisor) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.broadcastOnce(super)
	}
}

// broadcastOnce fans the current status out to every client's channel.
// The send is a non-blocking select: a client whose buffer is already
// full is dropped rather than blocking the rest of the broadcast.
func (h *hub) broadcastOnce(super *supervisor.Supervisor) {
	statuses := super.GetStatus()
	payloads := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		payloads = append(payloads, st.ToPayload())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c, out := range h.clients {
		select {
		case out <- payloads:
		default:
			// Buffer full: drop the client. serve's own defer closes
			// out once ReadMessage observes the closed connection, so
			// writeLoop's range never blocks past this Close.
			delete(h.clients, c)
			c.Close()
		}
	}
}
