// Package commandsurface is C12, the Command Surface: one loopback HTTP+
// WebSocket listener carrying the query/mutation commands spec.md §4.12
// names and the named events of spec.md §6's "Event surface to GUI".
// Grounded on the teacher's server/hub.go Hub/client/broadcast idiom
// (client{conn, send chan []byte}, RWMutex-guarded client set, a
// register/unregister pair, send-then-broadcast helpers), re-targeted from
// sensor broadcast to binding/capability RPCs and retargeted engine events.
package commandsurface

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("commandsurface")

// client mirrors the teacher's client struct exactly: a connection plus a
// buffered outbound channel drained by a dedicated write pump.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// envelope is the single wire shape for both directions: inbound commands
// carry Type (+ optional ID for request/response correlation) and Payload
// as the command's parameters; outbound messages reuse it for both RPC
// responses (ID set, Result/Error populated) and fire-and-forget named
// events (ID empty, Payload populated).
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Hub owns the set of connected GUI clients and dispatches inbound
// commands against the daemon's shared state. One instance per process.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	commands *commandSet
}

// New returns a Hub wired against deps. See Dependencies for the
// dependency list.
func New(deps Dependencies) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		commands: newCommandSet(deps),
	}
}

// SetEngine and SetState patch in the engine/state-manager dependencies
// once they exist. main.go constructs the Hub first (the engine and state
// manager both need it as their event sink), so these two references are
// wired in after the fact rather than at New — call both before Handler
// starts accepting connections.
func (h *Hub) SetEngine(e Engine) { h.commands.deps.Engine = e }
func (h *Hub) SetState(s State)   { h.commands.deps.State = s }

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// sendTo enqueues msg on c's outbound channel, dropping it if the client's
// buffer is full rather than blocking the caller — a slow GUI client must
// never stall command dispatch or engine event emission.
func (h *Hub) sendTo(c *client, msg envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("commandsurface: marshal outbound message failed")
		return
	}
	select {
	case c.send <- data:
	default:
		log.WithField("type", msg.Type).Warn("commandsurface: client send buffer full, dropping message")
	}
}

// broadcastAll sends msg to every currently-registered client, matching the
// teacher's broadcastAll.
func (h *Hub) broadcastAll(msg envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("commandsurface: marshal broadcast message failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.WithField("type", msg.Type).Warn("commandsurface: client send buffer full, dropping broadcast")
		}
	}
}

// EmitEvent implements hidengine.EventEmitter and statemanager's onChange
// hook: both forward a named payload here for fan-out to every GUI client.
func (h *Hub) EmitEvent(name string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("event", name).Warn("commandsurface: marshal event payload failed")
		return
	}
	h.broadcastAll(envelope{Type: name, Payload: raw})
}
