package commandsurface

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// upgrader accepts connections from any origin, matching the teacher's
// wsHandler — the command surface is loopback-only (spec.md's Non-goals:
// "no remote control protocol into the engine from the network"), so
// origin checking adds nothing a bound-address restriction doesn't already
// give.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns the http.Handler serving /ws plus the plain-GET query
// endpoints, for the caller to wrap in a listener (spec.md §4.10a).
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/bindings", h.serveBindings)
	mux.HandleFunc("/capabilities", h.serveCapabilities)
	mux.HandleFunc("/plugins", h.servePlugins)
	mux.HandleFunc("/system-state", h.serveSystemState)
	mux.HandleFunc("/device-info", h.serveDeviceInfo)
	mux.HandleFunc("/page", h.servePage)
	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("commandsurface: websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 8)}
	h.register(c)
	log.WithField("remote", r.RemoteAddr).Info("commandsurface: client connected")

	// Write pump: drains c.send and writes to the socket, mirroring the
	// teacher's wsHandler write goroutine exactly.
	go func() {
		defer conn.Close()
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).Debug("commandsurface: write error")
				return
			}
		}
	}()

	// Read pump: decodes inbound commands and replies directly to c.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.WithField("remote", r.RemoteAddr).Debug("commandsurface: client disconnected")
			h.unregister(c)
			return
		}
		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		go h.handleCommand(c, msg)
	}
}

func (h *Hub) handleCommand(c *client, msg envelope) {
	result, err := h.commands.dispatch(msg.Type, msg.Payload)
	reply := envelope{Type: msg.Type, ID: msg.ID}
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Result = result
	}
	h.sendTo(c, reply)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("commandsurface: response encode failed")
	}
}

func (h *Hub) serveBindings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.commands.deps.Bindings.All())
}

func (h *Hub) serveCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.commands.deps.Registry.Capabilities())
}

func (h *Hub) servePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.commands.deps.Registry.Plugins())
}

func (h *Hub) serveSystemState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.commands.systemStateSnapshot())
}

func (h *Hub) serveDeviceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.commands.deps.Engine.DeviceInfo())
}

func (h *Hub) servePage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Page      int `json:"page"`
		PageCount int `json:"page_count"`
	}{h.commands.deps.Engine.CurrentPage(), h.commands.deps.Engine.PageCount()})
}
