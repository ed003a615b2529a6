package tscgateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

// Event names delivered to viewer sessions.
const (
	EventSensorData     = "sensorData"
	EventHubStatus      = "hubStatus"
	EventPairingRequest = "pairingRequest"
)

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub maintains one broadcast group per hub MAC. Group membership lives only
// as long as the session's network connection; viewers rejoin on reconnect.
// The hub also owns the transient last-known-status cache so a viewer joining
// after a status event is handed the latest state immediately.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Session]struct{}

	status     *statusCache
	logger     *logger.Logger
	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewHub creates the fan-out hub. The status cache is owned here and passed
// by reference to whoever needs read access; there is no global accessor.
func NewHub(cfg config.GatewayConfig, log *logger.Logger) *Hub {
	return &Hub{
		groups:     make(map[string]map[*Session]struct{}),
		status:     newStatusCache(cfg.StatusCacheSize),
		logger:     log.WithComponent("gateway"),
		sendBuffer: cfg.SendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS layer in front
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Emit broadcasts an event to every session joined to the hub's group.
// Sessions outside the group never see it. Slow consumers are skipped rather
// than allowed to block the inbound message stream.
func (h *Hub) Emit(hubMAC, event string, data interface{}) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.ErrorWithError(err, "failed to marshal broadcast event")
		return
	}

	mac := tscmodels.NormalizeMAC(hubMAC)

	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.groups[mac]))
	for s := range h.groups[mac] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		select {
		case s.send <- payload:
		default:
		}
	}
}

// SetHubStatus stores the most recent status payload for a hub and returns
// the merged payload that should be broadcast.
func (h *Hub) SetHubStatus(hubMAC string, fields map[string]interface{}) map[string]interface{} {
	mac := tscmodels.NormalizeMAC(hubMAC)

	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["hub_mac"] = mac

	h.status.set(mac, payload)
	return payload
}

// HubStatus returns the last observed status payload for a hub, if any.
func (h *Hub) HubStatus(hubMAC string) (map[string]interface{}, bool) {
	return h.status.get(tscmodels.NormalizeMAC(hubMAC))
}

// GroupSize reports the current number of sessions in a hub's group.
func (h *Hub) GroupSize(hubMAC string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[tscmodels.NormalizeMAC(hubMAC)])
}

// join subscribes a session to a hub group. A malformed MAC is a no-op: no
// group is created and no error is surfaced to the session.
func (h *Hub) join(s *Session, hubMAC string) {
	if !tscmodels.ValidMAC(hubMAC) {
		return
	}
	mac := tscmodels.NormalizeMAC(hubMAC)

	h.mu.Lock()
	group, ok := h.groups[mac]
	if !ok {
		group = make(map[*Session]struct{})
		h.groups[mac] = group
	}
	group[s] = struct{}{}
	s.joined[mac] = struct{}{}
	h.mu.Unlock()

	// Replay the last known hub status so the viewer does not have to wait
	// for the next broadcast.
	if status, ok := h.status.get(mac); ok {
		if payload, err := json.Marshal(envelope{Event: EventHubStatus, Data: status}); err == nil {
			select {
			case s.send <- payload:
			default:
			}
		}
	}
}

func (h *Hub) leave(s *Session, hubMAC string) {
	if !tscmodels.ValidMAC(hubMAC) {
		return
	}
	mac := tscmodels.NormalizeMAC(hubMAC)

	h.mu.Lock()
	h.detach(s, mac)
	h.mu.Unlock()
}

// removeSession drops a session from every group it joined. Called once when
// the connection closes.
func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	for mac := range s.joined {
		h.detach(s, mac)
	}
	h.mu.Unlock()
}

// detach must be called with h.mu held.
func (h *Hub) detach(s *Session, mac string) {
	if group, ok := h.groups[mac]; ok {
		delete(group, s)
		if len(group) == 0 {
			delete(h.groups, mac)
		}
	}
	delete(s.joined, mac)
}

// HandleWS upgrades an HTTP request to a viewer session websocket.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorWithError(err, "websocket upgrade failed")
		return
	}

	s := newSession(h, conn)
	go s.writePump()
	go s.readPump()
}
