package tscgateway

import (
	"encoding/json"
	"testing"

	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
)

func newTestHub() *Hub {
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
	return NewHub(config.GatewayConfig{StatusCacheSize: 4, SendBuffer: 8}, log)
}

func newTestSession(h *Hub) *Session {
	return &Session{
		hub:    h,
		send:   make(chan []byte, h.sendBuffer),
		joined: make(map[string]struct{}),
	}
}

func receiveEvent(t *testing.T, s *Session) envelope {
	t.Helper()
	select {
	case payload := <-s.send:
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return env
	default:
		t.Fatal("expected an event in the session buffer")
		return envelope{}
	}
}

func TestEmitScopedToJoinedGroup(t *testing.T) {
	h := newTestHub()
	viewer := newTestSession(h)
	outsider := newTestSession(h)

	h.join(viewer, "aa:bb:cc:dd:ee:01")
	h.join(outsider, "AA:BB:CC:DD:EE:02")

	h.Emit("AA:BB:CC:DD:EE:01", EventSensorData, map[string]string{"sensor_mac": "11:22:33:44:55:66"})

	env := receiveEvent(t, viewer)
	if env.Event != EventSensorData {
		t.Fatalf("expected %s event, got %s", EventSensorData, env.Event)
	}

	select {
	case <-outsider.send:
		t.Fatal("session outside the group must not receive the event")
	default:
	}
}

func TestJoinMalformedMACIsNoop(t *testing.T) {
	h := newTestHub()
	s := newTestSession(h)

	h.join(s, "not-a-mac")
	h.join(s, "AA:BB:CC:DD:EE")

	if len(h.groups) != 0 {
		t.Fatalf("no group should exist after malformed joins, got %d", len(h.groups))
	}
	if len(s.joined) != 0 {
		t.Fatal("session must not be marked joined")
	}
}

func TestLeaveAndRemoveSession(t *testing.T) {
	h := newTestHub()
	s := newTestSession(h)

	h.join(s, "AA:BB:CC:DD:EE:01")
	h.join(s, "AA:BB:CC:DD:EE:02")
	if h.GroupSize("AA:BB:CC:DD:EE:01") != 1 {
		t.Fatal("expected session in group")
	}

	h.leave(s, "aa:bb:cc:dd:ee:01")
	if h.GroupSize("AA:BB:CC:DD:EE:01") != 0 {
		t.Fatal("leave must remove the session from the group")
	}

	h.removeSession(s)
	if len(h.groups) != 0 {
		t.Fatal("removeSession must drop all remaining memberships")
	}
}

func TestJoinReplaysCachedStatus(t *testing.T) {
	h := newTestHub()
	h.SetHubStatus("AA:BB:CC:DD:EE:01", map[string]interface{}{"uptime": 42.0})

	late := newTestSession(h)
	h.join(late, "AA:BB:CC:DD:EE:01")

	env := receiveEvent(t, late)
	if env.Event != EventHubStatus {
		t.Fatalf("expected %s replay, got %s", EventHubStatus, env.Event)
	}
	data := env.Data.(map[string]interface{})
	if data["hub_mac"] != "AA:BB:CC:DD:EE:01" {
		t.Fatalf("expected hub_mac merged into payload, got %v", data)
	}
	if data["uptime"] != 42.0 {
		t.Fatalf("expected cached fields preserved, got %v", data)
	}
}

func TestSetHubStatusOverwrites(t *testing.T) {
	h := newTestHub()
	h.SetHubStatus("AA:BB:CC:DD:EE:01", map[string]interface{}{"rssi": -40})
	h.SetHubStatus("AA:BB:CC:DD:EE:01", map[string]interface{}{"rssi": -55})

	status, ok := h.HubStatus("aa:bb:cc:dd:ee:01")
	if !ok {
		t.Fatal("expected cached status")
	}
	if status["rssi"] != -55 {
		t.Fatalf("expected latest status to win, got %v", status)
	}
}

func TestStatusCacheEvictsOldest(t *testing.T) {
	c := newStatusCache(2)
	c.set("A", map[string]interface{}{"n": 1})
	c.set("B", map[string]interface{}{"n": 2})
	c.set("A", map[string]interface{}{"n": 3}) // refresh A, B is now oldest
	c.set("C", map[string]interface{}{"n": 4})

	if _, ok := c.get("B"); ok {
		t.Fatal("expected least recently updated entry to be evicted")
	}
	if _, ok := c.get("A"); !ok {
		t.Fatal("refreshed entry must survive")
	}
	if _, ok := c.get("C"); !ok {
		t.Fatal("new entry must be present")
	}
}
