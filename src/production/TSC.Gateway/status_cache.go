package tscgateway

import "sync"

// statusCache holds the most recently observed status payload per hub.
// Process-lifetime only, never persisted. Bounded: when the cap is reached
// the least recently updated hub is evicted.
type statusCache struct {
	mu      sync.Mutex
	cap     int
	entries map[string]map[string]interface{}
	order   []string // update order, oldest first
}

func newStatusCache(cap int) *statusCache {
	return &statusCache{
		cap:     cap,
		entries: make(map[string]map[string]interface{}),
	}
}

func (c *statusCache) set(mac string, payload map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[mac]; exists {
		c.touch(mac)
		c.entries[mac] = payload
		return
	}

	if len(c.entries) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[mac] = payload
	c.order = append(c.order, mac)
}

func (c *statusCache) get(mac string) (map[string]interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[mac]
	return payload, ok
}

// touch moves mac to the back of the eviction order. Caller holds c.mu.
func (c *statusCache) touch(mac string) {
	for i, m := range c.order {
		if m == mac {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, mac)
}
