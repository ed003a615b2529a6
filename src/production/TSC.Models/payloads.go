package tscmodels

// Inbound MQTT payloads. Fields are pointers so the handlers can tell an
// absent value apart from a literal zero.

// TelemetryPayload is the body of sensors/{hub}/data.
type TelemetryPayload struct {
	SensorMAC string   `json:"sensor_mac"`
	Temp      *float64 `json:"temp"`
	Hum       *float64 `json:"hum"`
	Battery   *int64   `json:"battery"`
	RSSI      *int64   `json:"rssi"`
}

// PairingAnnouncement is the body of sensors/{hub}/pairing/request and
// sensors/{hub}/sensor/deleted.
type PairingAnnouncement struct {
	SensorMAC string `json:"sensor_mac"`
}

// Outbound MQTT payloads.

// SyncReply carries the authoritative active-sensor list for a hub.
type SyncReply struct {
	Sensors []SensorSummary `json:"sensors"`
}

// PairingDecision tells a hub whether a pairing request was approved.
type PairingDecision struct {
	SensorMAC string `json:"sensor_mac"`
	Approved  bool   `json:"approved"`
}

// SensorRemoveCommand tells a hub to drop a sensor from its peer table.
type SensorRemoveCommand struct {
	SensorMAC string `json:"sensor_mac"`
}

// Events pushed to viewer sessions joined to a hub group.

// SensorDataEvent mirrors a stored reading out to live viewers.
type SensorDataEvent struct {
	SensorMAC string        `json:"sensor_mac"`
	Temp      NullableFloat `json:"temp"`
	Hum       NullableFloat `json:"hum"`
	Battery   NullableInt   `json:"battery"`
	RSSI      NullableInt   `json:"rssi"`
	Ts        int64         `json:"ts"`
}

// PairingRequestEvent announces a new pending pairing request to viewers.
type PairingRequestEvent struct {
	ID        int64  `json:"id"`
	HubMAC    string `json:"hub_mac"`
	SensorMAC string `json:"sensor_mac"`
	Ts        int64  `json:"ts"`
}
