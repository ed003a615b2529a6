package tscbridge

import "strings"

// MessageKind enumerates the closed set of inbound message kinds. Topics are
// decoded once at the broker boundary; handlers receive a typed message and
// never re-parse path segments.
type MessageKind int

const (
	KindTelemetry MessageKind = iota
	KindHubStatus
	KindPairingRequest
	KindSyncRequest
	KindSensorDeleted
)

func (k MessageKind) String() string {
	switch k {
	case KindTelemetry:
		return "telemetry"
	case KindHubStatus:
		return "status"
	case KindPairingRequest:
		return "pairing_request"
	case KindSyncRequest:
		return "sync_request"
	case KindSensorDeleted:
		return "sensor_deleted"
	default:
		return "unknown"
	}
}

// InboundMessage is the decoded routing envelope of one broker message.
type InboundMessage struct {
	Kind   MessageKind
	HubMAC string
}

// ParseTopic resolves a topic of the form {root}/{hub_mac}/{suffix} to a
// message kind. The broker may carry unrelated topics; anything that does not
// match the expected family is reported as not-ok and silently ignored by
// the caller.
func ParseTopic(root, topic string) (InboundMessage, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != root || parts[1] == "" {
		return InboundMessage{}, false
	}

	msg := InboundMessage{HubMAC: parts[1]}
	switch strings.Join(parts[2:], "/") {
	case "data":
		msg.Kind = KindTelemetry
	case "status":
		msg.Kind = KindHubStatus
	case "pairing/request":
		msg.Kind = KindPairingRequest
	case "sync/request":
		msg.Kind = KindSyncRequest
	case "sensor/deleted":
		msg.Kind = KindSensorDeleted
	default:
		return InboundMessage{}, false
	}

	return msg, true
}
