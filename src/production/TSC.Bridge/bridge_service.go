package tscbridge

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

// Broadcaster is the slice of the fan-out gateway the bridge needs: emit an
// event to a hub's viewer group and maintain the last-known status cache.
type Broadcaster interface {
	Emit(hubMAC, event string, data interface{})
	SetHubStatus(hubMAC string, fields map[string]interface{}) map[string]interface{}
}

// publisher abstracts the outbound side of the broker connection.
type publisher interface {
	Connected() bool
	Publish(topic string, payload []byte) error
}

type pahoPublisher struct {
	client mqtt.Client
}

func (p *pahoPublisher) Connected() bool {
	return p.client != nil && p.client.IsConnected()
}

func (p *pahoPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Bridge connects the MQTT broker to the store and the live fan-out gateway.
// It subscribes to the hub topic family, routes each message to its handler
// and publishes reconciliation traffic back to hubs.
type Bridge struct {
	cfg       config.MQTTConfig
	brokerURL string

	devices  interfaces.DeviceRepository
	sensors  interfaces.SensorRepository
	readings interfaces.ReadingRepository
	pairing  interfaces.PairingRepository

	gateway Broadcaster
	logger  *logger.Logger

	client mqtt.Client
	pub    publisher
}

func New(cfg *config.Config, devices interfaces.DeviceRepository, sensors interfaces.SensorRepository,
	readings interfaces.ReadingRepository, pairing interfaces.PairingRepository,
	gateway Broadcaster, log *logger.Logger) *Bridge {
	return &Bridge{
		cfg:       cfg.MQTT,
		brokerURL: cfg.GetMQTTBrokerURL(),
		devices:   devices,
		sensors:   sensors,
		readings:  readings,
		pairing:   pairing,
		gateway:   gateway,
		logger:    log.WithComponent("bridge"),
	}
}

// Start connects to the broker and subscribes to the hub topic family.
// Reconnects and resubscription are handled by the client; a dropped message
// is the broker's redelivery problem, not ours.
func (b *Bridge) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.brokerURL).
		SetClientID(b.cfg.ClientID).
		SetKeepAlive(b.cfg.KeepAlive).
		SetPingTimeout(b.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetCleanSession(false)

	// Order matters: handlers run to completion one message at a time, in
	// arrival order. The soft-delete/reactivation guard is race-free within
	// a process only under sequential dispatch.
	opts.SetOrderMatters(true)

	if b.cfg.BrokerUser != "" {
		opts.SetUsername(b.cfg.BrokerUser)
		opts.SetPassword(b.cfg.BrokerPass)
	}

	if b.cfg.UseTLS {
		tlsCfg, err := b.tlsConfig(b.cfg.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		b.logger.ErrorWithError(err, "mqtt connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		filters := map[string]byte{
			b.cfg.TopicRoot + "/+/data":            1,
			b.cfg.TopicRoot + "/+/status":          1,
			b.cfg.TopicRoot + "/+/pairing/request": 1,
			b.cfg.TopicRoot + "/+/sync/request":    1,
			b.cfg.TopicRoot + "/+/sensor/deleted":  1,
		}
		b.logger.WithField("broker", b.brokerURL).Info("mqtt connected, subscribing")
		if token := c.SubscribeMultiple(filters, b.onMessage); token.Wait() && token.Error() != nil {
			b.logger.ErrorWithError(token.Error(), "mqtt subscribe failed")
		}
	}

	b.client = mqtt.NewClient(opts)
	b.pub = &pahoPublisher{client: b.client}
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

// Stop disconnects from the broker.
func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(500)
	}
}

// IsConnected reports whether the broker connection is up.
func (b *Bridge) IsConnected() bool {
	return b.pub != nil && b.pub.Connected()
}

// onMessage routes one broker message. A handler error is logged and the
// stream moves on; one bad message must never wedge the bridge.
func (b *Bridge) onMessage(_ mqtt.Client, m mqtt.Message) {
	msg, ok := ParseTopic(b.cfg.TopicRoot, m.Topic())
	if !ok {
		return
	}

	if err := b.dispatch(context.Background(), msg, m.Payload()); err != nil {
		b.logger.WithField("topic", m.Topic()).ErrorWithError(err, "handler failed")
	}
}

// dispatch decodes the payload for the message kind and runs the handler.
// Undecodable payloads are logged and dropped without surfacing an error.
func (b *Bridge) dispatch(ctx context.Context, msg InboundMessage, payload []byte) error {
	switch msg.Kind {
	case KindTelemetry:
		var p tscmodels.TelemetryPayload
		if !b.decode(msg, payload, &p) {
			return nil
		}
		return b.handleTelemetry(ctx, msg.HubMAC, p)
	case KindHubStatus:
		var fields map[string]interface{}
		if !b.decode(msg, payload, &fields) {
			return nil
		}
		return b.handleHubStatus(msg.HubMAC, fields)
	case KindPairingRequest:
		var p tscmodels.PairingAnnouncement
		if !b.decode(msg, payload, &p) {
			return nil
		}
		return b.handlePairingRequest(ctx, msg.HubMAC, p)
	case KindSyncRequest:
		// no payload fields
		return b.handleSyncRequest(ctx, msg.HubMAC)
	case KindSensorDeleted:
		var p tscmodels.PairingAnnouncement
		if !b.decode(msg, payload, &p) {
			return nil
		}
		return b.handleSensorDeleted(ctx, msg.HubMAC, p)
	}
	return nil
}

func (b *Bridge) decode(msg InboundMessage, payload []byte, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		b.logger.WithField("kind", msg.Kind.String()).
			WithField("hub", msg.HubMAC).
			Warn("invalid JSON payload dropped")
		return false
	}
	return true
}

func (b *Bridge) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
