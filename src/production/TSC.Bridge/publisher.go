package tscbridge

import (
	"encoding/json"
	"fmt"

	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

// Outbound reconciliation traffic. The two administrator-facing operations
// fail differently: a pairing decision must surface a broker outage to the
// caller, while a sensor-remove command is best-effort. The hub's next sync
// request converges it anyway, and the administrator's delete must not be
// blocked by a down broker.

func (b *Bridge) topicFor(hubMAC, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", b.cfg.TopicRoot, tscmodels.NormalizeMAC(hubMAC), suffix)
}

// publishSyncReply sends the authoritative sensor list on the hub's sync
// reply topic.
func (b *Bridge) publishSyncReply(hubMAC string, sensors []tscmodels.SensorSummary) error {
	payload, err := json.Marshal(tscmodels.SyncReply{Sensors: sensors})
	if err != nil {
		return err
	}
	return b.pub.Publish(b.topicFor(hubMAC, "sync"), payload)
}

// PublishPairingDecision relays an administrator's approve/reject decision
// to the hub. Returns an error when the broker connection is down: the
// decision is invoked synchronously from an administrator action and the
// caller must know it did not reach the hub.
func (b *Bridge) PublishPairingDecision(hubMAC, sensorMAC string, approved bool) error {
	if !b.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	payload, err := json.Marshal(tscmodels.PairingDecision{
		SensorMAC: tscmodels.NormalizeMAC(sensorMAC),
		Approved:  approved,
	})
	if err != nil {
		return err
	}

	return b.pub.Publish(b.topicFor(hubMAC, "pairing/response"), payload)
}

// PublishSensorRemove tells a hub to drop a sensor from its local memory and
// peer table after an administrator hard delete. Best-effort: when the
// broker is down the command is logged and abandoned, and the hub picks up
// the removal from its next sync cycle.
func (b *Bridge) PublishSensorRemove(hubMAC, sensorMAC string) {
	sensor := tscmodels.NormalizeMAC(sensorMAC)

	if !b.IsConnected() {
		b.logger.WithField("hub", hubMAC).WithField("sensor", sensor).
			Warn("broker down, sensor removal deferred to next sync")
		return
	}

	payload, err := json.Marshal(tscmodels.SensorRemoveCommand{SensorMAC: sensor})
	if err != nil {
		b.logger.ErrorWithError(err, "failed to marshal sensor remove command")
		return
	}

	if err := b.pub.Publish(b.topicFor(hubMAC, "sensor/remove"), payload); err != nil {
		b.logger.WithField("hub", hubMAC).WithField("sensor", sensor).
			ErrorWithError(err, "failed to publish sensor remove")
		return
	}

	b.logger.WithField("hub", hubMAC).WithField("sensor", sensor).
		Info("sent sensor remove command")
}
