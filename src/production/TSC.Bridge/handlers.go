package tscbridge

import (
	"context"
	"time"

	tscgateway "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Gateway"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
)

// handleTelemetry ingests one data frame: upsert the sensor, append a
// reading, broadcast to the hub's viewer group.
//
// The upsert reactivates only sensors that are still active. If the sensor
// was soft-deleted the whole message is aborted: no reading, no broadcast.
// The hub may keep sending frames for a deleted sensor until it processes
// the removal; those frames must not resurrect it.
func (b *Bridge) handleTelemetry(ctx context.Context, hubMAC string, p tscmodels.TelemetryPayload) error {
	if p.SensorMAC == "" {
		return nil
	}

	device, err := b.devices.GetDeviceByMAC(ctx, hubMAC)
	if err != nil {
		return err
	}
	if device == nil {
		// telemetry never creates a hub implicitly
		return nil
	}

	sensorMAC := tscmodels.NormalizeMAC(p.SensorMAC)
	sensorID, ok, err := b.sensors.UpsertActiveSensor(ctx, device.ID, sensorMAC, tscmodels.DefaultSensorName(sensorMAC))
	if err != nil {
		return err
	}
	if !ok {
		b.logger.WithField("hub", device.MAC).WithField("sensor", sensorMAC).
			Debug("data frame for soft-deleted sensor dropped")
		return nil
	}

	temp := tscmodels.NormalizeMeasure(p.Temp)
	hum := tscmodels.NormalizeMeasure(p.Hum)
	battery := tscmodels.NullableIntFrom(p.Battery)
	rssi := tscmodels.NullableIntFrom(p.RSSI)

	if err := b.readings.InsertReading(ctx, tscmodels.Reading{
		SensorID: sensorID,
		Temp:     temp,
		Hum:      hum,
		Battery:  battery,
		RSSI:     rssi,
	}); err != nil {
		return err
	}

	b.gateway.Emit(device.MAC, tscgateway.EventSensorData, tscmodels.SensorDataEvent{
		SensorMAC: sensorMAC,
		Temp:      temp,
		Hum:       hum,
		Battery:   battery,
		RSSI:      rssi,
		Ts:        time.Now().UnixMilli(),
	})

	return nil
}

// handleHubStatus caches the latest status payload and relays it to the
// hub's viewer group. Nothing is persisted.
func (b *Bridge) handleHubStatus(hubMAC string, fields map[string]interface{}) error {
	mac := tscmodels.NormalizeMAC(hubMAC)
	payload := b.gateway.SetHubStatus(mac, fields)
	b.gateway.Emit(mac, tscgateway.EventHubStatus, payload)
	return nil
}

// handlePairingRequest records a hub's announcement of an unpaired sensor.
// Hubs retransmit the announcement until acknowledged, so an existing
// pending request for the same (hub, sensor) pair swallows the duplicate.
func (b *Bridge) handlePairingRequest(ctx context.Context, hubMAC string, p tscmodels.PairingAnnouncement) error {
	if p.SensorMAC == "" {
		return nil
	}

	device, err := b.devices.GetDeviceByMAC(ctx, hubMAC)
	if err != nil {
		return err
	}
	if device == nil {
		return nil
	}

	sensorMAC := tscmodels.NormalizeMAC(p.SensorMAC)
	pending, err := b.pairing.HasPendingRequest(ctx, device.ID, sensorMAC)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	id, err := b.pairing.CreateRequest(ctx, device.ID, sensorMAC)
	if err != nil {
		return err
	}

	b.gateway.Emit(device.MAC, tscgateway.EventPairingRequest, tscmodels.PairingRequestEvent{
		ID:        id,
		HubMAC:    device.MAC,
		SensorMAC: sensorMAC,
		Ts:        time.Now().UnixMilli(),
	})

	return nil
}

// handleSyncRequest replies with the authoritative active-sensor list. The
// hub converges its local peer table to exactly this list; the store is the
// single source of truth for membership and naming.
func (b *Bridge) handleSyncRequest(ctx context.Context, hubMAC string) error {
	if !b.IsConnected() {
		return nil
	}

	device, err := b.devices.GetDeviceByMAC(ctx, hubMAC)
	if err != nil {
		return err
	}
	if device == nil {
		return nil
	}

	sensors, err := b.sensors.ListActiveSensors(ctx, device.ID)
	if err != nil {
		return err
	}

	if err := b.publishSyncReply(device.MAC, sensors); err != nil {
		return err
	}

	b.logger.WithField("hub", device.MAC).WithField("sensors", len(sensors)).
		Info("pushed sync reply")
	return nil
}

// handleSensorDeleted reflects a hub-local deletion into the store. The
// soft delete is conditional on the sensor being active, so a repeated
// notice matches nothing and is accepted silently.
func (b *Bridge) handleSensorDeleted(ctx context.Context, hubMAC string, p tscmodels.PairingAnnouncement) error {
	if p.SensorMAC == "" {
		return nil
	}

	device, err := b.devices.GetDeviceByMAC(ctx, hubMAC)
	if err != nil {
		return err
	}
	if device == nil {
		return nil
	}

	sensorMAC := tscmodels.NormalizeMAC(p.SensorMAC)
	deleted, err := b.sensors.SoftDeleteSensor(ctx, device.ID, sensorMAC)
	if err != nil {
		return err
	}
	if deleted {
		b.logger.WithField("hub", device.MAC).WithField("sensor", sensorMAC).
			Info("hub locally deleted sensor, marked inactive")
	}

	return nil
}
