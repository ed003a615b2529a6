package tscbridge

import (
	"context"
	"database/sql"
	"time"

	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

// fakeStore implements all four repository interfaces over in-memory slices,
// mirroring each SQL statement's semantics including the conditional
// reactivation guard.
type fakeStore struct {
	devices  []tscmodels.Device
	sensors  []tscmodels.Sensor
	readings []tscmodels.Reading
	pairing  []tscmodels.PairingRequest

	nextSensorID  int64
	nextPairingID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextSensorID: 1, nextPairingID: 1}
}

func (s *fakeStore) addDevice(id int64, mac string) {
	s.devices = append(s.devices, tscmodels.Device{ID: id, MAC: tscmodels.NormalizeMAC(mac), RegisteredAt: time.Now()})
}

func (s *fakeStore) RegisterDevice(ctx context.Context, mac string, name *string, apiKey string) (*tscmodels.Device, error) {
	d := tscmodels.Device{ID: int64(len(s.devices) + 1), MAC: tscmodels.NormalizeMAC(mac), APIKey: apiKey, RegisteredAt: time.Now()}
	s.devices = append(s.devices, d)
	return &d, nil
}

func (s *fakeStore) GetDeviceByMAC(ctx context.Context, mac string) (*tscmodels.Device, error) {
	norm := tscmodels.NormalizeMAC(mac)
	for i := range s.devices {
		if s.devices[i].MAC == norm {
			return &s.devices[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetDeviceByID(ctx context.Context, id int64) (*tscmodels.Device, error) {
	for i := range s.devices {
		if s.devices[i].ID == id {
			return &s.devices[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListDevices(ctx context.Context) ([]tscmodels.Device, error) {
	return s.devices, nil
}

func (s *fakeStore) UpsertActiveSensor(ctx context.Context, deviceID int64, mac, defaultName string) (int64, bool, error) {
	for i := range s.sensors {
		if s.sensors[i].DeviceID == deviceID && s.sensors[i].MAC == mac {
			if !s.sensors[i].Active {
				return 0, false, nil
			}
			return s.sensors[i].ID, true, nil
		}
	}
	sensor := tscmodels.Sensor{
		ID:       s.nextSensorID,
		DeviceID: deviceID,
		MAC:      mac,
		Name:     defaultName,
		Active:   true,
		PairedAt: time.Now(),
	}
	s.nextSensorID++
	s.sensors = append(s.sensors, sensor)
	return sensor.ID, true, nil
}

func (s *fakeStore) SoftDeleteSensor(ctx context.Context, deviceID int64, mac string) (bool, error) {
	for i := range s.sensors {
		if s.sensors[i].DeviceID == deviceID && s.sensors[i].MAC == mac && s.sensors[i].Active {
			s.sensors[i].Active = false
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListActiveSensors(ctx context.Context, deviceID int64) ([]tscmodels.SensorSummary, error) {
	out := make([]tscmodels.SensorSummary, 0)
	for _, sensor := range s.sensors {
		if sensor.DeviceID == deviceID && sensor.Active {
			out = append(out, tscmodels.SensorSummary{MAC: sensor.MAC, Name: sensor.Name})
		}
	}
	return out, nil
}

func (s *fakeStore) ListSensors(ctx context.Context) ([]tscmodels.SensorWithHub, error) {
	return nil, nil
}

func (s *fakeStore) GetSensorWithHub(ctx context.Context, id int64) (*tscmodels.SensorWithHub, error) {
	return nil, nil
}

func (s *fakeStore) RenameSensor(ctx context.Context, id int64, name string) (*tscmodels.Sensor, error) {
	return nil, nil
}

func (s *fakeStore) DeleteSensor(ctx context.Context, id int64) error {
	for i := range s.sensors {
		if s.sensors[i].ID == id {
			s.sensors = append(s.sensors[:i], s.sensors[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeStore) InsertReading(ctx context.Context, reading tscmodels.Reading) error {
	reading.ID = int64(len(s.readings) + 1)
	reading.RecordedAt = time.Now()
	s.readings = append(s.readings, reading)
	return nil
}

func (s *fakeStore) ListReadings(ctx context.Context, sensorID int64, filter interfaces.ReadingFilter) ([]tscmodels.Reading, error) {
	return nil, nil
}

func (s *fakeStore) LatestReading(ctx context.Context, sensorID int64) (*tscmodels.Reading, error) {
	return nil, nil
}

func (s *fakeStore) HasPendingRequest(ctx context.Context, deviceID int64, sensorMAC string) (bool, error) {
	for _, pr := range s.pairing {
		if pr.DeviceID == deviceID && pr.SlaveMAC == sensorMAC && pr.Status == tscmodels.PairingStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateRequest(ctx context.Context, deviceID int64, sensorMAC string) (int64, error) {
	pr := tscmodels.PairingRequest{
		ID:          s.nextPairingID,
		DeviceID:    deviceID,
		SlaveMAC:    sensorMAC,
		Status:      tscmodels.PairingStatusPending,
		RequestedAt: time.Now(),
	}
	s.nextPairingID++
	s.pairing = append(s.pairing, pr)
	return pr.ID, nil
}

func (s *fakeStore) ListRequests(ctx context.Context, status string) ([]tscmodels.PairingRequestWithHub, error) {
	return nil, nil
}

func (s *fakeStore) ResolveRequest(ctx context.Context, id int64, approved bool, resolvedBy string) (*tscmodels.PairingRequest, error) {
	for i := range s.pairing {
		if s.pairing[i].ID == id && s.pairing[i].Status == tscmodels.PairingStatusPending {
			if approved {
				s.pairing[i].Status = tscmodels.PairingStatusApproved
			} else {
				s.pairing[i].Status = tscmodels.PairingStatusRejected
			}
			s.pairing[i].ResolvedBy = tscmodels.NullableString{NullString: sql.NullString{String: resolvedBy, Valid: true}}
			return &s.pairing[i], nil
		}
	}
	return nil, nil
}

// fakeGateway records broadcasts instead of pushing to sessions.
type broadcast struct {
	hubMAC string
	event  string
	data   interface{}
}

type fakeGateway struct {
	broadcasts []broadcast
	status     map[string]map[string]interface{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{status: make(map[string]map[string]interface{})}
}

func (g *fakeGateway) Emit(hubMAC, event string, data interface{}) {
	g.broadcasts = append(g.broadcasts, broadcast{hubMAC: hubMAC, event: event, data: data})
}

func (g *fakeGateway) SetHubStatus(hubMAC string, fields map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["hub_mac"] = hubMAC
	g.status[hubMAC] = payload
	return payload
}

// fakePublisher records outbound publishes.
type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	connected bool
	published []published
	failWith  error
}

func (p *fakePublisher) Connected() bool {
	return p.connected
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, published{topic: topic, payload: payload})
	return nil
}

func newTestBridge(store *fakeStore, gw *fakeGateway, pub *fakePublisher) *Bridge {
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
	return &Bridge{
		cfg:      config.MQTTConfig{TopicRoot: "sensors"},
		devices:  store,
		sensors:  store,
		readings: store,
		pairing:  store,
		gateway:  gw,
		logger:   log,
		pub:      pub,
	}
}
