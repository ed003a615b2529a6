package controllers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	jwt "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/implementation/jwt"
	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *logger.Logger {
	return logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
}

func newTestJWT() *jwt.Service {
	return jwt.NewService(jwt.Config{
		SecretKey:            "test-access-secret",
		RefreshSecretKey:     "test-refresh-secret",
		Issuer:               "tsc-test",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
	})
}

func authHeader(t *testing.T, svc *jwt.Service) string {
	t.Helper()
	tokens, err := svc.GenerateTokens("admin", "admin")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	return "Bearer " + tokens.AccessToken
}

// fakeSensorRepo serves the admin sensor endpoints from a slice.
type fakeSensorRepo struct {
	sensors []tscmodels.SensorWithHub
	deleted []int64
}

func (f *fakeSensorRepo) UpsertActiveSensor(ctx context.Context, deviceID int64, mac, defaultName string) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeSensorRepo) SoftDeleteSensor(ctx context.Context, deviceID int64, mac string) (bool, error) {
	return false, nil
}

func (f *fakeSensorRepo) ListActiveSensors(ctx context.Context, deviceID int64) ([]tscmodels.SensorSummary, error) {
	return nil, nil
}

func (f *fakeSensorRepo) ListSensors(ctx context.Context) ([]tscmodels.SensorWithHub, error) {
	return f.sensors, nil
}

func (f *fakeSensorRepo) GetSensorWithHub(ctx context.Context, id int64) (*tscmodels.SensorWithHub, error) {
	for i := range f.sensors {
		if f.sensors[i].ID == id {
			return &f.sensors[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSensorRepo) RenameSensor(ctx context.Context, id int64, name string) (*tscmodels.Sensor, error) {
	for i := range f.sensors {
		if f.sensors[i].ID == id {
			f.sensors[i].Name = name
			return &f.sensors[i].Sensor, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSensorRepo) DeleteSensor(ctx context.Context, id int64) error {
	for i := range f.sensors {
		if f.sensors[i].ID == id {
			f.sensors = append(f.sensors[:i], f.sensors[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

// fakePairingRepo holds pairing requests keyed by id.
type fakePairingRepo struct {
	requests map[int64]*tscmodels.PairingRequest
}

func (f *fakePairingRepo) HasPendingRequest(ctx context.Context, deviceID int64, sensorMAC string) (bool, error) {
	return false, nil
}

func (f *fakePairingRepo) CreateRequest(ctx context.Context, deviceID int64, sensorMAC string) (int64, error) {
	return 0, nil
}

func (f *fakePairingRepo) ListRequests(ctx context.Context, status string) ([]tscmodels.PairingRequestWithHub, error) {
	var out []tscmodels.PairingRequestWithHub
	for _, r := range f.requests {
		if status == "" || r.Status == status {
			out = append(out, tscmodels.PairingRequestWithHub{PairingRequest: *r})
		}
	}
	return out, nil
}

func (f *fakePairingRepo) ResolveRequest(ctx context.Context, id int64, approved bool, resolvedBy string) (*tscmodels.PairingRequest, error) {
	r, ok := f.requests[id]
	if !ok || r.Status != tscmodels.PairingStatusPending {
		return nil, nil
	}
	if approved {
		r.Status = tscmodels.PairingStatusApproved
	} else {
		r.Status = tscmodels.PairingStatusRejected
	}
	out := *r
	return &out, nil
}

type fakeDeviceRepo struct {
	devices []tscmodels.Device
}

func (f *fakeDeviceRepo) RegisterDevice(ctx context.Context, mac string, name *string, apiKey string) (*tscmodels.Device, error) {
	for i := range f.devices {
		if f.devices[i].MAC == mac {
			f.devices[i].APIKey = apiKey
			return &f.devices[i], nil
		}
	}
	d := tscmodels.Device{ID: int64(len(f.devices) + 1), MAC: mac, APIKey: apiKey, RegisteredAt: time.Now()}
	f.devices = append(f.devices, d)
	return &d, nil
}

func (f *fakeDeviceRepo) GetDeviceByMAC(ctx context.Context, mac string) (*tscmodels.Device, error) {
	for i := range f.devices {
		if f.devices[i].MAC == mac {
			return &f.devices[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDeviceRepo) GetDeviceByID(ctx context.Context, id int64) (*tscmodels.Device, error) {
	for i := range f.devices {
		if f.devices[i].ID == id {
			return &f.devices[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDeviceRepo) ListDevices(ctx context.Context) ([]tscmodels.Device, error) {
	return f.devices, nil
}

// fakePublisher records publishes; failWith makes pairing decisions fail.
type fakePublisher struct {
	failWith  error
	decisions []string
	removals  []string
}

func (f *fakePublisher) PublishPairingDecision(hubMAC, sensorMAC string, approved bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.decisions = append(f.decisions, hubMAC+"/"+sensorMAC)
	return nil
}

func (f *fakePublisher) PublishSensorRemove(hubMAC, sensorMAC string) {
	f.removals = append(f.removals, hubMAC+"/"+sensorMAC)
}

var _ interfaces.SensorRepository = (*fakeSensorRepo)(nil)
var _ interfaces.PairingRepository = (*fakePairingRepo)(nil)
var _ interfaces.DeviceRepository = (*fakeDeviceRepo)(nil)
var _ HubPublisher = (*fakePublisher)(nil)

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSensorRoutesRequireAuth(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	router := gin.New()
	NewSensorController(&fakeSensorRepo{}, &fakePublisher{}, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodGet, "/api/sensors", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/sensors", "Bearer not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", w.Code)
	}
}

func TestDeleteSensorPublishesRemoval(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	repo := &fakeSensorRepo{sensors: []tscmodels.SensorWithHub{{
		Sensor: tscmodels.Sensor{ID: 7, DeviceID: 1, MAC: "11:22:33:44:55:66", Name: "Garage", Active: true},
		HubMAC: "AA:BB:CC:DD:EE:01",
	}}}
	pub := &fakePublisher{}
	router := gin.New()
	NewSensorController(repo, pub, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodDelete, "/api/sensors/7", authHeader(t, jwtSvc), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", w.Code, w.Body.String())
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 7 {
		t.Fatalf("expected sensor 7 deleted, got %v", repo.deleted)
	}
	if len(pub.removals) != 1 || pub.removals[0] != "AA:BB:CC:DD:EE:01/11:22:33:44:55:66" {
		t.Fatalf("expected removal publish to hub, got %v", pub.removals)
	}
}

func TestDeleteSensorNotFound(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	pub := &fakePublisher{}
	router := gin.New()
	NewSensorController(&fakeSensorRepo{}, pub, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodDelete, "/api/sensors/99", authHeader(t, jwtSvc), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(pub.removals) != 0 {
		t.Fatalf("expected no publish for missing sensor, got %v", pub.removals)
	}
}

func TestRenameSensorTrimsAndCaps(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	repo := &fakeSensorRepo{sensors: []tscmodels.SensorWithHub{{
		Sensor: tscmodels.Sensor{ID: 3, DeviceID: 1, MAC: "11:22:33:44:55:66", Name: "TempSens-445566", Active: true},
	}}}
	router := gin.New()
	NewSensorController(repo, &fakePublisher{}, newTestLogger(), authMw).RegisterRoutes(router)

	long := "  " + string(bytes.Repeat([]byte("x"), 80)) + "  "
	w := doJSON(t, router, http.MethodPut, "/api/sensors/3", authHeader(t, jwtSvc), RenameSensorRequest{Name: long})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := repo.sensors[0].Name; len(got) != maxSensorNameLength {
		t.Fatalf("expected name capped at %d chars, got %d", maxSensorNameLength, len(got))
	}

	w = doJSON(t, router, http.MethodPut, "/api/sensors/3", authHeader(t, jwtSvc), RenameSensorRequest{Name: "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", w.Code)
	}
}

func TestResolvePairingPublishesDecision(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	pairingRepo := &fakePairingRepo{requests: map[int64]*tscmodels.PairingRequest{
		5: {ID: 5, DeviceID: 1, SlaveMAC: "66:55:44:33:22:11", Status: tscmodels.PairingStatusPending},
	}}
	deviceRepo := &fakeDeviceRepo{devices: []tscmodels.Device{{ID: 1, MAC: "AA:BB:CC:DD:EE:01"}}}
	pub := &fakePublisher{}
	router := gin.New()
	NewPairingController(pairingRepo, deviceRepo, pub, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodPost, "/api/pairing/requests/5/approve", authHeader(t, jwtSvc), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if pairingRepo.requests[5].Status != tscmodels.PairingStatusApproved {
		t.Fatalf("expected request approved, got %q", pairingRepo.requests[5].Status)
	}
	if len(pub.decisions) != 1 || pub.decisions[0] != "AA:BB:CC:DD:EE:01/66:55:44:33:22:11" {
		t.Fatalf("expected decision publish to hub, got %v", pub.decisions)
	}

	// A settled request cannot be resolved again.
	w = doJSON(t, router, http.MethodPost, "/api/pairing/requests/5/reject", authHeader(t, jwtSvc), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 resolving settled request, got %d", w.Code)
	}
	if pairingRepo.requests[5].Status != tscmodels.PairingStatusApproved {
		t.Fatalf("settled request was flipped to %q", pairingRepo.requests[5].Status)
	}
}

func TestResolvePairingSurfacesPublishFailure(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	pairingRepo := &fakePairingRepo{requests: map[int64]*tscmodels.PairingRequest{
		8: {ID: 8, DeviceID: 1, SlaveMAC: "66:55:44:33:22:11", Status: tscmodels.PairingStatusPending},
	}}
	deviceRepo := &fakeDeviceRepo{devices: []tscmodels.Device{{ID: 1, MAC: "AA:BB:CC:DD:EE:01"}}}
	pub := &fakePublisher{failWith: errors.New("mqtt client not connected")}
	router := gin.New()
	NewPairingController(pairingRepo, deviceRepo, pub, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodPost, "/api/pairing/requests/8/reject", authHeader(t, jwtSvc), nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when broker is down, got %d", w.Code)
	}
}

func TestRegisterDeviceRequiresAuth(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	repo := &fakeDeviceRepo{}
	router := gin.New()
	NewDeviceController(repo, nil, newTestLogger(), authMw).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodPost, "/api/devices/register", "", RegisterDeviceRequest{MAC: "AA:BB:CC:DD:EE:02"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 registering without a token, got %d", w.Code)
	}
	if len(repo.devices) != 0 {
		t.Fatalf("expected no device stored, got %+v", repo.devices)
	}
}

func TestRegisterDeviceValidatesMAC(t *testing.T) {
	jwtSvc := newTestJWT()
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	repo := &fakeDeviceRepo{}
	router := gin.New()
	NewDeviceController(repo, nil, newTestLogger(), authMw).RegisterRoutes(router)
	token := authHeader(t, jwtSvc)

	w := doJSON(t, router, http.MethodPost, "/api/devices/register", token, RegisterDeviceRequest{MAC: "not-a-mac"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad MAC, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/devices/register", token, RegisterDeviceRequest{MAC: "aa:bb:cc:dd:ee:02"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if len(repo.devices) != 1 || repo.devices[0].MAC != "AA:BB:CC:DD:EE:02" {
		t.Fatalf("expected normalised MAC stored, got %+v", repo.devices)
	}
	if len(repo.devices[0].APIKey) != 64 {
		t.Fatalf("expected 64 hex char api key, got %d chars", len(repo.devices[0].APIKey))
	}

	// Re-registration rotates the key rather than failing.
	firstKey := repo.devices[0].APIKey
	w = doJSON(t, router, http.MethodPost, "/api/devices/register", token, RegisterDeviceRequest{MAC: "AA:BB:CC:DD:EE:02"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on re-register, got %d", w.Code)
	}
	if len(repo.devices) != 1 {
		t.Fatalf("expected single device row, got %d", len(repo.devices))
	}
	if repo.devices[0].APIKey == firstKey {
		t.Fatal("expected api key rotation on re-register")
	}
}

func TestLoginRateLimited(t *testing.T) {
	jwtSvc := newTestJWT()
	authCfg := config.AuthConfig{AdminUsername: "admin", AdminPasswordHash: "$2a$04$notavalidhashnotavalidhashnotavalidha"}
	router := gin.New()
	NewAuthController(authCfg, jwtSvc, newTestLogger()).RegisterRoutes(router)

	var last int
	for i := 0; i < loginAttemptsPerWindow+1; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after %d attempts, got %d", loginAttemptsPerWindow+1, last)
	}
}

func TestLoginIssuesTokens(t *testing.T) {
	jwtSvc := newTestJWT()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	authCfg := config.AuthConfig{AdminUsername: "admin", AdminPasswordHash: string(hash)}
	router := gin.New()
	NewAuthController(authCfg, jwtSvc, newTestLogger()).RegisterRoutes(router)

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var pair jwt.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	claims, err := jwtSvc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("issued access token did not validate: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
