package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics/internal/auth"
	"logistics/internal/crud"
	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
	"logistics/pkg/config"
	"logistics/pkg/passhash"
)

// --- in-memory fakes, mirroring internal/crud/crud_test.go's fake style ---

type fakeVehicleRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*domain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{data: map[uuid.UUID]*domain.Vehicle{}}
}

func (f *fakeVehicleRepo) Create(_ context.Context, v *domain.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.data[v.ID] = v
	return nil
}

func (f *fakeVehicleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[id]
	if !ok {
		return nil, apperror.ErrVehicleNotFound
	}
	return v, nil
}

func (f *fakeVehicleRepo) Update(_ context.Context, v *domain.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[v.ID]; !ok {
		return apperror.ErrVehicleNotFound
	}
	f.data[v.ID] = v
	return nil
}

func (f *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeVehicleRepo) List(_ context.Context, _ repository.VehicleFilter) ([]*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Vehicle, 0, len(f.data))
	for _, v := range f.data {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVehicleRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.data[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeShipmentRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*domain.Shipment
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{data: map[uuid.UUID]*domain.Shipment{}}
}

func (f *fakeShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.data[s.ID] = s
	return nil
}

func (f *fakeShipmentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	if !ok {
		return nil, apperror.ErrShipmentNotFound
	}
	return s, nil
}

func (f *fakeShipmentRepo) Update(_ context.Context, s *domain.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[s.ID]; !ok {
		return apperror.ErrShipmentNotFound
	}
	f.data[s.ID] = s
	return nil
}

func (f *fakeShipmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeShipmentRepo) List(_ context.Context, _ repository.ShipmentFilter) ([]*domain.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Shipment, 0, len(f.data))
	for _, s := range f.data {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeShipmentRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Shipment, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.data[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShipmentRepo) ListPending(_ context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	return f.ListByIDs(nil, ids)
}

func (f *fakeShipmentRepo) ResetAssignments(_ context.Context, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	reset := func(s *domain.Shipment) {
		s.Status = domain.ShipmentPending
		s.RouteID = nil
		s.RouteSequence = nil
		n++
	}
	if ids == nil {
		for _, s := range f.data {
			reset(s)
		}
		return n, nil
	}
	for _, id := range ids {
		if s, ok := f.data[id]; ok {
			reset(s)
		}
	}
	return n, nil
}

type fakeRouteRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*domain.Route
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{data: map[uuid.UUID]*domain.Route{}}
}

func (f *fakeRouteRepo) Create(_ context.Context, r *domain.Route, _ []domain.RouteStop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.data[r.ID] = r
	return nil
}

func (f *fakeRouteRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.data[id]
	if !ok {
		return nil, apperror.ErrRouteNotFound
	}
	return r, nil
}

func (f *fakeRouteRepo) GetStops(_ context.Context, _ uuid.UUID) ([]domain.RouteStop, error) {
	return nil, nil
}

func (f *fakeRouteRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.RouteStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.data[id]
	if !ok {
		return apperror.ErrRouteNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRouteRepo) UpdateStopStatus(_ context.Context, _ uuid.UUID, _ *float64) error {
	return nil
}

func (f *fakeRouteRepo) List(_ context.Context, _ repository.RouteFilter) ([]*domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Route, 0, len(f.data))
	for _, r := range f.data {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRouteRepo) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.data))
	f.data = map[uuid.UUID]*domain.Route{}
	return n, nil
}

type fakeUserRepo struct {
	mu   sync.Mutex
	data map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{data: map[string]*domain.User{}} }

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.data[username]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.data {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[u.Username] = u
	return nil
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	repo := newFakeUserRepo()
	hash, err := passhash.HashPassword("correct-horse")
	require.NoError(t, err)
	repo.data["alice"] = &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: hash, Active: true}
	return auth.New(repo, config.JWTConfig{SecretKey: "test-secret", Issuer: "routing-svc", AccessTokenExpiry: time.Hour})
}

func TestHandleToken_Success(t *testing.T) {
	svc := newTestAuthService(t)
	h := &Handlers{Auth: svc}

	form := url.Values{"username": {"alice"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "bearer", body.TokenType)
}

func TestHandleToken_BadPassword(t *testing.T) {
	svc := newTestAuthService(t)
	h := &Handlers{Auth: svc}

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateAndGetVehicle(t *testing.T) {
	repo := newFakeVehicleRepo()
	h := &Handlers{Vehicles: crud.NewVehicleService(repo)}

	body, _ := json.Marshal(vehicleDTO{
		LicensePlate:      "ABC-123",
		CapacityWeight:    1000,
		CapacityVolume:    10,
		InsulationGrade:   domain.InsulationStandard,
		DoorType:          domain.DoorSwing,
		CoolingRate:       -5,
		MinTempCapability: -20,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleCreateVehicle(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created vehicleDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/"+created.ID.String(), nil)
	getReq.SetPathValue("id", created.ID.String())
	getRec := httptest.NewRecorder()
	h.HandleGetVehicle(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestHandleGetVehicle_NotFound(t *testing.T) {
	repo := newFakeVehicleRepo()
	h := &Handlers{Vehicles: crud.NewVehicleService(repo)}

	missing := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/"+missing.String(), nil)
	req.SetPathValue("id", missing.String())
	rec := httptest.NewRecorder()
	h.HandleGetVehicle(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeNotFound, body.Code)
}

func TestHandleResetShipments(t *testing.T) {
	shipments := newFakeShipmentRepo()
	routes := newFakeRouteRepo()

	shipmentID := uuid.New()
	routeID := uuid.New()
	shipments.data[shipmentID] = &domain.Shipment{ID: shipmentID, Status: domain.ShipmentAssigned, RouteID: &routeID}
	routes.data[routeID] = &domain.Route{ID: routeID}

	h := &Handlers{Shipments: crud.NewShipmentService(shipments, routes)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/reset", nil)
	rec := httptest.NewRecorder()
	h.HandleResetShipments(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ShipmentsReset int64 `json:"shipments_reset"`
		RoutesDeleted  int64 `json:"routes_deleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.ShipmentsReset)
	assert.EqualValues(t, 1, body.RoutesDeleted)

	got, err := shipments.GetByID(context.Background(), shipmentID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPending, got.Status)
	assert.Nil(t, got.RouteID)
}

func TestHandleListDepots(t *testing.T) {
	depots := newFakeDepotRepo()
	id := uuid.New()
	depots.data[id] = &domain.Depot{ID: id, Latitude: 1, Longitude: 2, Address: "Warehouse 1", Active: true}

	h := &Handlers{Depots: crud.NewDepotService(depots)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/depots", nil)
	rec := httptest.NewRecorder()
	h.HandleListDepots(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out []depotDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Warehouse 1", out[0].Address)
}

type fakeDepotRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*domain.Depot
}

func newFakeDepotRepo() *fakeDepotRepo { return &fakeDepotRepo{data: map[uuid.UUID]*domain.Depot{}} }

func (f *fakeDepotRepo) Create(_ context.Context, d *domain.Depot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.data[d.ID] = d
	return nil
}

func (f *fakeDepotRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Depot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[id]
	if !ok {
		return nil, apperror.ErrDepotNotFound
	}
	return d, nil
}

func (f *fakeDepotRepo) Update(_ context.Context, d *domain.Depot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[d.ID]; !ok {
		return apperror.ErrDepotNotFound
	}
	f.data[d.ID] = d
	return nil
}

func (f *fakeDepotRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeDepotRepo) List(_ context.Context) ([]*domain.Depot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Depot, 0, len(f.data))
	for _, d := range f.data {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDepotRepo) GetDefault(_ context.Context) (*domain.Depot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.data {
		if d.Active {
			return d, nil
		}
	}
	return nil, apperror.ErrDepotNotFound
}
