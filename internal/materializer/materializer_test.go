package materializer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"logistics/internal/domain"
	"logistics/internal/thermo"
	"logistics/internal/vrp"
)

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

func testModel(vehicleID uuid.UUID, shipmentID uuid.UUID) *vrp.Model {
	return &vrp.Model{
		Nodes: []vrp.Node{
			{Index: 0},
			{
				Index:          1,
				ShipmentID:     shipmentID,
				DemandWeightG:  5000,
				ServiceMinutes: 10,
				WindowStartMin: 0,
				WindowEndMin:   600,
				Windows:        []vrp.Window{{StartMinutes: 0, EndMinutes: 600}},
				TempLimitUpper: 8,
			},
		},
		Vehicles: []vrp.VehicleSpec{
			{
				Index:           0,
				ID:              vehicleID,
				CapacityWeightG: 1000000,
				Thermo:          thermo.VehicleParams{KValue: 0.02, DoorCoefficient: 0.8, CurtainFactor: 1, CoolingRate: -2},
				InitialTemp:     2,
			},
		},
		DistanceMeters:           [][]int{{0, 1000}, {1000, 0}},
		TimeMinutes:              [][]int{{0, 10}, {10, 0}},
		EarliestDepartureMinutes: 360,
		HorizonMinutes:           1440,
		SlackMinutes:             60,
		AmbientTemperature:       25,
	}
}

func TestMaterialize_PersistsRouteAndAssignsShipment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	adapter := &pgxMockAdapter{mock: mock}

	vehicleID := uuid.New()
	shipmentID := uuid.New()
	jobID := uuid.New()
	routeID := uuid.New()
	now := time.Now()

	model := testModel(vehicleID, shipmentID)
	sol := &vrp.Solution{
		Status: domain.SolverOptimal,
		Routes: []vrp.RouteSolution{
			{VehicleIndex: 0, NodeIndices: []int{1}, ArrivalMinutes: []int{370}},
		},
	}

	in := Input{
		JobID:    jobID,
		PlanDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Depot:    domain.Depot{Latitude: 1, Longitude: 2, Address: "Depot"},
		Vehicles: []domain.Vehicle{{ID: vehicleID, LicensePlate: "ABC-1"}},
		Shipments: []domain.Shipment{
			{ID: shipmentID, Latitude: 3, Longitude: 4, Status: domain.ShipmentPending},
		},
		Model: model,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE optimization_jobs SET status`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO routes`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(routeID, now, now))
	mock.ExpectQuery(`INSERT INTO route_stops`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.New(), now, now))
	mock.ExpectQuery(`UPDATE shipments SET`).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	result, err := Materialize(context.Background(), adapter, in, sol, 2*time.Second)

	require.NoError(t, err)
	require.Len(t, result.RouteIDs, 1)
	require.Equal(t, routeID, result.RouteIDs[0])
	require.Equal(t, 1, result.Summary.RoutesCreated)
	require.Equal(t, 1, result.Summary.ShipmentsAssigned)
	require.Equal(t, 0, result.Summary.ShipmentsUnassigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestMaterialize_RollsBackWhenJobNoLongerRunning models §5.2: a
// cancellation lands between solve() returning and Materialize's
// transaction starting, so the guard must fail the whole commit instead of
// persisting routes for a job that is no longer RUNNING.
func TestMaterialize_RollsBackWhenJobNoLongerRunning(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	adapter := &pgxMockAdapter{mock: mock}

	vehicleID := uuid.New()
	shipmentID := uuid.New()
	model := testModel(vehicleID, shipmentID)
	sol := &vrp.Solution{
		Status: domain.SolverOptimal,
		Routes: []vrp.RouteSolution{
			{VehicleIndex: 0, NodeIndices: []int{1}, ArrivalMinutes: []int{370}},
		},
	}

	in := Input{
		JobID:    uuid.New(),
		PlanDate: time.Now(),
		Depot:    domain.Depot{},
		Vehicles: []domain.Vehicle{{ID: vehicleID}},
		Shipments: []domain.Shipment{
			{ID: shipmentID, Status: domain.ShipmentPending},
		},
		Model: model,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE optimization_jobs SET status`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err = Materialize(context.Background(), adapter, in, sol, time.Second)

	require.ErrorIs(t, err, ErrJobNoLongerRunning)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialize_EmptyRouteIsSkipped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	adapter := &pgxMockAdapter{mock: mock}

	vehicleID := uuid.New()
	model := testModel(vehicleID, uuid.New())
	sol := &vrp.Solution{
		Status: domain.SolverOptimal,
		Routes: []vrp.RouteSolution{
			{VehicleIndex: 0, NodeIndices: nil},
		},
		Unassigned: []vrp.Unassigned{{ShipmentID: uuid.New(), Reason: domain.ReasonNoVehicle}},
	}

	in := Input{
		JobID:     uuid.New(),
		PlanDate:  time.Now(),
		Depot:     domain.Depot{},
		Vehicles:  []domain.Vehicle{{ID: vehicleID}},
		Shipments: nil,
		Model:     model,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE optimization_jobs SET status`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	result, err := Materialize(context.Background(), adapter, in, sol, time.Second)

	require.NoError(t, err)
	require.Empty(t, result.RouteIDs)
	require.Equal(t, 1, result.Summary.ShipmentsUnassigned)
	require.NoError(t, mock.ExpectationsWereMet())
}
