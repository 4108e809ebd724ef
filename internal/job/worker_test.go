package job

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
	"logistics/pkg/config"
)

// workerPgxAdapter adapts pgxmock.PgxPoolIface to database.DB, mirroring
// the adapter used by internal/repository and internal/materializer tests.
type workerPgxAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *workerPgxAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}
func (a *workerPgxAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}
func (a *workerPgxAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}
func (a *workerPgxAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}
func (a *workerPgxAdapter) Close()                        { a.mock.Close() }
func (a *workerPgxAdapter) Ping(ctx context.Context) error { return a.mock.Ping(ctx) }

func TestWorker_Process_CompletesJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	adapter := &workerPgxAdapter{mock: mock}

	vehicleID := uuid.New()
	shipmentID := uuid.New()
	depotID := uuid.New()

	jobs := newFakeJobRepo()
	brk := newFakeBroker()
	o := New(
		adapter,
		jobs,
		&fakeVehicleRepo{vehicles: []*domain.Vehicle{{
			ID: vehicleID, Status: domain.VehicleAvailable,
			CapacityWeight: 1000, CapacityVolume: 10,
			InsulationGrade: domain.InsulationStandard, DoorType: domain.DoorRoll,
		}}},
		&fakeShipmentRepo{shipments: []*domain.Shipment{{
			ID: shipmentID, Status: domain.ShipmentPending,
			Latitude: 1.001, Longitude: 2.001, Weight: 5,
			TimeWindows:            []domain.TimeWindow{{StartMinutes: 0, EndMinutes: 600}},
			SLATier:                domain.SLAStandard,
			ServiceDurationMinutes: 10,
			TempLimitUpper:         8,
		}}},
		&fakeDepotRepo{depot: &domain.Depot{ID: depotID, Latitude: 1, Longitude: 2, Address: "Depot"}},
		brk,
		config.SolverConfig{
			DefaultTimeLimitSeconds:    10,
			ProgressUpdateIntervalSecs: 1,
			AverageSpeedKMH:            30,
		},
		config.DepotConfig{},
		config.QueueConfig{MaxRetries: 2},
	)
	w := NewWorker(o)

	j := &domain.OptimizationJob{
		Status:   domain.JobPending,
		PlanDate: time.Now(),
		Parameters: domain.JobParameters{
			TimeLimitSeconds:   2,
			Strategy:           domain.StrategyMinimizeVehicles,
			AmbientTemperature: 25,
			InitialVehicleTemp: 2,
		},
	}
	require.NoError(t, jobs.Create(context.Background(), j))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE optimization_jobs SET status`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO routes`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.New(), time.Now(), time.Now()))
	mock.ExpectQuery(`INSERT INTO route_stops`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.New(), time.Now(), time.Now()))
	mock.ExpectQuery(`UPDATE shipments SET`).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	acked := w.process(context.Background(), j.ID)

	require.True(t, acked)
	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobCompleted, stored.Status)
	require.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultSummary)
	require.Equal(t, 1, stored.ResultSummary.RoutesCreated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_Process_SkipsNonPendingJob(t *testing.T) {
	jobs := newFakeJobRepo()
	brk := newFakeBroker()
	o := New(nil, jobs, &fakeVehicleRepo{}, &fakeShipmentRepo{}, &fakeDepotRepo{}, brk, config.SolverConfig{}, config.DepotConfig{}, config.QueueConfig{})
	w := NewWorker(o)

	j := &domain.OptimizationJob{Status: domain.JobCancelled}
	require.NoError(t, jobs.Create(context.Background(), j))

	acked := w.process(context.Background(), j.ID)

	require.True(t, acked)
	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobCancelled, stored.Status)
}

// TestWorker_Process_RetriesUpToCapThenFails models §4.1's "retried up to
// the configured cap (default 2) before giving up": a job with no available
// vehicles always fails solve(), so successive calls to process() must
// reset the job to PENDING for redelivery up to MaxRetries, then finally
// commit FAILED and tell the caller to Ack.
func TestWorker_Process_RetriesUpToCapThenFails(t *testing.T) {
	jobs := newFakeJobRepo()
	brk := newFakeBroker()
	o := New(nil, jobs, &fakeVehicleRepo{}, &fakeShipmentRepo{}, &fakeDepotRepo{}, brk,
		config.SolverConfig{DefaultTimeLimitSeconds: 10, ProgressUpdateIntervalSecs: 1},
		config.DepotConfig{},
		config.QueueConfig{MaxRetries: 2},
	)
	w := NewWorker(o)

	j := &domain.OptimizationJob{
		Status:   domain.JobPending,
		PlanDate: time.Now(),
		Parameters: domain.JobParameters{
			TimeLimitSeconds: 1,
			Strategy:         domain.StrategyMinimizeVehicles,
		},
	}
	require.NoError(t, jobs.Create(context.Background(), j))

	acked := w.process(context.Background(), j.ID)
	require.False(t, acked)
	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobPending, stored.Status)

	acked = w.process(context.Background(), j.ID)
	require.False(t, acked)
	stored, err = jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobPending, stored.Status)

	acked = w.process(context.Background(), j.ID)
	require.True(t, acked)
	stored, err = jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobFailed, stored.Status)
}

// TestWorker_Process_SkipsWhenCancelledBeforeSolve models §5.2's first
// cancellation checkpoint: a PENDING job whose broker task was revoked
// before the worker claimed it must never reach MarkRunning/solve, and the
// cancellation/retry markers must be cleared so they don't linger.
func TestWorker_Process_SkipsWhenCancelledBeforeSolve(t *testing.T) {
	jobs := newFakeJobRepo()
	brk := newFakeBroker()
	o := New(nil, jobs, &fakeVehicleRepo{}, &fakeShipmentRepo{}, &fakeDepotRepo{}, brk,
		config.SolverConfig{}, config.DepotConfig{}, config.QueueConfig{},
	)
	w := NewWorker(o)

	j := &domain.OptimizationJob{Status: domain.JobPending, PlanDate: time.Now()}
	require.NoError(t, jobs.Create(context.Background(), j))
	require.NoError(t, brk.Cancel(context.Background(), j.ID))

	acked := w.process(context.Background(), j.ID)

	require.True(t, acked)
	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobPending, stored.Status) // never touched by solve
	cancelledStill, err := brk.IsCancelled(context.Background(), j.ID)
	require.NoError(t, err)
	require.False(t, cancelledStill)
}
