package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics/internal/domain"
	"logistics/pkg/apperror"
	"logistics/pkg/config"
)

func testOrchestrator(vehicles []*domain.Vehicle, shipments []*domain.Shipment) (*Orchestrator, *fakeJobRepo, *fakeBroker) {
	jobs := newFakeJobRepo()
	brk := newFakeBroker()
	o := New(
		nil,
		jobs,
		&fakeVehicleRepo{vehicles: vehicles},
		&fakeShipmentRepo{shipments: shipments},
		&fakeDepotRepo{},
		brk,
		config.SolverConfig{
			DefaultTimeLimitSeconds:   300,
			DefaultAmbientTemperature: 25,
			DefaultInitialVehicleTemp: 2,
		},
		config.DepotConfig{Latitude: 1, Longitude: 2, Address: "Depot"},
		config.QueueConfig{MaxRetries: 2},
	)
	return o, jobs, brk
}

func TestSubmit_Success(t *testing.T) {
	vehicleID := uuid.New()
	shipmentID := uuid.New()
	o, jobs, brk := testOrchestrator(
		[]*domain.Vehicle{{ID: vehicleID, Status: domain.VehicleAvailable}},
		[]*domain.Shipment{{ID: shipmentID, Status: domain.ShipmentPending}},
	)

	j, err := o.Submit(context.Background(), SubmitInput{PlanDate: time.Now()})

	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, j.Status)
	assert.NotEmpty(t, j.BrokerTaskID)
	assert.Equal(t, 300, j.Parameters.TimeLimitSeconds)
	assert.Equal(t, domain.StrategyMinimizeVehicles, j.Parameters.Strategy)
	assert.Contains(t, brk.enqueued, j.ID)

	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, stored.Status)
}

func TestSubmit_NoAvailableVehicles(t *testing.T) {
	o, _, _ := testOrchestrator(
		[]*domain.Vehicle{{ID: uuid.New(), Status: domain.VehicleMaintenance}},
		[]*domain.Shipment{{ID: uuid.New(), Status: domain.ShipmentPending}},
	)

	_, err := o.Submit(context.Background(), SubmitInput{PlanDate: time.Now()})

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNoResources, appErr.Code)
}

func TestSubmit_NoPendingShipments(t *testing.T) {
	o, _, _ := testOrchestrator(
		[]*domain.Vehicle{{ID: uuid.New(), Status: domain.VehicleAvailable}},
		[]*domain.Shipment{{ID: uuid.New(), Status: domain.ShipmentDelivered}},
	)

	_, err := o.Submit(context.Background(), SubmitInput{PlanDate: time.Now()})

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNoResources, appErr.Code)
}

func TestSubmit_RejectsOutOfRangeTimeLimit(t *testing.T) {
	o, _, _ := testOrchestrator(
		[]*domain.Vehicle{{ID: uuid.New(), Status: domain.VehicleAvailable}},
		[]*domain.Shipment{{ID: uuid.New(), Status: domain.ShipmentPending}},
	)

	_, err := o.Submit(context.Background(), SubmitInput{
		PlanDate:   time.Now(),
		Parameters: domain.JobParameters{TimeLimitSeconds: 5},
	})

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeValidationError, appErr.Code)
}

func TestCancel_PendingJobBecomesCancelled(t *testing.T) {
	o, jobs, brk := testOrchestrator(
		[]*domain.Vehicle{{ID: uuid.New(), Status: domain.VehicleAvailable}},
		[]*domain.Shipment{{ID: uuid.New(), Status: domain.ShipmentPending}},
	)
	j, err := o.Submit(context.Background(), SubmitInput{PlanDate: time.Now()})
	require.NoError(t, err)

	err = o.Cancel(context.Background(), j.ID)
	require.NoError(t, err)

	stored, err := jobs.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, stored.Status)
	assert.True(t, brk.cancelled[j.ID])
}

func TestCancel_TerminalJobRejected(t *testing.T) {
	o, jobs, _ := testOrchestrator(nil, nil)

	j := &domain.OptimizationJob{Status: domain.JobCompleted}
	require.NoError(t, jobs.Create(context.Background(), j))
	require.NoError(t, jobs.UpdateStatus(context.Background(), j.ID, domain.JobCompleted))

	err := o.Cancel(context.Background(), j.ID)

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrJobNotTerminal.Code, appErr.Code)
}
