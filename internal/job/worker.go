package job

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/materializer"
	"logistics/internal/queue"
	"logistics/internal/vrp"
	"logistics/pkg/apperror"
	"logistics/pkg/logger"
	"logistics/pkg/metrics"
	"logistics/pkg/telemetry"
)

// defaultMaxRetries applies when queueCfg.MaxRetries is left at its zero
// value, matching the "default 2" the retry cap is documented at.
const defaultMaxRetries = 2

// softTimeoutMargin/hardTimeoutMargin implement §4.1's "Soft timeout for a
// worker task = time_limit_seconds + 60s. Hard kill at +120s."
const (
	softTimeoutMargin = 60 * time.Second
	hardTimeoutMargin = 120 * time.Second
)

// Worker dequeues submitted jobs and drives them through the §4.1 task
// lifecycle: mark RUNNING, run a progress reporter alongside the solve,
// materialize results, and handle retry/failure.
type Worker struct {
	*Orchestrator
}

// NewWorker wraps an Orchestrator with the dequeue-and-process loop. The
// orchestrator's repositories and broker are reused as-is (they are already
// the interfaces a worker needs).
func NewWorker(o *Orchestrator) *Worker {
	return &Worker{Orchestrator: o}
}

// Run starts concurrency dequeue loops and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.broker.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if err == queue.ErrEmpty {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			logger.Error("dequeue failed", "error", err)
			continue
		}

		if w.process(ctx, jobID) {
			if err := w.broker.Ack(ctx, jobID); err != nil {
				logger.Error("ack failed", "job_id", jobID, "error", err)
			}
		}
		// A failed/unfinished process() leaves jobID on the processing list:
		// queue.Recover redelivers it at the next worker-pool startup, and
		// giveUpOrRetry bounds how many times that can happen.
	}
}

// process implements §4.1's worker task lifecycle steps 1-8. It returns
// whether the broker should Ack jobID: true once the job has reached a
// terminal outcome the worker itself committed, false when the task must
// stay on the processing list for at-least-once redelivery.
func (w *Worker) process(ctx context.Context, jobID uuid.UUID) bool {
	ctx, span := telemetry.StartSpan(ctx, "Worker.process")
	defer span.End()

	j, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		logger.Error("dequeued job not found", "job_id", jobID, "error", err)
		return true // nothing to retry: the row does not exist
	}
	if j.Status != domain.JobPending {
		// Already cancelled, already processed by another at-least-once
		// redelivery, or otherwise no longer actionable.
		return true
	}

	cancelled, err := w.broker.IsCancelled(ctx, jobID)
	if err != nil {
		logger.Error("cancellation check failed", "job_id", jobID, "error", err)
	}
	if cancelled {
		_ = w.broker.ClearCancelled(ctx, jobID)
		_ = w.broker.ClearRetries(ctx, jobID)
		return true
	}

	timeLimit := time.Duration(j.Parameters.TimeLimitSeconds) * time.Second
	softCtx, cancel := context.WithTimeout(ctx, timeLimit+softTimeoutMargin)
	defer cancel()
	hardDeadline := time.After(timeLimit + hardTimeoutMargin)

	start := time.Now()
	if err := w.jobs.MarkRunning(ctx, jobID, start); err != nil {
		logger.Error("mark running failed", "job_id", jobID, "error", err)
		return false
	}
	if err := w.jobs.UpdateProgress(ctx, jobID, 5); err != nil {
		logger.Error("initial progress write failed", "job_id", jobID, "error", err)
	}

	stop := make(chan struct{})
	var reporterWG sync.WaitGroup
	reporterWG.Add(1)
	go func() {
		defer reporterWG.Done()
		w.reportProgress(ctx, jobID, start, timeLimit, stop)
	}()

	type solveOutcome struct {
		result *materializer.Result
		err    error
	}
	done := make(chan solveOutcome, 1)
	go func() {
		result, err := w.solve(softCtx, j)
		done <- solveOutcome{result, err}
	}()

	var result *materializer.Result
	var solveErr error
	select {
	case outcome := <-done:
		result, solveErr = outcome.result, outcome.err
	case <-hardDeadline:
		// Hard kill: the soft-timeout context is already past its deadline
		// by this point, so the goroutine above is expected to unwind on
		// its own; the job is reported FAILED without waiting further.
		solveErr = fmt.Errorf("optimization exceeded hard timeout of %s", timeLimit+hardTimeoutMargin)
	}

	close(stop)
	reporterWG.Wait()

	if solveErr != nil {
		if errors.Is(solveErr, materializer.ErrJobNoLongerRunning) {
			// A cancellation already landed and won the race; nothing left
			// for this worker to commit or retry.
			logger.Info("job cancelled mid-solve, dropping result", "job_id", jobID)
			_ = w.broker.ClearCancelled(ctx, jobID)
			_ = w.broker.ClearRetries(ctx, jobID)
			return true
		}
		return w.fail(ctx, jobID, solveErr)
	}

	// Recheck before committing: a cancellation may have landed while solve
	// ran, in which case MarkCompleted's status guard rejects the write and
	// the already-committed routes/shipments must not be treated as live.
	cancelled, err = w.broker.IsCancelled(ctx, jobID)
	if err != nil {
		logger.Error("post-solve cancellation check failed", "job_id", jobID, "error", err)
	}
	if cancelled {
		logger.Info("job cancelled mid-solve, dropping result", "job_id", jobID)
		_ = w.broker.ClearCancelled(ctx, jobID)
		_ = w.broker.ClearRetries(ctx, jobID)
		return true
	}

	now := time.Now()
	if err := w.jobs.MarkCompleted(ctx, jobID, now, result.RouteIDs, result.UnassignedIDs, result.Summary); err != nil {
		if errors.Is(err, apperror.ErrJobNotRunning) {
			logger.Info("job no longer running at completion time, dropping result", "job_id", jobID)
			return true
		}
		logger.Error("mark completed failed", "job_id", jobID, "error", err)
		return true
	}

	_ = w.broker.ClearRetries(ctx, jobID)
	metrics.Get().RecordJobCompleted("COMPLETED", now.Sub(start))
	metrics.Get().RecordSolve(result.Summary.SolverStatus, time.Duration(result.Summary.SolverTimeSeconds*float64(time.Second)))
	metrics.Get().RecordSolution(jobID.String(), result.Summary.RoutesCreated, result.Summary.ShipmentsUnassigned, result.Summary.RoutesCreated, result.Summary.TotalCost)
	return true
}

// reportProgress implements §4.1 step 2: writes non-decreasing progress
// buckets every update interval until stop is closed.
func (w *Worker) reportProgress(ctx context.Context, jobID uuid.UUID, start time.Time, timeLimit time.Duration, stop <-chan struct{}) {
	interval := time.Duration(w.solverCfg.ProgressUpdateIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			bucket := int(elapsed.Seconds() / timeLimit.Seconds() * 95)
			if bucket > 95 {
				bucket = 95
			}
			if bucket < 0 {
				bucket = 0
			}
			if err := w.jobs.UpdateProgress(ctx, jobID, bucket); err != nil {
				logger.Error("progress update failed", "job_id", jobID, "error", err)
			}
		}
	}
}

// solve implements §4.1 steps 3-6: load resources, build the model, solve,
// and materialize. Any failure here is reported by the caller via fail.
func (w *Worker) solve(ctx context.Context, j *domain.OptimizationJob) (*materializer.Result, error) {
	vehicles, err := w.loadAvailableVehicles(ctx, j.VehicleIDFilter)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		return nil, fmt.Errorf("no available vehicles found")
	}

	shipments, err := w.shipments.ListPending(ctx, j.ShipmentIDFilter)
	if err != nil {
		return nil, fmt.Errorf("load shipments: %w", err)
	}
	if len(shipments) == 0 {
		return nil, fmt.Errorf("no pending shipments found")
	}

	depot, err := w.resolveDepot(ctx, j.DepotOverride)
	if err != nil {
		return nil, fmt.Errorf("resolve depot: %w", err)
	}

	vehicleVals := make([]domain.Vehicle, len(vehicles))
	for i, v := range vehicles {
		vehicleVals[i] = *v
	}
	shipmentVals := make([]domain.Shipment, len(shipments))
	for i, s := range shipments {
		shipmentVals[i] = *s
	}

	model := vrp.Build(vehicleVals, shipmentVals, *depot, vrp.BuildParams{
		AmbientTemperature:   j.Parameters.AmbientTemperature,
		InitialVehicleTemp:   j.Parameters.InitialVehicleTemp,
		TimeLimitSeconds:     j.Parameters.TimeLimitSeconds,
		MaxVehicles:          j.Parameters.MaxVehicles,
		PlannedDepartureTime: j.Parameters.PlannedDepartureTime,
		AverageSpeedKMH:      float64(w.solverCfg.AverageSpeedKMH),
		VehicleFixedCost:     w.solverCfg.VehicleFixedCost,
		DistanceCostPerKM:    float64(w.solverCfg.DistanceCostPerKM),
		InfeasibleCost:       w.solverCfg.InfeasibleCost,
	})

	driver := vrp.NewDriver(vrp.WithTimeLimit(time.Duration(j.Parameters.TimeLimitSeconds) * time.Second))

	solveStart := time.Now()
	sol, err := driver.Solve(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	solveTime := time.Since(solveStart)

	result, err := materializer.Materialize(ctx, w.db, materializer.Input{
		JobID:     j.ID,
		PlanDate:  j.PlanDate,
		Depot:     *depot,
		Vehicles:  vehicleVals,
		Shipments: shipmentVals,
		Model:     model,
	}, sol, solveTime)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}

	return result, nil
}

func (w *Worker) resolveDepot(ctx context.Context, override *uuid.UUID) (*domain.Depot, error) {
	if override != nil {
		return w.depots.GetByID(ctx, *override)
	}
	d, err := w.depots.GetDefault(ctx)
	if err == nil {
		return d, nil
	}
	// Fall back to the configured default location rather than failing the
	// submission outright when no depot row has been seeded yet.
	return &domain.Depot{
		Latitude:  w.depotCfg.Latitude,
		Longitude: w.depotCfg.Longitude,
		Address:   w.depotCfg.Address,
		Active:    true,
	}, nil
}

// fail implements §4.1 step 7: retried by the broker's at-least-once
// redelivery up to the configured cap (default defaultMaxRetries) before
// giving up with FAILED, message and stack trace. Returns whether the
// broker should Ack jobID: false while a retry is still owed (the job row
// is reset to PENDING so the redelivered task is reprocessed from scratch),
// true once the cap is exhausted and FAILED has been committed.
func (w *Worker) fail(ctx context.Context, jobID uuid.UUID, cause error) bool {
	maxRetries := w.queueCfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	attempts, err := w.broker.IncrementRetries(ctx, jobID)
	if err != nil {
		logger.Error("retry count increment failed", "job_id", jobID, "error", err)
	}

	if err == nil && attempts <= int64(maxRetries) {
		logger.Error("optimization job failed, scheduling retry", "job_id", jobID, "attempt", attempts, "max_retries", maxRetries, "error", cause)
		swapped, casErr := w.jobs.CompareAndSwapStatus(ctx, jobID, domain.JobRunning, domain.JobPending)
		if casErr != nil {
			logger.Error("reset job to pending for retry failed", "job_id", jobID, "error", casErr)
		} else if !swapped {
			// A cancellation already moved the row off RUNNING; give up on
			// retrying a job nobody is waiting on any more.
			logger.Info("job no longer running, abandoning retry", "job_id", jobID)
			_ = w.broker.ClearRetries(ctx, jobID)
			return true
		}
		return false
	}

	logger.Error("optimization job failed, giving up", "job_id", jobID, "attempt", attempts, "max_retries", maxRetries, "error", cause)
	_ = w.broker.ClearRetries(ctx, jobID)

	if err := w.jobs.MarkFailed(ctx, jobID, time.Now(), cause.Error(), string(debug.Stack())); err != nil {
		logger.Error("mark failed failed", "job_id", jobID, "error", err)
	}
	metrics.Get().RecordJobCompleted("FAILED", 0)
	return true
}
