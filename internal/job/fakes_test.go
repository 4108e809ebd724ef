package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
)

// fakeJobRepo is an in-memory repository.JobRepository for orchestrator and
// worker tests, avoiding a live Postgres connection.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.OptimizationJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[uuid.UUID]*domain.OptimizationJob{}}
}

func (r *fakeJobRepo) Create(ctx context.Context, j *domain.OptimizationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.OptimizationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperror.ErrJobNotFound
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	return nil
}

func (r *fakeJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperror.ErrJobNotFound
	}
	j.Status = status
	return nil
}

func (r *fakeJobRepo) CompareAndSwapStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false, apperror.ErrJobNotFound
	}
	if j.Status != from {
		return false, nil
	}
	j.Status = to
	return true, nil
}

func (r *fakeJobRepo) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperror.ErrJobNotFound
	}
	j.Status = domain.JobRunning
	j.StartedAt = &startedAt
	return nil
}

func (r *fakeJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, routeIDs, unassignedIDs []uuid.UUID, summary *domain.ResultSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperror.ErrJobNotFound
	}
	if j.Status != domain.JobRunning {
		return apperror.ErrJobNotRunning
	}
	j.Status = domain.JobCompleted
	j.Progress = 100
	j.CompletedAt = &completedAt
	j.RouteIDs = routeIDs
	j.UnassignedShipmentIDs = unassignedIDs
	j.ResultSummary = summary
	return nil
}

func (r *fakeJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, completedAt time.Time, errMsg, traceback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return apperror.ErrJobNotFound
	}
	if j.Status != domain.JobRunning {
		return apperror.ErrJobNotRunning
	}
	j.Status = domain.JobFailed
	j.CompletedAt = &completedAt
	j.ErrorMessage = &errMsg
	j.ErrorTraceback = &traceback
	return nil
}

func (r *fakeJobRepo) List(ctx context.Context, limit, offset int) ([]*domain.OptimizationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.OptimizationJob
	for _, j := range r.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

// fakeVehicleRepo is an in-memory repository.VehicleRepository.
type fakeVehicleRepo struct {
	vehicles []*domain.Vehicle
}

func (r *fakeVehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error { return nil }
func (r *fakeVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	for _, v := range r.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, apperror.ErrVehicleNotFound
}
func (r *fakeVehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error { return nil }
func (r *fakeVehicleRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (r *fakeVehicleRepo) List(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, v := range r.vehicles {
		if filter.Status.Set && v.Status != filter.Status.Value {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
func (r *fakeVehicleRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, v := range r.vehicles {
		for _, id := range ids {
			if v.ID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// fakeShipmentRepo is an in-memory repository.ShipmentRepository.
type fakeShipmentRepo struct {
	shipments []*domain.Shipment
}

func (r *fakeShipmentRepo) Create(ctx context.Context, s *domain.Shipment) error { return nil }
func (r *fakeShipmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	for _, s := range r.shipments {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperror.ErrShipmentNotFound
}
func (r *fakeShipmentRepo) Update(ctx context.Context, s *domain.Shipment) error { return nil }
func (r *fakeShipmentRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (r *fakeShipmentRepo) List(ctx context.Context, filter repository.ShipmentFilter) ([]*domain.Shipment, error) {
	return r.shipments, nil
}
func (r *fakeShipmentRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	return r.shipments, nil
}
func (r *fakeShipmentRepo) ListPending(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if s.Status != domain.ShipmentPending {
			continue
		}
		if len(ids) == 0 {
			out = append(out, s)
			continue
		}
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}
func (r *fakeShipmentRepo) ResetAssignments(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return 0, nil
}

// fakeDepotRepo is an in-memory repository.DepotRepository.
type fakeDepotRepo struct {
	depot *domain.Depot
}

func (r *fakeDepotRepo) Create(ctx context.Context, d *domain.Depot) error { return nil }
func (r *fakeDepotRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Depot, error) {
	if r.depot != nil && r.depot.ID == id {
		return r.depot, nil
	}
	return nil, apperror.ErrDepotNotFound
}
func (r *fakeDepotRepo) Update(ctx context.Context, d *domain.Depot) error { return nil }
func (r *fakeDepotRepo) Delete(ctx context.Context, id uuid.UUID) error   { return nil }
func (r *fakeDepotRepo) List(ctx context.Context) ([]*domain.Depot, error) {
	if r.depot == nil {
		return nil, nil
	}
	return []*domain.Depot{r.depot}, nil
}
func (r *fakeDepotRepo) GetDefault(ctx context.Context) (*domain.Depot, error) {
	if r.depot == nil {
		return nil, apperror.ErrDepotNotFound
	}
	return r.depot, nil
}

// fakeBroker is an in-memory broker for orchestrator/worker tests.
type fakeBroker struct {
	mu        sync.Mutex
	enqueued  []uuid.UUID
	acked     []uuid.UUID
	cancelled map[uuid.UUID]bool
	retries   map[uuid.UUID]int64
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{cancelled: map[uuid.UUID]bool{}, retries: map[uuid.UUID]int64{}}
}

func (b *fakeBroker) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueued = append(b.enqueued, jobID)
	return nil
}

func (b *fakeBroker) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (b *fakeBroker) Ack(ctx context.Context, jobID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, jobID)
	return nil
}

func (b *fakeBroker) Cancel(ctx context.Context, jobID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled[jobID] = true
	return nil
}

func (b *fakeBroker) IsCancelled(ctx context.Context, jobID uuid.UUID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled[jobID], nil
}

func (b *fakeBroker) ClearCancelled(ctx context.Context, jobID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cancelled, jobID)
	return nil
}

func (b *fakeBroker) IncrementRetries(ctx context.Context, jobID uuid.UUID) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retries[jobID]++
	return b.retries[jobID], nil
}

func (b *fakeBroker) ClearRetries(ctx context.Context, jobID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.retries, jobID)
	return nil
}
