package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/consorcia/consorcia/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskVerificarVencimientos sweeps overdue cuotas across buildings.
	TaskVerificarVencimientos = "cuotas:verificar-vencimientos"
)

// VerificarVencimientosPayload optionally narrows the sweep to one building.
// A zero EdificioID sweeps every active building.
type VerificarVencimientosPayload struct {
	EdificioID int64 `json:"edificioId"`
}

// NewVerificarVencimientosTask constructs the sweep task.
func NewVerificarVencimientosTask(payload VerificarVencimientosPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerificarVencimientos, data), nil
}

// SweepPort runs the overdue sweep for one building.
type SweepPort interface {
	SweepOverdue(ctx context.Context, edificioID int64, asOf time.Time) (int, error)
}

// EdificiosPort lists the buildings to sweep.
type EdificiosPort interface {
	ListActivos(ctx context.Context) ([]int64, error)
}

// MetricsPort accumulates sweep counters.
type MetricsPort interface {
	ObserveSweep(updated int)
}

// Sweeper adapts the overdue sweep to an Asynq handler.
type Sweeper struct {
	cuotas     SweepPort
	edificios  EdificiosPort
	metrics    MetricsPort
	jobMetrics *jobmetrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewSweeper constructs the Sweeper. metrics may be nil.
func NewSweeper(cuotas SweepPort, edificios EdificiosPort, metrics MetricsPort, jm *jobmetrics.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{cuotas: cuotas, edificios: edificios, metrics: metrics, jobMetrics: jm, logger: logger, now: time.Now}
}

// Handle processes TaskVerificarVencimientos tasks. A failing building does
// not abort the sweep of the rest; the task retries only on total failure.
func (s *Sweeper) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := s.jobMetrics.Track(TaskVerificarVencimientos)
	return tracker.End(s.handle(ctx, t))
}

func (s *Sweeper) handle(ctx context.Context, t *asynq.Task) error {
	var payload VerificarVencimientosPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := s.now()

	ids := []int64{payload.EdificioID}
	if payload.EdificioID == 0 {
		var err error
		ids, err = s.edificios.ListActivos(ctx)
		if err != nil {
			return err
		}
	}

	var total, fallos int
	for _, id := range ids {
		updated, err := s.cuotas.SweepOverdue(ctx, id, asOf)
		if err != nil {
			fallos++
			s.logger.Error("sweep vencimientos", slog.Int64("edificio", id), slog.Any("error", err))
			continue
		}
		total += updated
	}
	if s.metrics != nil {
		s.metrics.ObserveSweep(total)
	}
	s.logger.Info("sweep vencimientos completado",
		slog.Int("edificios", len(ids)),
		slog.Int("actualizadas", total),
		slog.Int("fallos", fallos))
	if fallos == len(ids) && len(ids) > 0 {
		return errors.New("jobs: sweep fallo en todos los edificios")
	}
	return nil
}
