package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/consorcia/consorcia/internal/jobs"
)

type stubSweep struct {
	updates map[int64]int
	errs    map[int64]error
	calls   []int64
}

func (s *stubSweep) SweepOverdue(_ context.Context, edificioID int64, _ time.Time) (int, error) {
	s.calls = append(s.calls, edificioID)
	if err := s.errs[edificioID]; err != nil {
		return 0, err
	}
	return s.updates[edificioID], nil
}

type stubEdificios struct {
	ids    []int64
	called bool
}

func (s *stubEdificios) ListActivos(_ context.Context) ([]int64, error) {
	s.called = true
	return s.ids, nil
}

type stubMetrics struct {
	observed []int
}

func (s *stubMetrics) ObserveSweep(updated int) {
	s.observed = append(s.observed, updated)
}

func newTestSweeper(sweep *stubSweep, edificios *stubEdificios, metrics *stubMetrics) *Sweeper {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jm := jobmetrics.NewMetrics(prometheus.NewRegistry())
	var mp MetricsPort
	if metrics != nil {
		mp = metrics
	}
	return NewSweeper(sweep, edificios, mp, jm, logger)
}

func sweepTask(t *testing.T, payload VerificarVencimientosPayload) *asynq.Task {
	t.Helper()
	task, err := NewVerificarVencimientosTask(payload)
	require.NoError(t, err)
	return task
}

func TestSweeperCoversActiveBuildings(t *testing.T) {
	sweep := &stubSweep{updates: map[int64]int{1: 2, 2: 3}}
	edificios := &stubEdificios{ids: []int64{1, 2}}
	metrics := &stubMetrics{}
	sweeper := newTestSweeper(sweep, edificios, metrics)

	err := sweeper.Handle(context.Background(), sweepTask(t, VerificarVencimientosPayload{}))
	require.NoError(t, err)

	assert.True(t, edificios.called)
	assert.Equal(t, []int64{1, 2}, sweep.calls)
	assert.Equal(t, []int{5}, metrics.observed)
}

func TestSweeperSingleBuilding(t *testing.T) {
	sweep := &stubSweep{updates: map[int64]int{7: 4}}
	edificios := &stubEdificios{ids: []int64{1, 2}}
	sweeper := newTestSweeper(sweep, edificios, nil)

	err := sweeper.Handle(context.Background(), sweepTask(t, VerificarVencimientosPayload{EdificioID: 7}))
	require.NoError(t, err)

	assert.False(t, edificios.called, "con edificio explicito no se lista el resto")
	assert.Equal(t, []int64{7}, sweep.calls)
}

func TestSweeperToleratesPartialFailure(t *testing.T) {
	sweep := &stubSweep{
		updates: map[int64]int{2: 1},
		errs:    map[int64]error{1: errors.New("deadlock")},
	}
	edificios := &stubEdificios{ids: []int64{1, 2}}
	metrics := &stubMetrics{}
	sweeper := newTestSweeper(sweep, edificios, metrics)

	err := sweeper.Handle(context.Background(), sweepTask(t, VerificarVencimientosPayload{}))
	require.NoError(t, err, "un edificio caido no aborta el resto")
	assert.Equal(t, []int{1}, metrics.observed)
}

func TestSweeperFailsWhenAllBuildingsFail(t *testing.T) {
	boom := errors.New("conexion perdida")
	sweep := &stubSweep{errs: map[int64]error{1: boom, 2: boom}}
	edificios := &stubEdificios{ids: []int64{1, 2}}
	sweeper := newTestSweeper(sweep, edificios, nil)

	err := sweeper.Handle(context.Background(), sweepTask(t, VerificarVencimientosPayload{}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "el fallo total debe reintentarse")
}

func TestSweeperSkipsRetryOnBadPayload(t *testing.T) {
	sweeper := newTestSweeper(&stubSweep{}, &stubEdificios{}, nil)

	task := asynq.NewTask(TaskVerificarVencimientos, []byte("{no-json"))
	err := sweeper.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
