package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/pkg/logger"
)

type stubRunner struct {
	success bool
	got     contracts.PipelineConfig
}

func (r *stubRunner) Run(ctx context.Context, cfg contracts.PipelineConfig) *contracts.PipelineContext {
	r.got = cfg
	pc := contracts.NewPipelineContext("run-1", cfg)
	pc.Execution = &contracts.PipelineExecution{RunID: "run-1", Success: r.success}
	if !r.success {
		pc.Errors = []contracts.StageError{{StageIndex: 3, Stage: contracts.StageAnalysis, Error: "boom"}}
	}
	return pc
}

type stubStore struct {
	saved   []string
	err     error
	cutoff  time.Time
	removed int64
}

func (s *stubStore) SaveRun(ctx context.Context, pc *contracts.PipelineContext) error {
	s.saved = append(s.saved, pc.RunID)
	return s.err
}

func (s *stubStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.removed, s.err
}

type stubObserver struct{ calls int }

func (o *stubObserver) ObserveInsights(pc *contracts.PipelineContext) { o.calls++ }

func TestPipelineJob(t *testing.T) {
	cfg := contracts.PipelineConfig{Tickers: []string{"AAPL"}, DataSources: []string{"yahoo_finance"}}

	tests := []struct {
		name     string
		success  bool
		storeErr error
		wantErr  bool
	}{
		{"successful run", true, nil, false},
		{"failed run is retried", false, nil, true},
		{"store failure is logged only", true, errors.New("db down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{success: tt.success}
			store := &stubStore{err: tt.storeErr}
			obs := &stubObserver{}

			job := NewPipelineJob(runner, cfg, "@daily", store, obs, logger.NewNop())
			err := job.Run(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), contracts.StageAnalysis)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []string{"run-1"}, store.saved)
			assert.Equal(t, 1, obs.calls)
			assert.Equal(t, []string{"AAPL"}, runner.got.Tickers)
		})
	}
}

func TestPipelineJobWithoutStore(t *testing.T) {
	job := NewPipelineJob(&stubRunner{success: true}, contracts.PipelineConfig{}, "0 30 16 * * MON-FRI", nil, nil, logger.NewNop())

	assert.Equal(t, "market_pipeline", job.Name())
	assert.Equal(t, "0 30 16 * * MON-FRI", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
}

func TestRetentionJob(t *testing.T) {
	store := &stubStore{removed: 4}
	job := NewRetentionJob(store, 30*24*time.Hour, logger.NewNop())
	job.now = func() time.Time { return time.Date(2024, 8, 31, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2024, 8, 1, 3, 0, 0, 0, time.UTC), store.cutoff)

	store.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))
}
