package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	runs    int
	mu      sync.Mutex
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	j.started <- struct{}{}
	<-j.release
	return errors.New("done")
}

func TestAddJobValidation(t *testing.T) {
	s := NewCronScheduler(nil)
	job := &blockingJob{}
	require.NoError(t, s.AddJob(job, ""))
	require.Equal(t, 0, s.Jobs())
	require.Error(t, s.AddJob(job, "not a cron"))
	require.NoError(t, s.AddJob(job, "@every 1h"))
	require.Error(t, s.AddJob(job, "*/5 * * * *"))
	require.Equal(t, 1, s.Jobs())
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	var (
		mu       sync.Mutex
		observed []error
	)
	s := NewCronScheduler(func(name string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, "blocking", name)
		observed = append(observed, err)
	})
	job := &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
	run := s.wrap(job, "@every 1h")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started
	run()
	close(job.release)
	<-done

	require.Equal(t, 1, job.runs)
	require.Len(t, observed, 1)
	require.EqualError(t, observed[0], "done")
}
