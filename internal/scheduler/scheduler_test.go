package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	for _, schedule := range []string{"@every 30m", "*/5 * * * *", "0 */5 * * * *", "@hourly"} {
		assert.NoError(t, s.AddJob(schedule, &countingJob{}), schedule)
	}
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	err := s.RunNow(job)
	require.Error(t, err)
	assert.Equal(t, 1, job.runs)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))
	s.Start()
	s.Stop()
}

func TestScheduler_Statuses(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 1h", job))

	statuses := s.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "counting", statuses[0].Name)
	assert.Equal(t, "@every 1h", statuses[0].Schedule)
	assert.Nil(t, statuses[0].LastRun)
	assert.Zero(t, statuses[0].Runs)

	job.err = errors.New("boom")
	require.Error(t, s.RunNow(job))
	job.err = nil
	require.NoError(t, s.RunNow(job))

	status := s.Statuses()[0]
	require.NotNil(t, status.LastRun)
	assert.Equal(t, 2, status.Runs)
	assert.Equal(t, 1, status.Failures)
	assert.Empty(t, status.LastError)
}

func TestScheduler_RunNowUnregistered(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.RunNow(&countingJob{}))
	assert.Empty(t, s.Statuses())
}
