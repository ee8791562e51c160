package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobManager_CreateJob(t *testing.T) {
	m := NewJobManager()

	job, err := m.CreateJob("guides/setup.md", false)

	require.NoError(t, err)
	require.NotNil(t, job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "guides/setup.md", job.DocPath)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.Incremental)
}

func TestJobManager_CreateJobReturnsRunningDuplicate(t *testing.T) {
	m := NewJobManager()

	first, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)

	second, err := m.CreateJob("doc.md", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "a pending job for the same path is returned, not duplicated")
}

func TestJobManager_NewJobAfterCompletion(t *testing.T) {
	m := NewJobManager()

	first, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)
	m.UpdateStatus(first.ID, JobStatusCompleted, 5, "")

	second, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestJobManager_UpdateStatus(t *testing.T) {
	m := NewJobManager()

	job, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)

	m.UpdateStatus(job.ID, JobStatusRunning, 0, "")
	assert.Equal(t, JobStatusRunning, m.GetJob(job.ID).Status)
	assert.True(t, m.IsRunning("doc.md"))

	m.UpdateStatus(job.ID, JobStatusCompleted, 12, "")
	got := m.GetJob(job.ID)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, 12, got.Records)
	assert.False(t, got.CompletedAt.IsZero())
	assert.False(t, m.IsRunning("doc.md"))
}

func TestJobManager_UpdateStatusFailure(t *testing.T) {
	m := NewJobManager()

	job, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)

	m.UpdateStatus(job.ID, JobStatusFailed, 0, "boom")

	got := m.GetJob(job.ID)
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)
	assert.False(t, m.IsRunning("doc.md"))
}

func TestJobManager_GetJobUnknown(t *testing.T) {
	m := NewJobManager()
	assert.Nil(t, m.GetJob("no-such-id"))
}

func TestJobManager_CancelJob(t *testing.T) {
	m := NewJobManager()

	job, err := m.CreateJob("doc.md", false)
	require.NoError(t, err)

	ctx := m.GetContext(job.ID)
	require.NoError(t, ctx.Err())

	assert.True(t, m.CancelJob(job.ID))
	assert.Error(t, ctx.Err(), "job context is cancelled")
	assert.Equal(t, JobStatusCancelled, m.GetJob(job.ID).Status)
	assert.False(t, m.IsRunning("doc.md"))

	// Cancelling again is a no-op
	assert.False(t, m.CancelJob(job.ID))
}

func TestJobManager_CancelAll(t *testing.T) {
	m := NewJobManager()

	a, err := m.CreateJob("a.md", false)
	require.NoError(t, err)
	b, err := m.CreateJob("b.md", false)
	require.NoError(t, err)
	done, err := m.CreateJob("c.md", false)
	require.NoError(t, err)
	m.UpdateStatus(done.ID, JobStatusCompleted, 1, "")

	m.CancelAll()

	assert.Equal(t, JobStatusCancelled, m.GetJob(a.ID).Status)
	assert.Equal(t, JobStatusCancelled, m.GetJob(b.ID).Status)
	assert.Equal(t, JobStatusCompleted, m.GetJob(done.ID).Status, "finished jobs keep their status")
	assert.False(t, m.IsRunning("a.md"))
	assert.False(t, m.IsRunning("b.md"))
}

func TestJobManager_ListJobs(t *testing.T) {
	m := NewJobManager()

	assert.Empty(t, m.ListJobs())

	_, err := m.CreateJob("a.md", false)
	require.NoError(t, err)
	_, err = m.CreateJob("b.md", false)
	require.NoError(t, err)

	assert.Len(t, m.ListJobs(), 2)
}

func TestJobManager_GetContextUnknownJob(t *testing.T) {
	m := NewJobManager()

	ctx := m.GetContext("unknown")
	require.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())
}
