package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)
	job := store.Create("doc.pdf", "in.pdf", "out.pdf")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobQueued, job.State)

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, "doc.pdf", got.Filename)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStore_Update(t *testing.T) {
	store := NewStore(time.Hour)
	job := store.Create("doc.pdf", "", "")

	store.Update(job.ID, func(j *Job) {
		j.State = JobCompleted
		j.Progress = 1.0
	})

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, JobCompleted, got.State)
	assert.Equal(t, 1.0, got.Progress)
}

func TestStore_SweepRemovesExpiredJobsAndFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pdf")
	output := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(output, []byte("y"), 0o644))

	store := NewStore(0)
	job := store.Create("doc.pdf", input, output)
	store.Update(job.ID, func(j *Job) { j.State = JobCompleted })

	store.sweep()

	_, ok := store.Get(job.ID)
	assert.False(t, ok)
	_, err := os.Stat(input)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SweepKeepsProcessingJobs(t *testing.T) {
	store := NewStore(0)
	job := store.Create("doc.pdf", "", "")
	store.Update(job.ID, func(j *Job) { j.State = JobProcessing })

	store.sweep()

	_, ok := store.Get(job.ID)
	assert.True(t, ok, "in-flight jobs must survive the sweep")
}
