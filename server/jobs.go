package server

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonatw/pdf-watermark-remove/logger"
)

// JobState is the lifecycle state of one upload job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Job tracks one uploaded document through processing. Progress mirrors
// the engine's progress events.
type Job struct {
	ID         string    `json:"id"`
	State      JobState  `json:"state"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	Outcome    bool      `json:"watermark_removed"`
	Error      string    `json:"error,omitempty"`
	Filename   string    `json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
	inputPath  string
	outputPath string
}

// Store is an in-memory job registry with TTL-based cleanup of finished
// jobs and their temp files.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

// NewStore creates a store whose jobs (and their files) are dropped ttl
// after creation.
func NewStore(ttl time.Duration) *Store {
	return &Store{jobs: make(map[string]*Job), ttl: ttl}
}

// Create registers a new queued job for filename.
func (s *Store) Create(filename, inputPath, outputPath string) *Job {
	job := &Job{
		ID:         uuid.NewString(),
		State:      JobQueued,
		Status:     "queued",
		Filename:   filename,
		CreatedAt:  time.Now(),
		inputPath:  inputPath,
		outputPath: outputPath,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a snapshot of the job, or ok=false if unknown.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Update applies fn to the job under the store lock.
func (s *Store) Update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// StartCleanup launches the background sweeper. It stops when stop is
// closed.
func (s *Store) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Job
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) && job.State != JobProcessing {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		for _, path := range []string{job.inputPath, job.outputPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Error("failed to remove expired job file", "path", path, "err", err)
			}
		}
		logger.Debug("expired job cleaned up", "id", job.ID)
	}
}
