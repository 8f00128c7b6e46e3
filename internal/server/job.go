package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/stringart/internal/art"
	"github.com/cwbudde/stringart/internal/store"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobConfig is an alias to avoid duplication with store.JobConfig
type JobConfig = store.JobConfig

// Job represents a fitting job
type Job struct {
	ID          string     `json:"id"`
	State       JobState   `json:"state"`
	Config      JobConfig  `json:"config"`
	Chords      int        `json:"chords"`
	Loss        float64    `json:"loss"`
	InitialLoss float64    `json:"initialLoss"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Error       string     `json:"error,omitempty"`

	cancel context.CancelFunc
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	frames      map[string][]byte    // jobID -> latest preview PNG
	grids       map[string]*art.Grid // jobID -> latest working grid snapshot
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		frames:      make(map[string][]byte),
		grids:       make(map[string]*art.Grid),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	snapshot := *job
	return &snapshot
}

// GetJob retrieves a snapshot of a job by ID. Mutations go through
// UpdateJob; handing out copies keeps readers off the worker's writes.
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all jobs
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// SetFrame stores the latest encoded preview frame for a job.
func (jm *JobManager) SetFrame(id string, png []byte) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.frames[id] = png
}

// Frame returns the latest encoded preview frame for a job, if any.
func (jm *JobManager) Frame(id string) ([]byte, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	frame, ok := jm.frames[id]
	return frame, ok
}

// SetGrid stores a snapshot of the working grid for a job, used by the
// diff endpoint.
func (jm *JobManager) SetGrid(id string, g *art.Grid) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.grids[id] = g
}

// Grid returns the latest working grid snapshot for a job, if any.
func (jm *JobManager) Grid(id string) (*art.Grid, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	g, ok := jm.grids[id]
	return g, ok
}

// Cancel signals the worker of a running job to stop. Returns false if the
// job does not exist or has no running worker.
func (jm *JobManager) Cancel(id string) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists || job.cancel == nil {
		return false
	}
	job.cancel()
	return true
}

// GetRunningJobs returns snapshots of all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			snapshot := *job
			runningJobs = append(runningJobs, &snapshot)
		}
	}
	return runningJobs
}
