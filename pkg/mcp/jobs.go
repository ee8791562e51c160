package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a flatten job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents a background flatten job
type Job struct {
	ID           string    `json:"id"`
	DocPath      string    `json:"doc_path"`
	Status       JobStatus `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	Records      int       `json:"records"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Incremental  bool      `json:"incremental"`

	// Internal fields
	ctx    context.Context
	cancel context.CancelFunc
}

// JobManager manages background flatten jobs
type JobManager struct {
	jobs  map[string]*Job
	mu    sync.RWMutex
	bydoc map[string]string // docPath -> jobID for running jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:  make(map[string]*Job),
		bydoc: make(map[string]string),
	}
}

// CreateJob creates a new job for a document
func (m *JobManager) CreateJob(docPath string, incremental bool) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if a job is already running for this document
	if existingJobID, exists := m.bydoc[docPath]; exists {
		existingJob := m.jobs[existingJobID]
		if existingJob != nil && (existingJob.Status == JobStatusPending || existingJob.Status == JobStatusRunning) {
			return existingJob, nil // Return existing running job
		}
	}

	// Create new job
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:          uuid.New().String(),
		DocPath:     docPath,
		Status:      JobStatusPending,
		StartedAt:   time.Now(),
		Incremental: incremental,
		ctx:         ctx,
		cancel:      cancel,
	}

	m.jobs[job.ID] = job
	m.bydoc[docPath] = job.ID

	return job, nil
}

// GetJob retrieves a job by ID
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[jobID]
}

// IsRunning checks if a job is currently running for a document
func (m *JobManager) IsRunning(docPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if jobID, exists := m.bydoc[docPath]; exists {
		job := m.jobs[jobID]
		return job != nil && (job.Status == JobStatusPending || job.Status == JobStatusRunning)
	}
	return false
}

// UpdateStatus updates the status of a job
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, records int, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.Status = status
		job.Records = records
		if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
			job.CompletedAt = time.Now()
			// Remove from bydoc to allow new jobs
			delete(m.bydoc, job.DocPath)
		}
		if errorMsg != "" {
			job.ErrorMessage = errorMsg
		}
	}
}

// CancelJob cancels a running job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		if job.Status == JobStatusPending || job.Status == JobStatusRunning {
			job.cancel()
			job.Status = JobStatusCancelled
			job.CompletedAt = time.Now()
			delete(m.bydoc, job.DocPath)
			return true
		}
	}
	return false
}

// CancelAll cancels all running jobs
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status == JobStatusPending || job.Status == JobStatusRunning {
			job.cancel()
			job.Status = JobStatusCancelled
			job.CompletedAt = time.Now()
		}
	}
	m.bydoc = make(map[string]string)
}

// ListJobs returns all jobs
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// GetContext returns the context for a job (for running the pipeline)
func (m *JobManager) GetContext(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if job, exists := m.jobs[jobID]; exists {
		return job.ctx
	}
	return context.Background()
}
