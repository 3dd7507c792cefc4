// Package jobs tracks analysis runs from submission to completion. State is
// held in memory only; a restart forgets all jobs, matching the tool's
// single-operator deployment.
package jobs

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propforma/underwrite/internal/deal"
)

// Status is a job's position in the analysis pipeline.
type Status string

const (
	StatusPending         Status = "pending"
	StatusResearching     Status = "researching"
	StatusModeling        Status = "modeling"
	StatusGeneratingExcel Status = "generating_excel"
	StatusGeneratingWord  Status = "generating_word"
	StatusComplete        Status = "complete"
	StatusError           Status = "error"
)

// Terminal reports whether the status will not change again.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Job is a snapshot of a single analysis run.
type Job struct {
	ID        string
	Status    Status
	Message   string
	Deal      deal.Inputs
	Results   map[string]any
	Market    map[string]any
	ExcelPath string
	WordPath  string
	CreatedAt time.Time
}

// NewID returns a fresh 12-hex-character job identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Store is an in-memory job registry safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a pending job for the given deal and returns its id.
func (s *Store) Create(d deal.Inputs) string {
	id := NewID()
	s.mu.Lock()
	s.jobs[id] = &Job{
		ID:        id,
		Status:    StatusPending,
		Deal:      d,
		CreatedAt: time.Now(),
	}
	s.mu.Unlock()
	return id
}

// Get returns a copy of the job, if known.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SetStatus advances a job's status.
func (s *Store) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
}

// Fail marks a job as errored with an operator-facing message.
func (s *Store) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = StatusError
		job.Message = message
	}
}

// Complete records a finished job's outputs.
func (s *Store) Complete(id string, results, market map[string]any, excelPath, wordPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = StatusComplete
		job.Results = results
		job.Market = market
		job.ExcelPath = excelPath
		job.WordPath = wordPath
	}
}
