package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one queued extraction session.
type Job struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Status     Status         `json:"status"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	Report     *models.Report `json:"report,omitempty"`
}

// Store keeps job state in memory and mirrors it to a JSON file so job
// history survives a server restart. An empty filename disables the mirror.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	filename string
}

func NewStore(filename string) (*Store, error) {
	s := &Store{
		jobs:     make(map[string]*Job),
		filename: filename,
	}

	if filename != "" {
		if err := s.load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load job store: %w", err)
		}
	}

	return s, nil
}

func (s *Store) Add(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}

	job.EnqueuedAt = time.Now().UTC()
	if job.Status == "" {
		job.Status = StatusPending
	}

	s.jobs[job.ID] = job
	return s.save()
}

func (s *Store) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// List returns all jobs, newest first.
func (s *Store) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnqueuedAt.After(out[j].EnqueuedAt)
	})
	return out
}

func (s *Store) MarkRunning(id string) error {
	return s.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusRunning
		job.StartedAt = &now
	})
}

func (s *Store) MarkCompleted(id string, report *models.Report) error {
	return s.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusCompleted
		job.FinishedAt = &now
		job.Report = report
	})
}

func (s *Store) MarkFailed(id string, jobErr error, report *models.Report) error {
	return s.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusFailed
		job.FinishedAt = &now
		job.Report = report
		if jobErr != nil {
			job.Error = jobErr.Error()
		}
	})
}

// Stats counts jobs per status plus a total.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, job := range s.jobs {
		stats[string(job.Status)]++
	}
	stats["total"] = len(s.jobs)
	return stats
}

func (s *Store) update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	fn(job)
	return s.save()
}

func (s *Store) save() error {
	if s.filename == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first for atomicity
	tmpFile := s.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, s.filename)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.jobs)
}
