// Package jobs queues extraction sessions submitted over the API and runs
// them one at a time. Sessions share a single browser, so the worker is
// deliberately not concurrent.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// Runner executes one extraction session for a URL.
type Runner func(ctx context.Context, url string) (*models.Report, error)

// Manager owns the job queue, the job store and the single worker.
type Manager struct {
	queue  *jobQueue
	store  *Store
	run    Runner
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewManager(store *Store, run Runner) *Manager {
	return &Manager{
		queue:  newJobQueue(),
		store:  store,
		run:    run,
		logger: slog.Default().With("component", "jobs"),
	}
}

// Submit enqueues a new session for url and returns the pending job.
func (m *Manager) Submit(url string) (*Job, error) {
	job := &Job{
		ID:     uuid.New().String(),
		URL:    url,
		Status: StatusPending,
	}

	if err := m.store.Add(job); err != nil {
		return nil, err
	}
	if err := m.queue.Push(job.ID); err != nil {
		return nil, err
	}

	m.logger.Info("job enqueued", "job_id", job.ID, "url", url)
	return job, nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (*Job, bool) {
	return m.store.Get(id)
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []*Job {
	return m.store.List()
}

// Stats counts jobs per status.
func (m *Manager) Stats() map[string]int {
	return m.store.Stats()
}

// QueueSize returns the number of jobs waiting to run.
func (m *Manager) QueueSize() int {
	return m.queue.Size()
}

// Start launches the worker. It returns immediately; the worker runs until
// ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.work(ctx)
	}()
}

// Stop closes the queue and waits for the in-flight job to finish.
func (m *Manager) Stop() {
	m.queue.Close()
	m.wg.Wait()
}

func (m *Manager) work(ctx context.Context) {
	for {
		id, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
				m.logger.Info("worker stopped")
				return
			}
			m.logger.Error("failed to pop job", "error", err)
			return
		}

		job, ok := m.store.Get(id)
		if !ok {
			m.logger.Error("queued job missing from store", "job_id", id)
			continue
		}

		if err := m.store.MarkRunning(id); err != nil {
			m.logger.Error("failed to mark job running", "job_id", id, "error", err)
		}

		m.logger.Info("job started", "job_id", id, "url", job.URL)

		report, runErr := m.run(ctx, job.URL)
		if runErr != nil {
			if err := m.store.MarkFailed(id, runErr, report); err != nil {
				m.logger.Error("failed to mark job failed", "job_id", id, "error", err)
			}
			m.logger.Error("job failed", "job_id", id, "error", runErr)
			continue
		}

		if err := m.store.MarkCompleted(id, report); err != nil {
			m.logger.Error("failed to mark job completed", "job_id", id, "error", err)
		}
		m.logger.Info("job completed",
			"job_id", id,
			"products", report.Products,
			"variants", report.Variants)
	}
}
