package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

func waitForStatus(t *testing.T, m *Manager, id string, want Status) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := m.Get(id); ok && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := m.Get(id)
	t.Fatalf("job %s never reached %s, last seen: %+v", id, want, job)
	return nil
}

func TestManagerRunsSubmittedJob(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)

	var mu sync.Mutex
	var ran []string
	m := NewManager(store, func(ctx context.Context, url string) (*models.Report, error) {
		mu.Lock()
		ran = append(ran, url)
		mu.Unlock()
		return &models.Report{Products: 3}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	job, err := m.Submit("https://www.amazon.in/s?k=shoes")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	require.NotNil(t, done.Report)
	assert.Equal(t, 3, done.Report.Products)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"https://www.amazon.in/s?k=shoes"}, ran)
}

func TestManagerMarksFailedJobs(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)

	m := NewManager(store, func(ctx context.Context, url string) (*models.Report, error) {
		return &models.Report{Skipped: 5}, errors.New("session aborted")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	job, err := m.Submit("https://www.flipkart.com/search?q=shoes")
	require.NoError(t, err)

	failed := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Equal(t, "session aborted", failed.Error)
	require.NotNil(t, failed.Report)
	assert.Equal(t, 5, failed.Report.Skipped)
}

func TestManagerRunsJobsSequentially(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)

	var mu sync.Mutex
	running := 0
	maxRunning := 0
	m := NewManager(store, func(ctx context.Context, url string) (*models.Report, error) {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return &models.Report{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	var jobs []*Job
	for i := 0; i < 3; i++ {
		job, err := m.Submit("https://www.amazon.in/s?k=shoes")
		require.NoError(t, err)
		jobs = append(jobs, job)
	}

	for _, job := range jobs {
		waitForStatus(t, m, job.ID, StatusCompleted)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxRunning)
}

func TestStorePersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")

	s1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Add(&Job{ID: "job-1", URL: "https://www.amazon.in/dp/B0X"}))
	require.NoError(t, s1.MarkRunning("job-1"))
	require.NoError(t, s1.MarkCompleted("job-1", &models.Report{Products: 7}))

	s2, err := NewStore(path)
	require.NoError(t, err)

	job, ok := s2.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	require.NotNil(t, job.Report)
	assert.Equal(t, 7, job.Report.Products)
}

func TestStoreStats(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	require.NoError(t, s.Add(&Job{ID: "a", URL: "u"}))
	require.NoError(t, s.Add(&Job{ID: "b", URL: "u"}))
	require.NoError(t, s.MarkRunning("b"))

	stats := s.Stats()
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 1, stats[string(StatusPending)])
	assert.Equal(t, 1, stats[string(StatusRunning)])
}

func TestStoreListNewestFirst(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	require.NoError(t, s.Add(&Job{ID: "old", URL: "u"}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Add(&Job{ID: "new", URL: "u"}))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}
