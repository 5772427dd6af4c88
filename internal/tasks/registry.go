// Package tasks holds the in-memory registry of asynchronous analysis runs.
// The registry is the concurrency core of the service: it owns the task state
// machine, enforces monotonic progress, bounds its own size by evicting the
// oldest entries, and guarantees a finished result is persisted exactly once
// no matter how many pollers ask for it.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/seo"
)

// Status is the lifecycle state of a task. Completed and failed are
// terminal: once reached, no later call moves the task anywhere else.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is absorbing.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrTaskNotFound is returned when a task id is unknown, either because
	// it never existed or because it was evicted.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotCompleted is returned when a result is requested from a task
	// that has not completed.
	ErrNotCompleted = errors.New("task has not completed")
)

// Task is one asynchronous analysis run.
type Task struct {
	ID                string
	URL               string
	Status            Status
	Progress          int
	CurrentStep       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Result            *seo.AnalysisResult
	Error             string
	PersistedRecordID string
}

// View is the JSON shape of a task for status polling.
type View struct {
	TaskID      string `json:"task_id"`
	URL         string `json:"url"`
	Status      Status `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	Error       string `json:"error,omitempty"`
}

// Config bounds the registry.
type Config struct {
	MaxTasks         int
	ProgressInterval time.Duration
	// OnEvict, when set, is called once per evicted task.
	OnEvict func()
}

// Registry tracks tasks in memory.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task

	// persistMu serializes result persistence separately from mu, so the
	// map lock is never held across store IO
	persistMu sync.Mutex

	cfg    Config
	idGen  seo.IDGenerator
	clock  seo.Clock
	logger *zap.Logger
}

// NewRegistry builds a Registry.
func NewRegistry(cfg Config, idGen seo.IDGenerator, clock seo.Clock, logger *zap.Logger) *Registry {
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = 50
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 5 * time.Second
	}
	return &Registry{
		tasks:  make(map[string]*Task),
		cfg:    cfg,
		idGen:  idGen,
		clock:  clock,
		logger: logger,
	}
}

// CreateTask registers a new pending task and returns its id. Creating past
// the cap evicts the oldest tasks first, regardless of their state.
func (r *Registry) CreateTask(url string) (string, error) {
	id, err := r.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[id] = &Task{
		ID:          id,
		URL:         url,
		Status:      StatusPending,
		Progress:    0,
		CurrentStep: "initializing analysis task...",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.evictLocked()
	return id, nil
}

// evictLocked drops oldest-created tasks until the registry is back at its
// cap. Caller holds mu.
func (r *Registry) evictLocked() {
	for len(r.tasks) > r.cfg.MaxTasks {
		oldestID := ""
		var oldestAt time.Time
		for id, task := range r.tasks {
			if oldestID == "" || task.CreatedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = task.CreatedAt
			}
		}
		r.logger.Info("evicting oldest task", zap.String("task_id", oldestID))
		delete(r.tasks, oldestID)
		if r.cfg.OnEvict != nil {
			r.cfg.OnEvict()
		}
	}
}

// UpdateProgress advances a task. Unknown ids and terminal tasks are
// no-ops, and progress never moves backwards.
func (r *Registry) UpdateProgress(id string, progress int, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress < task.Progress {
		return
	}
	task.Progress = progress
	if step != "" {
		task.CurrentStep = step
	}
	if progress > 0 {
		task.Status = StatusRunning
	}
	task.UpdatedAt = r.clock.Now()
}

// CompleteTask moves a task to completed with its result. No-op if the task
// is unknown or already terminal.
func (r *Registry) CompleteTask(id string, result seo.AnalysisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return
	}
	task.Status = StatusCompleted
	task.Progress = 100
	task.CurrentStep = "analysis complete"
	task.Result = &result
	task.UpdatedAt = r.clock.Now()
}

// FailTask moves a task to failed. No-op if the task is unknown or already
// terminal.
func (r *Registry) FailTask(id string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return
	}
	task.Status = StatusFailed
	task.CurrentStep = fmt.Sprintf("analysis failed: %v", cause)
	task.Error = cause.Error()
	task.UpdatedAt = r.clock.Now()
}

// GetTask returns a copy of the task.
func (r *Registry) GetTask(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// ViewTask returns the JSON representation for polling.
func (r *Registry) ViewTask(id string) (View, bool) {
	task, ok := r.GetTask(id)
	if !ok {
		return View{}, false
	}
	return View{
		TaskID:      task.ID,
		URL:         task.URL,
		Status:      task.Status,
		Progress:    task.Progress,
		CurrentStep: task.CurrentStep,
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339),
		Error:       task.Error,
	}, true
}

// Count returns the number of tracked tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// PersistResult writes a completed task's result to the store exactly once
// and returns the record id. Concurrent callers serialize; whoever arrives
// after the first successful save gets the already-persisted id. A failed
// save leaves the task un-persisted so a later poll can retry.
func (r *Registry) PersistResult(ctx context.Context, id string, store history.Store) (string, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.RLock()
	task, ok := r.tasks[id]
	var (
		status      Status
		persistedID string
		url         string
		result      *seo.AnalysisResult
	)
	if ok {
		status = task.Status
		persistedID = task.PersistedRecordID
		url = task.URL
		result = task.Result
	}
	r.mu.RUnlock()

	if !ok {
		return "", ErrTaskNotFound
	}
	if status != StatusCompleted || result == nil {
		return "", ErrNotCompleted
	}
	if persistedID != "" {
		return persistedID, nil
	}

	recordID, err := r.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate record id: %w", err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode analysis result: %w", err)
	}
	record := history.AnalysisRecord{
		ID:             recordID,
		URL:            url,
		Timestamp:      result.Timestamp,
		AnalysisResult: payload,
		Status:         "completed",
		SEOScore:       result.OverallScore,
		UseAI:          true,
	}
	if err := store.Save(ctx, record); err != nil {
		return "", fmt.Errorf("persist analysis result: %w", err)
	}

	r.mu.Lock()
	if task, ok := r.tasks[id]; ok {
		task.PersistedRecordID = recordID
	}
	r.mu.Unlock()
	return recordID, nil
}
