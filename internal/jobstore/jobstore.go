// Package jobstore coordinates analysis tasks between the API and worker
// processes through a shared broker and result store.
package jobstore

import (
	"context"
	"encoding/json"
	"time"
)

// State enumerates the task lifecycle as observed by clients.
type State string

const (
	StatePending State = "PENDING"
	StateStarted State = "STARTED"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
)

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// TaskSpec describes the work handed to an executor.
type TaskSpec struct {
	PDFPath   string `json:"pdf_path"`
	OutputDir string `json:"output_dir"`
}

// Task is a dequeued unit of work.
type Task struct {
	ID   string
	Spec TaskSpec
}

// Snapshot is the client-visible view of a task. Result is the stored success
// payload verbatim; Error carries the failure detail when State is FAILURE.
type Snapshot struct {
	TaskID string
	State  State
	Result json.RawMessage
	Error  string
}

// record is the JSON value persisted per task in the result store.
type record struct {
	TaskID    string          `json:"task_id"`
	Spec      TaskSpec        `json:"spec"`
	State     State           `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the broker/result-store capability the orchestration core depends
// on. The API uses Enqueue and Status; the worker uses the rest.
type Store interface {
	// Enqueue persists a PENDING record and queues the task, returning the
	// assigned task id.
	Enqueue(ctx context.Context, spec TaskSpec) (string, error)

	// Status reads the current snapshot. An id the broker has never seen is
	// reported as PENDING; callers cannot distinguish the two cases.
	Status(ctx context.Context, id string) (Snapshot, error)

	// Dequeue pops the next queued task, or returns nil when the queue is
	// empty.
	Dequeue(ctx context.Context) (*Task, error)

	MarkStarted(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id string, result any) error
	MarkFailure(ctx context.Context, id string, detail string) error

	// QueueDepth returns the number of tasks waiting for an executor.
	QueueDepth(ctx context.Context) (int64, error)
}
