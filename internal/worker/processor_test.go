package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pdf-analysis-service/internal/analyzer"
	"pdf-analysis-service/internal/jobstore"
)

type stubEngine struct {
	summary *analyzer.Summary
	err     error
	calls   int
}

func (e *stubEngine) Analyze(_ context.Context, pdfPath, outputDir string) (*analyzer.Summary, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	s := *e.summary
	s.InputFile = pdfPath
	s.OutputDirectory = outputDir
	return &s, nil
}

func newTestStore(t *testing.T) jobstore.Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return jobstore.NewRedisStore(client, "tasks:queue", time.Hour)
}

func TestProcessSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := &stubEngine{summary: &analyzer.Summary{Status: "success", AnalysisMode: analyzer.ModeText}}
	p := New(store, engine, time.Millisecond, zerolog.Nop())

	id, err := store.Enqueue(ctx, jobstore.TaskSpec{PDFPath: "/in/a.pdf", OutputDir: "/out/a"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, err := store.Dequeue(ctx)
	if err != nil || task == nil {
		t.Fatalf("dequeue: task=%v err=%v", task, err)
	}

	p.process(ctx, task)

	if engine.calls != 1 {
		t.Fatalf("expected one engine invocation, got %d", engine.calls)
	}
	snap, _ := store.Status(ctx, id)
	if snap.State != jobstore.StateSuccess {
		t.Fatalf("expected SUCCESS, got %s", snap.State)
	}

	var summary analyzer.Summary
	if err := json.Unmarshal(snap.Result, &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if summary.OutputDirectory != "/out/a" || summary.InputFile != "/in/a.pdf" {
		t.Fatalf("summary did not carry task paths: %+v", summary)
	}
}

func TestProcessFailureRecordsError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := &stubEngine{err: errors.New("read pdf: malformed xref table")}
	p := New(store, engine, time.Millisecond, zerolog.Nop())

	id, err := store.Enqueue(ctx, jobstore.TaskSpec{PDFPath: "/in/bad.pdf", OutputDir: "/out/bad"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, _ := store.Dequeue(ctx)
	p.process(ctx, task)

	snap, _ := store.Status(ctx, id)
	if snap.State != jobstore.StateFailure {
		t.Fatalf("expected FAILURE, got %s", snap.State)
	}
	if snap.Error != "read pdf: malformed xref table" {
		t.Fatalf("expected engine error surfaced, got %q", snap.Error)
	}
	if snap.Result != nil {
		t.Fatal("failed task must not carry a result payload")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	p := New(store, &stubEngine{summary: &analyzer.Summary{}}, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestRunDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t)
	engine := &stubEngine{summary: &analyzer.Summary{Status: "success"}}
	p := New(store, engine, time.Millisecond, zerolog.Nop())

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Enqueue(ctx, jobstore.TaskSpec{PDFPath: "/in/x.pdf", OutputDir: "/out/x"})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		ids = append(ids, id)
	}

	go func() { _ = p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		allDone := true
		for _, id := range ids {
			snap, err := store.Status(ctx, id)
			if err != nil || snap.State != jobstore.StateSuccess {
				allDone = false
				break
			}
		}
		if allDone {
			return
		}
		select {
		case <-deadline:
			t.Fatal("queue was not drained in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
