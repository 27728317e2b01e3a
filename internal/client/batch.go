package client

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Batch statuses reported per task by DownloadAll.
const (
	DownloadDone    = "DOWNLOADED"
	DownloadError   = "ERROR"
	DownloadSkipped = "SKIPPED"
)

// DownloadOutcome is the per-task result of a batch download run.
type DownloadOutcome struct {
	TaskID string
	Status string
	File   string
	Error  string
}

// SubmitAll submits every file through a bounded worker pool. Each file's
// outcome is captured in its own record; one failed upload never aborts the
// rest of the batch. onDone, if non-nil, is invoked once per completed file.
func (c *Client) SubmitAll(ctx context.Context, pdfPaths []string, workers int, onDone func(SubmissionRecord)) []SubmissionRecord {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var mu sync.Mutex
	records := make([]SubmissionRecord, 0, len(pdfPaths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rec := c.submitOne(ctx, path)
				mu.Lock()
				records = append(records, rec)
				if onDone != nil {
					onDone(rec)
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range pdfPaths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return records
}

func (c *Client) submitOne(ctx context.Context, path string) SubmissionRecord {
	name := filepath.Base(path)
	taskID, err := c.Submit(ctx, path)
	if err != nil {
		return SubmissionRecord{Filename: name, Status: SubmissionFailed, Error: err.Error()}
	}
	return SubmissionRecord{Filename: name, Status: SubmissionSubmitted, TaskID: taskID}
}

// DownloadAll checks each task's status through a bounded worker pool and
// downloads the archive only for tasks that already reached SUCCESS. Tasks in
// any other state are skipped, not retried.
func (c *Client) DownloadAll(ctx context.Context, taskIDs []string, destDir string, workers int, onDone func(DownloadOutcome)) []DownloadOutcome {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var mu sync.Mutex
	outcomes := make([]DownloadOutcome, 0, len(taskIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				out := c.downloadOne(ctx, id, destDir)
				mu.Lock()
				outcomes = append(outcomes, out)
				if onDone != nil {
					onDone(out)
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range taskIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (c *Client) downloadOne(ctx context.Context, taskID, destDir string) DownloadOutcome {
	info, err := c.Status(ctx, taskID)
	if err != nil {
		return DownloadOutcome{TaskID: taskID, Status: DownloadError, Error: err.Error()}
	}
	if info.Status != "SUCCESS" {
		return DownloadOutcome{
			TaskID: taskID,
			Status: DownloadSkipped,
			Error:  fmt.Sprintf("task not successful (status: %s)", info.Status),
		}
	}

	localPath, err := c.Download(ctx, taskID, destDir)
	if err != nil {
		return DownloadOutcome{TaskID: taskID, Status: DownloadError, Error: err.Error()}
	}
	return DownloadOutcome{TaskID: taskID, Status: DownloadDone, File: localPath}
}
