package client

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Submission outcomes recorded in the log.
const (
	SubmissionSubmitted = "submitted"
	SubmissionFailed    = "failed"
)

// SubmissionRecord is one row of the batch submission log. Exactly one of
// TaskID and Error is populated, depending on Status.
type SubmissionRecord struct {
	Filename string
	Status   string
	TaskID   string
	Error    string
}

var logHeader = []string{"filename", "status", "task_id", "error"}

// WriteSubmissionLog persists every outcome of a submit run as CSV. The log
// is the durable link between a submit run and later download runs.
func WriteSubmissionLog(path string, records []SubmissionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(logHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Filename, rec.Status, rec.TaskID, rec.Error}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSubmissionLog loads a submission log written by WriteSubmissionLog.
func ReadSubmissionLog(path string) ([]SubmissionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse log: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]SubmissionRecord, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("malformed log row %d: %v", i+1, row)
		}
		records = append(records, SubmissionRecord{
			Filename: row[0],
			Status:   row[1],
			TaskID:   row[2],
			Error:    row[3],
		})
	}
	return records, nil
}
