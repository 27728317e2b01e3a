// Command batch-submit uploads every PDF in a directory to the analysis
// service through a bounded worker pool and writes a CSV submission log.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pdf-analysis-service/internal/client"
)

var (
	dir     string
	baseURL string
	workers int
	timeout time.Duration
	logFile string
)

var rootCmd = &cobra.Command{
	Use:          "batch-submit",
	Short:        "Batch submit PDF files to the analysis service",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&dir, "dir", "d", "", "directory containing PDF files to submit")
	rootCmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8001", "base URL of the API service")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 5, "number of concurrent submission workers")
	rootCmd.Flags().DurationVar(&timeout, "timeout", client.DefaultSubmitTimeout, "per-file submission timeout")
	rootCmd.Flags().StringVarP(&logFile, "log", "l", "submission_log.csv", "path of the CSV submission log to write")
	_ = rootCmd.MarkFlagRequired("dir")
}

func run(cmd *cobra.Command, _ []string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory not found at %q", dir)
	}

	pdfs, err := client.ListPDFs(dir)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		fmt.Printf("No PDF files found in %q.\n", dir)
		return nil
	}

	fmt.Printf("Found %d PDF files. Starting submission with %d concurrent workers...\n", len(pdfs), workers)

	c := client.New(baseURL)
	c.SubmitTimeout = timeout

	bar := progressbar.Default(int64(len(pdfs)), "Submitting PDFs")
	records := c.SubmitAll(cmd.Context(), pdfs, workers, func(client.SubmissionRecord) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	var failures []client.SubmissionRecord
	submitted := 0
	for _, rec := range records {
		if rec.Status == client.SubmissionSubmitted {
			submitted++
		} else {
			failures = append(failures, rec)
		}
	}

	fmt.Println("\nSubmission summary:")
	fmt.Printf("  Successfully submitted: %d\n", submitted)
	fmt.Printf("  Failed submissions: %d\n", len(failures))
	if len(failures) > 0 {
		fmt.Println("\nDetails of failed submissions:")
		for _, rec := range failures {
			fmt.Printf("  - %s: %s\n", rec.Filename, rec.Error)
		}
	}

	if err := client.WriteSubmissionLog(logFile, records); err != nil {
		return fmt.Errorf("save submission log: %w", err)
	}
	fmt.Printf("\nSaved detailed submission log to %q. Use it to check status or download results later.\n", logFile)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
