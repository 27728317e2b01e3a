// Command batch-download reads a submission log and concurrently downloads
// the result archive of every task that has reached SUCCESS.
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
	logFile         string
	baseURL         string
	downloadDir     string
	workers         int
	statusTimeout   time.Duration
	downloadTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "batch-download",
	Short:        "Download completed results listed in a submission log",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&logFile, "log", "l", "submission_log.csv", "submission log containing task ids")
	rootCmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8001", "base URL of the API service")
	rootCmd.Flags().StringVarP(&downloadDir, "dir", "d", "./batch_results", "local directory for downloaded archives")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 5, "number of concurrent download workers")
	rootCmd.Flags().DurationVar(&statusTimeout, "status-timeout", client.DefaultStatusTimeout, "per-task status check timeout")
	rootCmd.Flags().DurationVar(&downloadTimeout, "download-timeout", client.DefaultDownloadTimeout, "per-task download timeout")
}

func run(cmd *cobra.Command, _ []string) error {
	records, err := client.ReadSubmissionLog(logFile)
	if err != nil {
		return err
	}

	var taskIDs []string
	for _, rec := range records {
		if rec.Status == client.SubmissionSubmitted && rec.TaskID != "" {
			taskIDs = append(taskIDs, rec.TaskID)
		}
	}
	if len(taskIDs) == 0 {
		fmt.Println("No submitted tasks found in the log to process.")
		return nil
	}

	fmt.Printf("Found %d submitted tasks. Starting download with %d workers...\n", len(taskIDs), workers)

	c := client.New(baseURL)
	c.StatusTimeout = statusTimeout
	c.DownloadTimeout = downloadTimeout

	bar := progressbar.Default(int64(len(taskIDs)), "Downloading results")
	outcomes := c.DownloadAll(cmd.Context(), taskIDs, downloadDir, workers, func(client.DownloadOutcome) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	var skipped []client.DownloadOutcome
	downloaded := 0
	for _, out := range outcomes {
		if out.Status == client.DownloadDone {
			downloaded++
		} else {
			skipped = append(skipped, out)
		}
	}

	fmt.Println("\nDownload summary:")
	fmt.Printf("  Successfully downloaded: %d\n", downloaded)
	fmt.Printf("  Not downloaded (pending, failed, or error): %d\n", len(skipped))
	if len(skipped) > 0 {
		fmt.Println("\nDetails for tasks not downloaded:")
		for _, out := range skipped {
			fmt.Printf("  - Task ID %s: %s\n", out.TaskID, out.Error)
		}
	}
	fmt.Println("\nBatch download finished.")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
