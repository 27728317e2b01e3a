// Command submit drives the full workflow for one PDF: upload, poll until a
// terminal state, and download the result archive on success.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pdf-analysis-service/internal/client"
)

var (
	file        string
	baseURL     string
	interval    time.Duration
	timeout     time.Duration
	downloadDir string
)

var rootCmd = &cobra.Command{
	Use:          "submit",
	Short:        "Submit a single PDF, wait for completion, and download the results",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&file, "file", "f", "", "path to the PDF file to process")
	rootCmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8001", "base URL of the API service")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 3*time.Second, "polling interval")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Minute, "overall completion timeout")
	rootCmd.Flags().StringVar(&downloadDir, "download-dir", "./downloaded_results", "local directory for the result archive")
	_ = rootCmd.MarkFlagRequired("file")
}

func run(cmd *cobra.Command, _ []string) error {
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		return fmt.Errorf("file not found at %q", file)
	}

	c := client.New(baseURL)
	ctx := cmd.Context()

	fmt.Printf("Submitting %q to %s ...\n", filepath.Base(file), c.BaseURL)
	taskID, err := c.Submit(ctx, file)
	if err != nil {
		return fmt.Errorf("submit file: %w", err)
	}
	fmt.Printf("Task submitted. Task ID: %s\n", taskID)

	fmt.Printf("\nPolling for status every %s (timeout in %s)...\n", interval, timeout)
	deadline := time.Now().Add(timeout)
	var last client.StatusInfo
	for {
		if time.Now().After(deadline) {
			// The server-side job keeps running; only the polling gives up.
			return fmt.Errorf("task did not complete within %s", timeout)
		}

		info, err := c.Status(ctx, taskID)
		if err != nil {
			fmt.Printf("  - Error polling status: %v. Retrying...\n", err)
		} else {
			last = info
			fmt.Printf("  - Status: %s\n", info.Status)
			if info.Status == "SUCCESS" || info.Status == "FAILURE" {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	if last.Status == "FAILURE" {
		fmt.Println("\nTask failed. Error details from API:")
		fmt.Printf("  %s\n", last.Result)
		return fmt.Errorf("task %s failed", taskID)
	}

	fmt.Println("\nTask completed. Downloading results...")
	localPath, err := c.Download(ctx, taskID, downloadDir)
	if err != nil {
		return fmt.Errorf("download results: %w", err)
	}
	fmt.Printf("Results downloaded to: %s\n", localPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
