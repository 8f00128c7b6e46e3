package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		url := fmt.Sprintf("%s/api/v1/jobs", serverURL)
		return listJobs(url)
	}

	jobID := args[0]
	url := fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID)
	return getJobStatus(url, jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		config := job["config"].(map[string]interface{})
		fmt.Printf("  Reference: %s\n", config["refPath"])
		fmt.Printf("  Mode: %s\n", config["mode"])
		fmt.Printf("  Anchors: %v\n", config["anchors"])
		if job["chords"] != nil {
			fmt.Printf("  Chords: %v\n", job["chords"])
		}
		if job["loss"] != nil && job["loss"].(float64) > 0 {
			fmt.Printf("  Loss: %.2f\n", job["loss"])
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	config := status["config"].(map[string]interface{})
	fmt.Println("Configuration:")
	fmt.Printf("  Reference: %s\n", config["refPath"])
	fmt.Printf("  Mode: %s\n", config["mode"])
	fmt.Printf("  Shape: %s\n", config["shape"])
	fmt.Printf("  Size: %v\n", config["size"])
	fmt.Printf("  Anchors: %v\n", config["anchors"])
	fmt.Printf("  Tolerance: %v\n", config["tolerance"])
	fmt.Println()

	fmt.Println("Progress:")
	if status["chords"] != nil {
		fmt.Printf("  Chords: %v\n", status["chords"])
	}
	if status["initialLoss"] != nil && status["initialLoss"].(float64) > 0 {
		fmt.Printf("  Initial Loss: %.2f\n", status["initialLoss"])
	}
	if status["loss"] != nil && status["loss"].(float64) > 0 {
		fmt.Printf("  Loss: %.2f\n", status["loss"])
		if initial, ok := status["initialLoss"].(float64); ok && initial > 0 {
			improvement := initial - status["loss"].(float64)
			improvementPct := (improvement / initial) * 100
			fmt.Printf("  Improvement: %.2f (%.1f%%)\n", improvement, improvementPct)
		}
	}

	if status["elapsed"] != nil {
		elapsed := time.Duration(status["elapsed"].(float64) * float64(time.Second))
		fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}

	if status["cps"] != nil && status["cps"].(float64) > 0 {
		fmt.Printf("  Throughput: %.1f chords/sec\n", status["cps"])
	}

	if status["error"] != nil && status["error"].(string) != "" {
		fmt.Printf("\nError: %s\n", status["error"])
	}

	return nil
}
