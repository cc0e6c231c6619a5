// Package main provides a performance benchmarking tool for the dorametrics CLI.
// It generates synthetic CSV inputs of increasing size, runs each report command
// multiple times with one worker and with many, treating the first successful run
// as cold and averaging the rest as warm, and writes CSV output for analysis.
//
// Prerequisites:
// - dorametrics binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory to generate the synthetic inputs in
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (single-worker average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset    string
	Command    string
	SingleTime string
	ColdTime   string
	WarmTime   string
}

// Dataset describes one synthetic input size.
type Dataset struct {
	Name   string
	Builds int // number of CI builds
	Days   int // days of health samples
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir    string
	Timeout    time.Duration
	Workers    int
	SingleRuns int
	ParRuns    int
	Datasets   []Dataset
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:    os.Args[1],
		Timeout:    5 * time.Minute,
		Workers:    14,
		SingleRuns: 3,
		ParRuns:    4,
		Datasets: []Dataset{
			{Name: "small", Builds: 500, Days: 7},
			{Name: "medium", Builds: 20_000, Days: 90},
			{Name: "large", Builds: 200_000, Days: 365},
		},
	}

	if _, err := exec.LookPath("dorametrics"); err != nil {
		fmt.Printf("Prerequisites check failed: dorametrics binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, single: %d runs, parallel: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.SingleRuns, config.ParRuns)

	for _, ds := range config.Datasets {
		dir := filepath.Join(config.WorkDir, ds.Name)
		fmt.Printf("Generating %s dataset in %s\n", ds.Name, dir)
		if err := generateDataset(dir, ds); err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", ds.Name, err)
			continue
		}

		delivery := []string{"delivery", "--builds-file", "builds.csv", "--commits-file", "commits.csv", "--pull-requests-file", "prs.csv"}
		results = append(results, runBenchmarkSuite(config, ds.Name, dir, "delivery", delivery))

		availability := []string{"availability", "--health-file", "health.csv", "--environment", "bench",
			"--start", "2025-01-01", "--end", time.Date(2025, 1, ds.Days, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)}
		results = append(results, runBenchmarkSuite(config, ds.Name, dir, "availability", availability))
	}

	return results
}

// runBenchmarkSuite runs both single-worker and parallel benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, dir, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	// Helper to run a benchmark phase
	runPhase := func(workers, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		phaseArgs := append(append([]string{}, args...), "--workers", strconv.Itoa(workers), "--output", "csv")
		cold, times := runBenchmark(config, dir, phaseArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, singleAvg := runPhase(1, config.SingleRuns, "Single-worker")
	coldTime, warmAvg := runPhase(config.Workers, config.ParRuns, "Parallel")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Single-worker average: %s, Cold time: %s, Warm average: %s\n", singleAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:    dataset,
		Command:    command,
		SingleTime: singleAvg,
		ColdTime:   coldTimeStr,
		WarmTime:   warmAvg,
	}
}

// runBenchmark executes a dorametrics command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir string, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("dorametrics", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "DORAMETRICS_CACHE_BACKEND=none", "DORAMETRICS_ANALYSIS_BACKEND=none")

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && len(output) > 0 {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// generateDataset writes builds, commits, pull requests and health samples into dir.
func generateDataset(dir string, ds Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(uint64(ds.Builds), uint64(ds.Days)))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	span := time.Duration(ds.Days) * 24 * time.Hour

	var builds, commits, prs [][]string
	builds = append(builds, []string{"job_name", "build_number", "result", "timestamp", "duration", "commit_id"})
	commits = append(commits, []string{"hash", "timestamp", "tag"})
	prs = append(prs, []string{"number", "created_at", "merged_at", "state"})
	for i := range ds.Builds {
		deployed := start.Add(time.Duration(rng.Int64N(int64(span))))
		opened := deployed.Add(-time.Duration(1+rng.IntN(72)) * time.Hour)
		result := "SUCCESS"
		if rng.IntN(10) == 0 {
			result = "FAILURE"
		}
		hash := fmt.Sprintf("c%07x", i)
		pr := strconv.Itoa(i + 1)
		builds = append(builds, []string{"deploy", strconv.Itoa(i + 1), result, deployed.Format(time.RFC3339), "60000", hash})
		commits = append(commits, []string{hash, opened.Format(time.RFC3339), "PR-" + pr})
		prs = append(prs, []string{pr, opened.Format(time.RFC3339), deployed.Format(time.RFC3339), "MERGED"})
	}

	health := [][]string{{"timestamp", "status"}}
	for t := start; t.Before(start.Add(span)); t = t.Add(5 * time.Minute) {
		status := 1
		switch n := rng.IntN(200); {
		case n == 0:
			status = 3
		case n < 3:
			status = 2
		}
		health = append(health, []string{t.Format(time.RFC3339), strconv.Itoa(status)})
	}

	for name, rows := range map[string][][]string{
		"builds.csv": builds, "commits.csv": commits, "prs.csv": prs, "health.csv": health,
	} {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/dorametrics_benchmark_%s.csv", timestamp)

	rows := [][]string{{"dataset", "cmd", "single_avg", "cold_time", "warm_avg"}}
	for _, result := range results {
		rows = append(rows, []string{result.Dataset, result.Command, result.SingleTime, result.ColdTime, result.WarmTime})
	}
	if err := writeCSV(filename, rows); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "delivery", "Delivery Report:")
	printCommandSummary(results, "availability", "Availability Report:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: Single: %s, Cold: %s, Warm: %s\n", result.Dataset, result.SingleTime, result.ColdTime, result.WarmTime)
		}
	}
}
