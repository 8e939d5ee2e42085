// Package main provides a performance benchmarking tool for the ecgscope CLI.
// It measures execution times of the trace and preview pipelines over simulated
// recordings of increasing length and count, running each case multiple times,
// treating the first successful run as cold and averaging the rest as warm,
// and generates CSV output for performance analysis and documentation.
//
// Prerequisites:
// - ecgscope binary installed and available in PATH
//
// Usage: go run benchmark/main.go [workers]
//
//	workers: Number of concurrent preview workers (default 8)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark case (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Case        string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkCase describes one pipeline invocation over simulated recordings.
type BenchmarkCase struct {
	Name       string
	Command    string
	Recordings int
	Duration   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	Workers     int
	NoStoreRuns int
	StoreRuns   int
	Cases       []BenchmarkCase
}

func main() {
	workers := 8
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Printf("Usage: %s [workers]\n", os.Args[0])
			os.Exit(1)
		}
		workers = n
	}

	config := BenchmarkConfig{
		Timeout:     2 * time.Minute,
		Workers:     workers,
		NoStoreRuns: 3,
		StoreRuns:   4,
		Cases: []BenchmarkCase{
			{Name: "trace-10s", Command: "trace", Recordings: 1, Duration: "10s"},
			{Name: "trace-5m", Command: "trace", Recordings: 1, Duration: "5m"},
			{Name: "trace-1h", Command: "trace", Recordings: 1, Duration: "1h"},
			{Name: "preview-8", Command: "preview", Recordings: 8, Duration: "10s"},
			{Name: "preview-64", Command: "preview", Recordings: 64, Duration: "10s"},
			{Name: "preview-512", Command: "preview", Recordings: 512, Duration: "10s"},
		},
	}

	if _, err := exec.LookPath("ecgscope"); err != nil {
		fmt.Printf("Prerequisites check failed: ecgscope binary not found in PATH\n")
		os.Exit(1)
	}

	fmt.Printf("Clearing stores...\n")
	for _, args := range [][]string{{"previews", "clear"}, {"runs", "clear", "--run-backend", "sqlite"}} {
		if output, err := exec.Command("ecgscope", args...).CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to run %v: %v\nOutput: %s\n", args, err, string(output))
		}
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes every configured case.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d cases, %v timeout, %d workers, no-store: %d runs, store: %d runs\n",
		len(config.Cases), config.Timeout, config.Workers, config.NoStoreRuns, config.StoreRuns)

	for _, c := range config.Cases {
		results = append(results, runBenchmarkSuite(config, c))
	}

	return results
}

// caseArgs builds the ecgscope arguments of a case.
func caseArgs(c BenchmarkCase, workers int) []string {
	args := []string{c.Command, "--source", "sim", "--sim-duration", c.Duration, "--workers", strconv.Itoa(workers)}
	for i := range c.Recordings {
		args = append(args, fmt.Sprintf("bench-%03d", i))
	}
	return args
}

// runBenchmarkSuite runs a case without stores and then with SQLite stores.
func runBenchmarkSuite(config BenchmarkConfig, c BenchmarkCase) BenchmarkResult {
	fmt.Printf("Running %s\n", c.Name)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		args := append(caseArgs(c, config.Workers), "--preview-backend", backend, "--run-backend", backend)
		cold, times := runBenchmark(config, c.Command, args, numRuns)
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

	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Case:        c.Name,
		Command:     c.Command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes an ecgscope command multiple times and returns cold time and warm times.
func runBenchmark(config BenchmarkConfig, command string, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("ecgscope", args...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
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

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	phrase := "Trace completed in"
	if command == "preview" {
		phrase = "Previews completed in"
	}
	return strings.Contains(string(output), phrase)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/ecgscope_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"case", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Case, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "trace", "Trace:")
	printCommandSummary(results, "preview", "Preview:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: No-store: %s, Cold: %s, Warm: %s\n", result.Case, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
