// Package main provides a performance benchmarking tool for the stationqc CLI.
// It generates a synthetic network of stations with gaps, loads it into a SQLite
// series store and times dry-run fills across different worker counts. Each
// setting runs multiple times; the first successful run is treated as cold and
// the rest are averaged as warm. Results are written as CSV.
//
// Prerequisites:
// - stationqc binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated CSV files and the SQLite database
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of one benchmark setting.
type BenchmarkResult struct {
	Stations int
	Workers  int
	Fills    int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	Runs         int
	Hours        int
	Neighbors    int
	StationSizes []int
	WorkerCounts []int
}

// benchStart is the first hour of the generated data.
var benchStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// benchParam is air temperature.
const benchParam = 211

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      5 * time.Minute,
		Runs:         4,
		Hours:        24 * 14,
		Neighbors:    5,
		StationSizes: []int{10, 100, 500},
		WorkerCounts: []int{1, 4, 14},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the stationqc binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("stationqc"); err != nil {
		return fmt.Errorf("stationqc binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work directory %s: %w", config.WorkDir, err)
	}
	return nil
}

// runBenchmarks executes all benchmark settings
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %v stations, %d hours, %v timeout, %d runs per setting\n",
		config.StationSizes, config.Hours, config.Timeout, config.Runs)

	for _, stations := range config.StationSizes {
		dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("bench_%d.db", stations))
		if err := prepareStore(config, stations, dbPath); err != nil {
			fmt.Printf("Skipping %d stations: %v\n", stations, err)
			continue
		}
		for _, workers := range config.WorkerCounts {
			results = append(results, runBenchmarkSuite(config, stations, workers, dbPath))
		}
	}

	return results
}

// prepareStore generates the dataset and loads it into a fresh SQLite store.
func prepareStore(config BenchmarkConfig, stations int, dbPath string) error {
	obsPath := filepath.Join(config.WorkDir, fmt.Sprintf("observations_%d.csv", stations))
	nbPath := filepath.Join(config.WorkDir, fmt.Sprintf("neighbors_%d.csv", stations))
	if err := writeObservations(obsPath, stations, config.Hours); err != nil {
		return err
	}
	if err := writeNeighbors(nbPath, stations, config.Neighbors); err != nil {
		return err
	}

	fmt.Printf("Loading %d stations into %s\n", stations, dbPath)
	for _, args := range [][]string{
		{"store", "clear"},
		{"load", "observations", obsPath},
		{"load", "neighbors", nbPath},
	} {
		if output, err := runStationqc(config, dbPath, args...); err != nil {
			return fmt.Errorf("%v failed: %w\nOutput: %s", args, err, string(output))
		}
	}
	return nil
}

// runBenchmarkSuite times the fill command for one setting
func runBenchmarkSuite(config BenchmarkConfig, stations, workers int, dbPath string) BenchmarkResult {
	fmt.Printf("Running fill on %d stations with %d workers (%d runs)\n", stations, workers, config.Runs)

	window := []string{
		"fill", "--dry-run", "--output", "csv",
		"--workers", strconv.Itoa(workers),
		"--start", benchStart.Format("2006-01-02T15"),
		"--end", benchStart.Add(time.Duration(config.Hours-1) * time.Hour).Format("2006-01-02T15"),
	}

	var times []float64
	fills := 0
	for range config.Runs {
		start := time.Now()
		output, err := runStationqc(config, dbPath, window...)
		if err != nil {
			continue
		}
		times = append(times, time.Since(start).Seconds())
		fills = countRows(output)
	}

	result := BenchmarkResult{Stations: stations, Workers: workers, Fills: fills, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
	if len(times) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}

	fmt.Printf("  Fills: %d, Cold time: %s, Warm average: %s\n", result.Fills, result.ColdTime, result.WarmTime)
	return result
}

// runStationqc runs one command against the SQLite store with a timeout.
func runStationqc(config BenchmarkConfig, dbPath string, args ...string) ([]byte, error) {
	cmd := exec.Command("stationqc", args...)
	cmd.Dir = config.WorkDir
	cmd.Env = append(os.Environ(),
		"STATIONQC_STORE_BACKEND=sqlite",
		"STATIONQC_STORE_DB_CONNECT="+dbPath,
	)

	done := make(chan struct{})
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.Output()
		close(done)
	}()

	select {
	case <-done:
		return output, cmdErr
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		<-done
		return nil, fmt.Errorf("timed out after %v", config.Timeout)
	}
}

// countRows returns the number of CSV data rows in output.
func countRows(output []byte) int {
	rows := 0
	for _, b := range output {
		if b == '\n' {
			rows++
		}
	}
	return max(0, rows-1)
}

// writeObservations writes a smooth daily cycle per station with a three hour
// gap every eleven hours.
func writeObservations(path string, stations, hours int) error {
	return writeCSV(path, []string{"station_id", "param_id", "obstime", "original", "corrected", "status"}, func(w *csv.Writer) error {
		for s := range stations {
			for h := range hours {
				ts := benchStart.Add(time.Duration(h) * time.Hour).Format(time.RFC3339)
				value := 12 + 0.1*float64(s) + 6*math.Sin(2*math.Pi*float64(h)/24)
				record := []string{strconv.Itoa(1000 + s), strconv.Itoa(benchParam), ts,
					strconv.FormatFloat(value, 'f', 2, 64), strconv.FormatFloat(value, 'f', 2, 64), "ok"}
				if h > 12 && h < hours-12 && h%11 < 3 {
					record[3], record[4], record[5] = "-32767", "-32767", "missing"
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeNeighbors links every station to the next stations of the network.
func writeNeighbors(path string, stations, neighbors int) error {
	return writeCSV(path, []string{"station_id", "param_id", "neighbor_id", "rank", "offset", "slope", "sigma"}, func(w *csv.Writer) error {
		for s := range stations {
			for rank := 1; rank <= min(neighbors, stations-1); rank++ {
				n := (s + rank) % stations
				offset := 0.1 * float64(s-n)
				record := []string{strconv.Itoa(1000 + s), strconv.Itoa(benchParam), strconv.Itoa(1000 + n),
					strconv.Itoa(rank), strconv.FormatFloat(offset, 'f', 2, 64), "1", strconv.FormatFloat(0.5*float64(rank), 'f', 2, 64)}
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, rows func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := rows(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/stationqc_benchmark_%s.csv", timestamp)

	err := writeCSV(filename, []string{"stations", "workers", "fills", "cold_time", "warm_avg"}, func(w *csv.Writer) error {
		for _, result := range results {
			if err := w.Write([]string{strconv.Itoa(result.Stations), strconv.Itoa(result.Workers), strconv.Itoa(result.Fills), result.ColdTime, result.WarmTime}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %4d stations, %2d workers: Fills: %d, Cold: %s, Warm: %s\n",
			result.Stations, result.Workers, result.Fills, result.ColdTime, result.WarmTime)
	}
}
