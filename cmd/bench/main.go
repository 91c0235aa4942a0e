package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/padqueue/padqueue/internal/testbench"
)

// BenchmarkResult holds results for one load run.
type BenchmarkResult struct {
	Scenario        string  `json:"scenario"`
	NumProducers    int     `json:"num_producers"`
	NumConsumers    int     `json:"num_consumers"`
	BatchSize       int     `json:"batch_size"`
	RecordsProduced int64   `json:"records_produced"`
	RecordsConsumed int64   `json:"records_consumed"` // records delivered inside assembled batches
	TestDuration    string  `json:"test_duration"`    // e.g. "5s"
	ActualElapsed   string  `json:"actual_elapsed"`   // measured time
	Throughput      float64 `json:"throughput_records_sec"`
	Timestamp       int64   `json:"timestamp"`
	GoVersion       string  `json:"go_version"`
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU            int     `json:"num_cpu"`
	TrueCPU           int     `json:"true_cpu,omitempty"`
	SimulatedCPUCount int     `json:"simulated_cpu_count,omitempty"`
	CPUModel          string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz       float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH            string  `json:"go_arch"`
	TotalMemory       uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete bench session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// outputMarkdownTable loads the JSON file and outputs a Markdown table.
func outputMarkdownTable(jsonFile string, scenarios []Scenario) {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file %q: %v\n", jsonFile, err)
		os.Exit(1)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found in JSON.")
		os.Exit(1)
	}
	// Use the last session for the table.
	lastSession := sessions[len(sessions)-1]
	descriptions := make(map[string]string)
	for _, s := range scenarios {
		descriptions[s.Name] = s.Description
	}
	type tableRow struct {
		scenario    string
		batchSize   int
		description string
		throughput  float64
	}
	var rows []tableRow
	for _, bench := range lastSession.Benchmarks {
		rows = append(rows, tableRow{
			scenario:    bench.Scenario,
			batchSize:   bench.BatchSize,
			description: descriptions[bench.Scenario],
			throughput:  bench.Throughput,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].throughput > rows[j].throughput
	})
	fmt.Println("## Last Session Benchmark Summary")
	fmt.Println()
	fmt.Println("| Scenario                 | Batch | Description                                       | Throughput (records/sec) |")
	fmt.Println("|--------------------------|-------|---------------------------------------------------|--------------------------|")
	for _, r := range rows {
		fmt.Printf("| %-24s | %5d | %-49s | %24.0f |\n",
			r.scenario, r.batchSize, r.description, r.throughput)
	}
}

func main() {
	// Flags.
	testIterations := flag.Int("iter", 5, "Number of test iterations per concurrency setting")
	cpuMaxFlag := flag.Int("cpu", 0, "If non-zero, test only that GOMAXPROCS value; if 0, test common CPU/vCPU values up to runtime.NumCPU()")
	jsonExport := flag.Bool("json", false, "Export results as JSON to test-results.json")
	highConcurrency := flag.Bool("high-concurrency", false, "Include high concurrency configurations")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from test-results.json and exit")
	jsonFileForMarkdown := flag.String("jsonfile", "test-results.json", "Path to JSON file for markdown table")
	progressFlag := flag.Bool("progress", false, "Display a progress bar with ETA")
	scenarioFile := flag.String("scenarios", "", "Path to a YAML file with scenario definitions (replaces the built-in set)")
	flag.Parse()

	scenarios := defaultScenarios()
	if *scenarioFile != "" {
		loaded, err := loadScenarios(*scenarioFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading scenarios: %v\n", err)
			os.Exit(1)
		}
		scenarios = loaded
	}

	if *markdownTable {
		outputMarkdownTable(*jsonFileForMarkdown, scenarios)
		return
	}

	trueCpuCount := runtime.NumCPU()
	var cpuSettings []int
	// Define the common CPU/vCPU settings.
	commonCPUs := []int{1, 2, 3, 4, 6, 8, 12, 16, 32, 48, 56, 64, 96, 128, 192, 256, 384, 512}

	if *cpuMaxFlag > 0 {
		desired := *cpuMaxFlag
		if desired > trueCpuCount {
			desired = trueCpuCount
		}
		cpuSettings = []int{desired}
	} else {
		for _, v := range commonCPUs {
			if v <= trueCpuCount {
				cpuSettings = append(cpuSettings, v)
			}
		}
	}

	// Define concurrency configurations.
	concurrencyConfigs := []testbench.Config{
		{NumProducers: 2, NumConsumers: 2},
		{NumProducers: 10, NumConsumers: 10},
		{NumProducers: 50, NumConsumers: 50},
	}
	if *highConcurrency {
		concurrencyConfigs = append(concurrencyConfigs,
			testbench.Config{NumProducers: 100, NumConsumers: 100},
			testbench.Config{NumProducers: 250, NumConsumers: 250},
		)
	}

	// Test duration for each iteration.
	testDuration := 5 * time.Second

	totalTests := len(cpuSettings) * len(concurrencyConfigs) * (*testIterations) * len(scenarios)
	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.NewOptions(totalTests,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("bench"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
		)
	}

	var allSessions []FullReport

	// Iterate over the desired GOMAXPROCS settings.
	for _, cpus := range cpuSettings {
		runtime.GOMAXPROCS(cpus)
		sysInfo := gatherSystemInfo()
		sysInfo.NumCPU = cpus
		sysInfo.TrueCPU = trueCpuCount
		sysInfo.SimulatedCPUCount = cpus

		fmt.Printf("\n=============================\n")
		fmt.Printf("GOMAXPROCS = %d\n", cpus)
		fmt.Printf("=============================\n")

		var results []BenchmarkResult

		for _, cfg := range concurrencyConfigs {
			fmt.Printf("  [Concurrency: producers=%d, consumers=%d]\n", cfg.NumProducers, cfg.NumConsumers)
			for iteration := 1; iteration <= *testIterations; iteration++ {
				fmt.Printf("    iteration %d/%d\n", iteration, *testIterations)
				for _, scenario := range scenarios {
					runtime.GC()
					q, err := scenario.newQueue()
					if err != nil {
						fmt.Fprintf(os.Stderr, "Error building queue for scenario %q: %v\n", scenario.Name, err)
						os.Exit(1)
					}

					runCfg := cfg
					runCfg.BatchSize = scenario.BatchSize
					produced, consumed, actualTime := testbench.RunTimedTest(
						q,
						runCfg,
						testDuration,
						scenario.makeRecord,
					)
					throughput := float64(consumed) / actualTime.Seconds()

					fmt.Printf("    %s => produced=%d, consumed=%d, throughput=%.0f records/s, took=%v\n",
						scenario.Name, produced, consumed, throughput, actualTime)

					if bar != nil {
						_ = bar.Add(1)
					}

					results = append(results, BenchmarkResult{
						Scenario:        scenario.Name,
						NumProducers:    cfg.NumProducers,
						NumConsumers:    cfg.NumConsumers,
						BatchSize:       scenario.BatchSize,
						RecordsProduced: produced,
						RecordsConsumed: consumed,
						TestDuration:    testDuration.String(),
						ActualElapsed:   actualTime.String(),
						Throughput:      throughput,
						Timestamp:       time.Now().Unix(),
						GoVersion:       runtime.Version(),
					})
				}
			}
		}

		allSessions = append(allSessions, FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  sysInfo,
			Benchmarks:  results,
		})
	}

	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	// If JSON export is requested, append the new sessions to test-results.json.
	if *jsonExport {
		const filename = "test-results.json"
		var previous []FullReport
		if _, err := os.Stat(filename); err == nil {
			data, err := os.ReadFile(filename)
			if err == nil && len(data) > 0 {
				json.Unmarshal(data, &previous)
			}
		}
		updated := append(previous, allSessions...)
		data, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error marshalling JSON:", err)
			os.Exit(1)
		}
		if err = os.WriteFile(filename, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing JSON file:", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", filename)
	}
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	numCPU := runtime.NumCPU()
	goArch := runtime.GOARCH

	var cpuModel string
	var cpuSpeed float64
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cpuModel = infos[0].ModelName
		cpuSpeed = infos[0].Mhz
	}

	var totalMemory uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		totalMemory = vm.Total
	}

	return SystemInfo{
		NumCPU:      numCPU,
		CPUModel:    cpuModel,
		CPUSpeedMHz: cpuSpeed,
		GOARCH:      goArch,
		TotalMemory: totalMemory,
	}
}
