package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// BenchmarkResult mirrors the bench tool's result schema.
type BenchmarkResult struct {
	Scenario        string  `json:"scenario"`
	NumProducers    int     `json:"num_producers"`
	NumConsumers    int     `json:"num_consumers"`
	BatchSize       int     `json:"batch_size"`
	RecordsProduced int64   `json:"records_produced"`
	RecordsConsumed int64   `json:"records_consumed"`
	TestDuration    string  `json:"test_duration"`
	ActualElapsed   string  `json:"actual_elapsed"`
	Throughput      float64 `json:"throughput_records_sec"`
	Timestamp       int64   `json:"timestamp"`
	GoVersion       string  `json:"go_version"`
}

// SystemInfo mirrors the bench tool's system information schema.
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

// scenarioStats holds min/median/max ns-per-record for one concurrency level.
type scenarioStats struct {
	concurrency float64 // category index on the X axis
	orig        float64 // original concurrency value
	min         float64
	median      float64
	max         float64
}

// statsPoints implements XYer and YErrorer so lines and error bars share data.
type statsPoints []scenarioStats

func (s statsPoints) Len() int                { return len(s) }
func (s statsPoints) XY(i int) (x, y float64) { return s[i].concurrency, s[i].median }
func (s statsPoints) YError(i int) (low, high float64) {
	return s[i].median - s[i].min, s[i].max - s[i].median
}

// categoryTicks renders the concurrency levels as evenly spaced categories.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

func main() {
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to JSON file containing bench sessions")
	outputPrefix := flag.String("out", "benchmark_graph", "Output graph image filename prefix")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}

	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}

	// Group data by CPU count -> scenario -> concurrency -> ns/record values.
	pointsByCPU := make(map[int]map[string]map[float64][]float64)

	for _, session := range sessions {
		cpus := session.SystemInfo.SimulatedCPUCount
		if cpus == 0 {
			cpus = session.SystemInfo.NumCPU
		}
		if _, ok := pointsByCPU[cpus]; !ok {
			pointsByCPU[cpus] = make(map[string]map[float64][]float64)
		}
		for _, b := range session.Benchmarks {
			dur, err := time.ParseDuration(b.ActualElapsed)
			if err != nil || b.RecordsConsumed == 0 {
				continue
			}
			x := float64(b.NumProducers + b.NumConsumers)
			nsPerRecord := float64(dur.Nanoseconds()) / float64(b.RecordsConsumed)

			scenarioMap := pointsByCPU[cpus]
			if _, ok := scenarioMap[b.Scenario]; !ok {
				scenarioMap[b.Scenario] = make(map[float64][]float64)
			}
			scenarioMap[b.Scenario][x] = append(scenarioMap[b.Scenario][x], nsPerRecord)
		}
	}

	for cpus, scenarioMap := range pointsByCPU {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Padded-batch throughput vs. concurrency, %d CPU(s)", cpus)
		p.X.Label.Text = "NumProducers + NumConsumers"
		p.Y.Label.Text = "Time per Record (ns)"
		p.Legend.Top = true
		p.Legend.Left = true
		p.Add(plotter.NewGrid())

		// Union of concurrency values for this CPU group, as categories.
		concurrencySet := make(map[float64]struct{})
		for _, scenarioData := range scenarioMap {
			for conc := range scenarioData {
				concurrencySet[conc] = struct{}{}
			}
		}
		var concValues []float64
		for val := range concurrencySet {
			concValues = append(concValues, val)
		}
		sort.Float64s(concValues)

		concMapping := make(map[float64]float64)
		var positions []float64
		var labels []string
		for i, val := range concValues {
			concMapping[val] = float64(i)
			positions = append(positions, float64(i))
			labels = append(labels, strconv.FormatFloat(val, 'f', -1, 64))
		}
		p.X.Tick.Marker = categoryTicks{positions: positions, labels: labels}

		var scenarioNames []string
		for name := range scenarioMap {
			scenarioNames = append(scenarioNames, name)
		}
		sort.Strings(scenarioNames)

		colors := plotutil.SoftColors
		shapes := []draw.GlyphDrawer{
			draw.CircleGlyph{},
			draw.SquareGlyph{},
			draw.TriangleGlyph{},
			draw.CrossGlyph{},
			draw.PlusGlyph{},
		}

		// Slight offset per scenario so the error bars stay readable.
		offsetRange := 0.4
		offsetStep := offsetRange / float64(len(scenarioNames))
		startOffset := -offsetRange/2 + offsetStep/2

		for i, name := range scenarioNames {
			stats := buildStats(scenarioMap[name])
			if len(stats) == 0 {
				continue
			}
			for j := range stats {
				stats[j].concurrency = concMapping[stats[j].orig] + startOffset + float64(i)*offsetStep
			}
			sort.Slice(stats, func(a, b int) bool {
				return stats[a].concurrency < stats[b].concurrency
			})
			sp := statsPoints(stats)

			line, err := plotter.NewLine(sp)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating line: %v\n", err)
				continue
			}
			line.Color = colors[i%len(colors)]

			points, err := plotter.NewScatter(sp)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating scatter: %v\n", err)
				continue
			}
			points.GlyphStyle.Radius = vg.Points(4)
			points.Color = colors[i%len(colors)]
			points.Shape = shapes[i%len(shapes)]

			yErrBars, err := plotter.NewYErrorBars(sp)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating error bars: %v\n", err)
				continue
			}
			yErrBars.Color = colors[i%len(colors)]

			p.Add(line, points, yErrBars)
			p.Legend.Add(name, line, points)
		}

		filename := fmt.Sprintf("%s_%d.png", *outputPrefix, cpus)
		if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving plot for %d CPU(s): %v\n", cpus, err)
			continue
		}
		fmt.Printf("Graph for %d CPU(s) saved to %s\n", cpus, filename)
	}
}

// buildStats computes min, median, and max ns/record per concurrency level.
func buildStats(concurrencyMap map[float64][]float64) []scenarioStats {
	var out []scenarioStats
	for x, vals := range concurrencyMap {
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out = append(out, scenarioStats{
			concurrency: x,
			orig:        x,
			min:         vals[0],
			median:      median(vals),
			max:         vals[len(vals)-1],
		})
	}
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}
