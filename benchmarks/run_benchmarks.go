// Package main runs the upstreamd benchmark suite and outputs results to
// JSON/Markdown. Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data
type BenchmarkResults struct {
	Timestamp   string           `json:"timestamp"`
	Environment Environment      `json:"environment"`
	Groups      map[string]Group `json:"groups"`
	Summary     Summary          `json:"summary"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Group struct {
	Benchmarks []Benchmark `json:"benchmarks"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

type Summary struct {
	Endpoints   EndpointSummary  `json:"endpoints"`
	Streaming   EndpointSummary  `json:"streaming"`
	Concurrency EndpointSummary  `json:"concurrency"`
	Lifecycle   LifecycleSummary `json:"lifecycle"`
}

type EndpointSummary struct {
	ThroughputOpsPerSec float64 `json:"throughput_ops_per_sec"`
	LatencyNs           float64 `json:"latency_ns"`
	Claim               string  `json:"claim"`
}

type LifecycleSummary struct {
	StartStopNs float64 `json:"start_stop_ns"`
	Claim       string  `json:"claim"`
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("   UPSTREAMD BENCHMARK SUITE")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Groups: make(map[string]Group),
	}

	fmt.Println("Running endpoint benchmarks...")
	endpointBenches := runBenchmarks("BenchmarkHealthEndpoint|BenchmarkChatCompletions$|BenchmarkEcho|BenchmarkModelCatalog")
	results.Groups["endpoints"] = Group{Benchmarks: endpointBenches}

	fmt.Println("Running streaming benchmarks...")
	streamBenches := runBenchmarks("BenchmarkStreamCompletion")
	results.Groups["streaming"] = Group{Benchmarks: streamBenches}

	fmt.Println("Running concurrency benchmarks...")
	concurrentBenches := runBenchmarks("BenchmarkConcurrentCompletions")
	results.Groups["concurrency"] = Group{Benchmarks: concurrentBenches}

	fmt.Println("Running lifecycle benchmarks...")
	lifecycleBenches := runBenchmarks("BenchmarkServerStartup")
	results.Groups["lifecycle"] = Group{Benchmarks: lifecycleBenches}

	results.Summary = calculateSummary(results.Groups)

	if err := os.MkdirAll("benchmarks/results", 0755); err != nil {
		fmt.Printf("Error creating results dir: %v\n", err)
		return
	}

	jsonPath := "benchmarks/results/latest.json"
	writeJSON(results, jsonPath)
	fmt.Printf("\nJSON results: %s\n", jsonPath)

	mdPath := "benchmarks/results/LATEST.md"
	writeMarkdown(results, mdPath)
	fmt.Printf("Markdown results: %s\n", mdPath)

	printSummary(results)
}

func getCPUInfo() string {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pattern string) []Benchmark {
	cmd := exec.Command("go", "test", "-bench="+pattern, "-benchtime=2s", "-benchmem", "./tests/performance/...")
	output, _ := cmd.CombinedOutput()

	return parseBenchmarkOutput(string(output))
}

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark

	// Pattern: BenchmarkName-N    iterations    ns/op    bytes/op    allocs/op
	re := regexp.MustCompile(`(Benchmark[\w/]+)-\d+\s+(\d+)\s+([\d.]+)\s+ns/op\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

	matches := re.FindAllStringSubmatch(output, -1)
	for _, match := range matches {
		if len(match) >= 6 {
			nsPerOp, _ := strconv.ParseFloat(match[3], 64)
			bytesPerOp, _ := strconv.ParseInt(match[4], 10, 64)
			allocsPerOp, _ := strconv.ParseInt(match[5], 10, 64)

			opsPerSec := 0.0
			if nsPerOp > 0 {
				opsPerSec = 1e9 / nsPerOp
			}

			benchmarks = append(benchmarks, Benchmark{
				Name:        match[1],
				NsPerOp:     nsPerOp,
				OpsPerSec:   opsPerSec,
				BytesPerOp:  bytesPerOp,
				AllocsPerOp: allocsPerOp,
			})
		}
	}

	return benchmarks
}

func calculateSummary(groups map[string]Group) Summary {
	summary := Summary{}

	if endpoints, ok := groups["endpoints"]; ok {
		for _, b := range endpoints.Benchmarks {
			if strings.Contains(b.Name, "ChatCompletions") {
				summary.Endpoints.ThroughputOpsPerSec = b.OpsPerSec
				summary.Endpoints.LatencyNs = b.NsPerOp
			}
		}
		summary.Endpoints.Claim = fmt.Sprintf("%.0fK+ req/s", summary.Endpoints.ThroughputOpsPerSec/1000*0.8)
	}

	if streaming, ok := groups["streaming"]; ok {
		for _, b := range streaming.Benchmarks {
			if strings.Contains(b.Name, "StreamCompletion") {
				summary.Streaming.ThroughputOpsPerSec = b.OpsPerSec
				summary.Streaming.LatencyNs = b.NsPerOp
			}
		}
		summary.Streaming.Claim = fmt.Sprintf("%.0fK+ streams/s", summary.Streaming.ThroughputOpsPerSec/1000*0.8)
	}

	if concurrency, ok := groups["concurrency"]; ok {
		for _, b := range concurrency.Benchmarks {
			if strings.Contains(b.Name, "ConcurrentCompletions") {
				// One iteration is a 100-request fan-out.
				summary.Concurrency.ThroughputOpsPerSec = b.OpsPerSec * 100
				summary.Concurrency.LatencyNs = b.NsPerOp
			}
		}
		summary.Concurrency.Claim = fmt.Sprintf("%.0fK+ req/s at 100 conns", summary.Concurrency.ThroughputOpsPerSec/1000*0.7)
	}

	if lifecycle, ok := groups["lifecycle"]; ok {
		for _, b := range lifecycle.Benchmarks {
			if strings.Contains(b.Name, "ServerStartup") {
				summary.Lifecycle.StartStopNs = b.NsPerOp
			}
		}
		summary.Lifecycle.Claim = fmt.Sprintf("<%.0fms start/stop", summary.Lifecycle.StartStopNs/1e6+1)
	}

	return summary
}

func writeJSON(results BenchmarkResults, path string) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}
	os.WriteFile(path, data, 0644)
}

func writeMarkdown(results BenchmarkResults, path string) {
	var sb strings.Builder

	sb.WriteString("# Upstreamd Benchmark Results\n\n")
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", results.Timestamp))
	sb.WriteString("## Environment\n\n")
	sb.WriteString(fmt.Sprintf("- **OS**: %s/%s\n", results.Environment.OS, results.Environment.Arch))
	sb.WriteString(fmt.Sprintf("- **CPU**: %s (%d cores)\n", results.Environment.CPU, results.Environment.NumCPU))
	sb.WriteString(fmt.Sprintf("- **Go**: %s\n\n", results.Environment.GoVersion))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Group | Throughput | Latency | Claim |\n")
	sb.WriteString("|-------|------------|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Endpoints | %.0f req/s | %.2fμs | %s |\n",
		results.Summary.Endpoints.ThroughputOpsPerSec,
		results.Summary.Endpoints.LatencyNs/1000,
		results.Summary.Endpoints.Claim))
	sb.WriteString(fmt.Sprintf("| Streaming | %.0f streams/s | %.2fμs | %s |\n",
		results.Summary.Streaming.ThroughputOpsPerSec,
		results.Summary.Streaming.LatencyNs/1000,
		results.Summary.Streaming.Claim))
	sb.WriteString(fmt.Sprintf("| Concurrency | %.0f req/s | %.2fms/batch | %s |\n",
		results.Summary.Concurrency.ThroughputOpsPerSec,
		results.Summary.Concurrency.LatencyNs/1e6,
		results.Summary.Concurrency.Claim))
	sb.WriteString(fmt.Sprintf("| Lifecycle | - | %.2fms (start/stop) | %s |\n",
		results.Summary.Lifecycle.StartStopNs/1e6,
		results.Summary.Lifecycle.Claim))
	sb.WriteString("\n")

	// Detailed results per group
	for name, group := range results.Groups {
		sb.WriteString(fmt.Sprintf("## %s\n\n", cases.Title(language.English).String(name)))
		sb.WriteString("| Benchmark | ops/sec | ns/op | B/op | allocs/op |\n")
		sb.WriteString("|-----------|---------|-------|------|----------|\n")
		for _, b := range group.Benchmarks {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.0f | %d | %d |\n",
				b.Name, b.OpsPerSec, b.NsPerOp, b.BytesPerOp, b.AllocsPerOp))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Reproducing\n\n")
	sb.WriteString("```bash\n")
	sb.WriteString("go run benchmarks/run_benchmarks.go\n")
	sb.WriteString("# Or individual groups:\n")
	sb.WriteString("go test -bench=BenchmarkChatCompletions -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("go test -bench=BenchmarkStreamCompletion -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("go test -bench=BenchmarkServerStartup -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("```\n")

	os.WriteFile(path, []byte(sb.String()), 0644)
}

func printSummary(results BenchmarkResults) {
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("              SUMMARY")
	fmt.Println("==========================================")
	fmt.Printf("Endpoints:   %.0f req/s (%.2fμs latency)\n",
		results.Summary.Endpoints.ThroughputOpsPerSec,
		results.Summary.Endpoints.LatencyNs/1000)
	fmt.Printf("Streaming:   %.0f streams/s (%.2fμs latency)\n",
		results.Summary.Streaming.ThroughputOpsPerSec,
		results.Summary.Streaming.LatencyNs/1000)
	fmt.Printf("Concurrency: %.0f req/s at 100 connections\n",
		results.Summary.Concurrency.ThroughputOpsPerSec)
	fmt.Printf("Lifecycle:   %.2fms start/stop cycle\n",
		results.Summary.Lifecycle.StartStopNs/1e6)
	fmt.Println("==========================================")
}
