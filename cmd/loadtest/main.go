// Command loadtest drives a running analytics server with a mix of directory,
// daily-metrics and revenue-ranking requests and prints latency percentiles
// per operation.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8000 -concurrency 20 -duration 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

type target struct {
	op   string
	path string
}

type opStats struct {
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int
	errors    int
}

func (s *opStats) record(d time.Duration, code int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errors++
		return
	}
	s.codes[code]++
	s.latencies = append(s.latencies, d)
}

type stats struct {
	byOp map[string]*opStats
}

func newStats(targets []target) *stats {
	s := &stats{byOp: make(map[string]*opStats)}
	for _, t := range targets {
		if _, ok := s.byOp[t.op]; !ok {
			s.byOp[t.op] = &opStats{codes: make(map[int]int)}
		}
	}
	return s
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "base URL of the analytics server")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	ids := flag.String("ids", "101,102,103,104", "comma-separated restaurant ids for daily requests")
	start := flag.String("start", "2025-06-22", "range start date")
	end := flag.String("end", "2025-06-28", "range end date")
	flag.Parse()

	targets := buildTargets(*baseURL, splitIDs(*ids), *start, *end)

	fmt.Println("=== Restaurant Analytics Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Requests:    %d distinct\n", len(targets))
	fmt.Println()

	s := run(targets, *concurrency, *duration)
	if !report(s, *duration) {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the server running?")
		os.Exit(1)
	}
}

func splitIDs(s string) []int64 {
	var out []int64
	for _, f := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// buildTargets produces the request mix: directory queries with search, filter
// and sort variations, a daily request per id with and without filters, and
// the revenue ranking.
func buildTargets(baseURL string, ids []int64, start, end string) []target {
	var out []target
	for _, q := range []url.Values{
		{},
		{"q": {"pizza"}},
		{"cuisine": {"italian"}, "sortField": {"name"}, "sortDir": {"desc"}},
		{"location": {"mumbai"}, "page": {"2"}, "pageSize": {"5"}},
	} {
		out = append(out, target{op: "restaurants", path: baseURL + "/api/restaurants?" + q.Encode()})
	}
	rng := url.Values{"start": {start}, "end": {end}}
	for _, id := range ids {
		base := fmt.Sprintf("%s/api/restaurants/%d/daily?", baseURL, id)
		out = append(out, target{op: "daily", path: base + rng.Encode()})
		filtered := url.Values{"start": {start}, "end": {end}, "amountMin": {"200"}, "hourMin": {"11"}, "hourMax": {"22"}}
		out = append(out, target{op: "daily", path: base + filtered.Encode()})
	}
	out = append(out, target{op: "top_revenue", path: baseURL + "/api/top-restaurants?" + rng.Encode()})
	return out
}

func run(targets []target, concurrency int, duration time.Duration) *stats {
	s := newStats(targets)
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(next int) {
			defer wg.Done()
			for ctx.Err() == nil {
				t := targets[next%len(targets)]
				next++

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.path, nil)
				if err != nil {
					s.byOp[t.op].record(0, 0, err)
					continue
				}
				began := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(began)
				if err != nil {
					if ctx.Err() == nil {
						s.byOp[t.op].record(elapsed, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				s.byOp[t.op].record(elapsed, resp.StatusCode, nil)
			}
		}(w)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return s
}

// report prints per-operation results and reports whether any request
// completed.
func report(s *stats, duration time.Duration) bool {
	ops := make([]string, 0, len(s.byOp))
	for op := range s.byOp {
		ops = append(ops, op)
	}
	slices.Sort(ops)

	var total int
	for _, op := range ops {
		st := s.byOp[op]
		st.mu.Lock()
		latencies := slices.Clone(st.latencies)
		codes := make([]int, 0, len(st.codes))
		for c := range st.codes {
			codes = append(codes, c)
		}
		errs := st.errors
		counts := st.codes
		st.mu.Unlock()

		slices.Sort(latencies)
		slices.Sort(codes)
		total += len(latencies)

		fmt.Printf("=== %s ===\n", op)
		fmt.Printf("Requests:     %d (%.1f/s)\n", len(latencies), float64(len(latencies))/duration.Seconds())
		fmt.Printf("Transport errors: %d\n", errs)
		if len(latencies) > 0 {
			fmt.Printf("P50: %s  P90: %s  P99: %s  Max: %s  StdDev: %s\n",
				percentile(latencies, 50),
				percentile(latencies, 90),
				percentile(latencies, 99),
				latencies[len(latencies)-1],
				stddev(latencies),
			)
		}
		for _, c := range codes {
			fmt.Printf("  %d: %d\n", c, counts[c])
		}
		fmt.Println()
	}
	return total > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}

func stddev(values []time.Duration) time.Duration {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return time.Duration(math.Sqrt(sq / float64(len(values))))
}
