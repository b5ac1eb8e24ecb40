package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
)

const (
	maxSlots    = 3
	numSessions = 200
)

var (
	baseURL      = pflag.StringP("url", "u", "http://127.0.0.1:18090", "petcache base URL")
	numWorkers   = pflag.IntP("workers", "w", 50, "concurrent workers")
	testDuration = pflag.DurationP("duration", "t", 10*time.Second, "duration of each phase")
)

var styles = []string{"enhancedblackwhite", "popart", "dithering", "modern", "classic"}

var petNames = []string{"Rex", "Luna", "Bella", "Max", "Coco", "Buddy", "Fluffy"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	pflag.Parse()

	fmt.Println("=== petcache Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", *numWorkers, *testDuration)
	fmt.Printf("Slots: %d | Sessions: %d\n\n", maxSlots, numSessions)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(*baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: fill every slot
	fmt.Println("\n--- Phase 1: Updates (POST /record) ---")
	runPhase(*testDuration, func(rng *rand.Rand) result {
		return doUpdate(rng)
	})

	// Phase 2: checkout flow, bridge hand-off between pages
	fmt.Println("\n--- Phase 2: Mixed load (40% update, 30% read, 30% bridge) ---")
	runPhase(*testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doUpdate(rng)
		case r < 0.55:
			return doRequest(http.MethodGet, "/records", "", nil, http.StatusOK)
		case r < 0.70:
			return doRequest(http.MethodGet, fmt.Sprintf("/record?slot=%d", rng.Intn(maxSlots)+1), "", nil, http.StatusOK)
		case r < 0.85:
			return doBridgeCreate(rng)
		default:
			return doRequest(http.MethodGet, "/bridge", session(rng), nil, http.StatusOK, http.StatusNoContent)
		}
	})

	// Phase 3: read-heavy, cached GETs and legacy callers
	fmt.Println("\n--- Phase 3: Read-heavy load (10% update, 90% GET) ---")
	runPhase(*testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doUpdate(rng)
		case r < 0.50:
			return doRequest(http.MethodGet, "/records", "", nil, http.StatusOK)
		case r < 0.75:
			return doRequest(http.MethodGet, fmt.Sprintf("/record?slot=%d", rng.Intn(maxSlots)+1), "", nil, http.StatusOK)
		case r < 0.90:
			return doRequest(http.MethodGet, "/legacy/pets", "", nil, http.StatusOK)
		default:
			key := fmt.Sprintf("%d_%d", rng.Intn(maxSlots)+1, rng.Int63())
			return doRequest(http.MethodGet, "/legacy/pet?key="+key, "", nil, http.StatusOK)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func session(rng *rand.Rand) string {
	return fmt.Sprintf("tab-%d", rng.Intn(numSessions))
}

func doUpdate(rng *rand.Rand) result {
	body := map[string]interface{}{
		"name": petNames[rng.Intn(len(petNames))],
	}
	if rng.Float64() < 0.5 {
		body["style"] = styles[rng.Intn(len(styles))]
	}
	if rng.Float64() < 0.3 {
		body["previews"] = map[string]string{
			styles[rng.Intn(len(styles))]: fmt.Sprintf("https://cdn.example.com/%d.png", rng.Int63()),
		}
	}
	data, _ := json.Marshal(body)
	url := fmt.Sprintf("/record?slot=%d", rng.Intn(maxSlots)+1)
	return doRequest(http.MethodPost, url, "", data, http.StatusOK)
}

func doBridgeCreate(rng *rand.Rand) result {
	data, _ := json.Marshal(map[string]interface{}{
		"slots": []int{rng.Intn(maxSlots) + 1},
		"ttlMs": 60000,
	})
	return doRequest(http.MethodPost, "/bridge", session(rng), data, http.StatusCreated)
}

// doRequest issues one request and reports it under "METHOD path". Any status
// outside ok counts as an error.
func doRequest(method, url, sessionID string, body []byte, ok ...int) result {
	endpoint := method + " " + strings.SplitN(url, "?", 2)[0]

	req, err := http.NewRequest(method, *baseURL+url, bytes.NewReader(body))
	if err != nil {
		return result{endpoint, 0, 0, true}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	failed := true
	for _, code := range ok {
		if resp.StatusCode == code {
			failed = false
			break
		}
	}
	return result{endpoint, resp.StatusCode, lat, failed}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
