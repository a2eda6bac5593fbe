// Ping a running calculator to measure API and fanout latency.
//
// Measures GET /health, a full match round trip (start, one minute
// submission, close) and WebSocket ping/pong on /ws.
//
// Usage:
//
//	go run ./cmd/ping_api                     # default: 20 requests, localhost:8080
//	go run ./cmd/ping_api -addr host:9000     # another instance
//	go run ./cmd/ping_api -n 50 -ws           # 50 requests, include WebSocket
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/fairodds/internal/config"
)

const httpTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	addr := flag.String("addr", cfg.FanoutAddr, "calculator host:port")
	n := flag.Int("n", 20, "number of requests per probe")
	ws := flag.Bool("ws", false, "also measure /ws ping/pong latency")
	flag.Parse()

	base := "http://" + *addr
	client := &http.Client{Timeout: httpTimeout}

	banner("HEALTH  " + base + "/health")
	fmt.Println("\n  Cold-start request:")
	ms, code, err := measure(&http.Client{Timeout: httpTimeout}, http.MethodGet, base+"/health", nil)
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	fmt.Printf("    %.1f ms  (HTTP %d)\n", ms, code)
	printStats(repeat(*n, "GET /health", func() (float64, int, error) {
		return measure(client, http.MethodGet, base+"/health", nil)
	}), "Health")

	banner("MATCH ROUND TRIP  start + submit + close")
	printStats(repeat(*n, "round trip", func() (float64, int, error) {
		return roundTrip(client, base)
	}), "Round trip")

	if *ws {
		banner("FANOUT  ws://" + *addr + "/ws")
		printStats(measureWSLatency(*addr, *n), "WebSocket")
	}
	fmt.Println()
}

func banner(title string) {
	fmt.Printf("\n%s\n  %s\n%s\n", strings.Repeat("=", 55), title, strings.Repeat("=", 55))
}

func repeat(n int, label string, fn func() (float64, int, error)) []float64 {
	fmt.Printf("\n  %s (%d requests, keep-alive):\n", label, n)
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		ms, code, err := fn()
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			continue
		}
		latencies = append(latencies, ms)
		fmt.Printf("  [%*d/%d]  %7.1f ms  (HTTP %d)\n", pad, i, n, ms, code)
	}
	return latencies
}

func measure(c *http.Client, method, u string, body any) (ms float64, statusCode int, err error) {
	ms, statusCode, _, err = do(c, method, u, body)
	return ms, statusCode, err
}

func do(c *http.Client, method, u string, body any) (float64, int, []byte, error) {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, 0, nil, err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, u, rd)
	if err != nil {
		return 0, 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := c.Do(req)
	if err != nil {
		return 0, 0, nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	elapsed := time.Since(start)
	if resp.StatusCode >= 300 {
		return 0, resp.StatusCode, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	return float64(elapsed.Microseconds()) / 1000, resp.StatusCode, buf.Bytes(), nil
}

// roundTrip starts a throwaway match, records one minute and closes it.
func roundTrip(c *http.Client, base string) (float64, int, error) {
	start := map[string]any{
		"home": "ping home",
		"away": "ping away",
		"odds": map[string]float64{"home": 2.10, "draw": 3.40, "away": 3.60},
	}
	ms1, _, body, err := do(c, http.MethodPost, base+"/matches", start)
	if err != nil {
		return 0, 0, err
	}
	var view struct {
		ID    string `json:"id"`
		State struct {
			Minute int `json:"minute"`
		} `json:"state"`
	}
	if err := json.Unmarshal(body, &view); err != nil || view.ID == "" {
		return 0, 0, fmt.Errorf("decode start response: %v", err)
	}
	id := url.PathEscape(view.ID)

	ms2, _, _, err := do(c, http.MethodPost, base+"/matches/"+id+"/events", map[string]any{
		"minute":  view.State.Minute + 1,
		"shots":   1,
		"attacks": 2,
	})
	if err != nil {
		do(c, http.MethodDelete, base+"/matches/"+id, nil)
		return 0, 0, err
	}
	ms3, code, _, err := do(c, http.MethodDelete, base+"/matches/"+id, nil)
	if err != nil {
		return 0, 0, err
	}
	return ms1 + ms2 + ms3, code, nil
}

func measureWSLatency(addr string, n int) []float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		fmt.Printf("  [!] WebSocket dial failed: %v\n", err)
		return nil
	}
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	// Control frames are only processed during reads.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	fmt.Printf("\n  WebSocket ping/pong (%d pings):\n", n)
	latencies := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
			fmt.Printf("  [!] WS ping failed: %v\n", err)
			break
		}
		select {
		case <-pongCh:
			latencies = append(latencies, float64(time.Since(start).Microseconds())/1000)
		case <-time.After(5 * time.Second):
			fmt.Printf("  [!] WS pong timeout\n")
			return latencies
		}
	}
	return latencies
}

func printStats(latencies []float64, label string) {
	if len(latencies) < 2 {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range latencies {
		mean += v
	}
	mean /= float64(len(latencies))

	variance := 0.0
	for _, v := range latencies {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(latencies) - 1)

	pct := func(p float64) float64 {
		idx := int(float64(len(sorted)) * p)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}

	fmt.Printf("\n  --- %s Stats (%d samples) ---\n", label, len(latencies))
	fmt.Printf("  Min:    %7.1f ms\n", sorted[0])
	fmt.Printf("  Max:    %7.1f ms\n", sorted[len(sorted)-1])
	fmt.Printf("  Mean:   %7.1f ms\n", mean)
	fmt.Printf("  Median: %7.1f ms\n", sorted[len(sorted)/2])
	fmt.Printf("  Stdev:  %7.1f ms\n", math.Sqrt(variance))
	fmt.Printf("  p95:    %7.1f ms\n", pct(0.95))
	fmt.Printf("  p99:    %7.1f ms\n", pct(0.99))
}
