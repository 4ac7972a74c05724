package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"matrix-client/client/dispatch"
	"matrix-client/client/dispatch/domain"
	"matrix-client/client/dispatch/infra"

	"github.com/redis/go-redis/v9"
)

// loadgen dispara uma rajada de requisições pela fila de despacho contra um
// upstream (ex.: teste-validacao/servidor-limitador) e imprime o resumo de
// conformidade: com a fila na frente, zero 429 é o esperado.
func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var pacer domain.StartPacer
	switch cfg.pacer {
	case "window":
		pacer = infra.NewWindowPacer(cfg.intervalCap, cfg.interval)
	case "bucket":
		pacer = infra.NewBucketPacer(cfg.intervalCap, cfg.interval, infra.WithBurst(cfg.bucketBurst))
	default:
		log.Fatalf("invalid PACER %q (use window|bucket)", cfg.pacer)
	}

	memStats := infra.NewMemoryStatsStore()
	var stats domain.StatsStore = memStats
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			// log.Fatalf não roda os defers; fecha o client antes de sair.
			_ = rdb.Close()
			log.Fatalf("redis stats ping error: %v", err)
		}

		stats = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
		)
	}

	queue := dispatch.New(dispatch.Options{
		Concurrency: cfg.concurrency,
		IntervalCap: cfg.intervalCap,
		Interval:    cfg.interval,
		Pacer:       pacer,
		Stats:       stats,
	})

	client := &http.Client{
		Transport: &dispatch.Transport{
			Queue:              queue,
			AddDispatchHeaders: cfg.addHeaders,
		},
		Timeout: cfg.requestTimeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("loadgen: %d requests -> %s", cfg.requests, cfg.upstreamURL)
	log.Printf("dispatch: concurrency=%d intervalCap=%d interval=%s pacer=%s", cfg.concurrency, cfg.intervalCap, cfg.interval, cfg.pacer)

	start := time.Now()

	var (
		mu       sync.Mutex
		byStatus = make(map[int]int)
		failures int
	)
	var wg sync.WaitGroup
	for i := 0; i < cfg.requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.upstreamURL, nil)
			var resp *http.Response
			if err == nil {
				resp, err = client.Do(req)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			_ = resp.Body.Close()
			byStatus[resp.StatusCode]++
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	snap := queue.Snapshot()
	log.Printf("done in %s (%.1f starts/s)", elapsed.Round(time.Millisecond), float64(snap.Started)/elapsed.Seconds())
	log.Printf("outcomes: succeeded=%d failed=%d transportErrors=%d", snap.Succeeded, snap.Failed, failures)
	for code, n := range byStatus {
		log.Printf("  status %d: %d", code, n)
	}
	if !cfg.statsEnabled {
		log.Printf("peaks: inFlight=%d queued=%d", memStats.MaxInFlight(), memStats.MaxQueued())
	}
	if byStatus[http.StatusTooManyRequests] > 0 {
		log.Fatalf("VIOLATION: upstream returned %d responses 429", byStatus[http.StatusTooManyRequests])
	}
}

type config struct {
	upstreamURL    string
	requests       int
	concurrency    int
	intervalCap    int
	interval       time.Duration
	pacer          string
	bucketBurst    int
	addHeaders     bool
	requestTimeout time.Duration

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.requests = getenvIntDefault("REQUESTS", 100)
	cfg.concurrency = getenvIntDefault("DISPATCH_CONCURRENCY", dispatch.DefaultConcurrency)
	cfg.intervalCap = getenvIntDefault("DISPATCH_INTERVAL_CAP", dispatch.DefaultIntervalCap)
	cfg.interval = getenvDurationDefault("DISPATCH_INTERVAL", dispatch.DefaultInterval)
	cfg.pacer = getenvDefault("PACER", "window")
	cfg.bucketBurst = getenvIntDefault("BUCKET_BURST", 1)
	cfg.addHeaders = getenvBoolDefault("ADD_DISPATCH_HEADERS", false)
	cfg.requestTimeout = getenvDurationDefault("REQUEST_TIMEOUT", 30*time.Second)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "dispatch:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.requests <= 0 {
		return config{}, errors.New("REQUESTS must be > 0")
	}
	if cfg.intervalCap <= 0 {
		return config{}, errors.New("DISPATCH_INTERVAL_CAP must be > 0")
	}
	if cfg.interval <= 0 {
		return config{}, errors.New("DISPATCH_INTERVAL must be > 0")
	}
	if cfg.bucketBurst <= 0 {
		return config{}, errors.New("BUCKET_BURST must be > 0")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
