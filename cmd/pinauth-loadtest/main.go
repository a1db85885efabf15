package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type operatorState struct {
	id    int64
	pin   string
	token string
}

// syntheticOperators serves operators op-0..op-N-1 with ids 1..N.
type syntheticOperators struct {
	count int64
}

func (s syntheticOperators) GetOperatorByUsername(_ context.Context, username string) (pinauth.Operator, error) {
	var n int64
	if _, err := fmt.Sscanf(username, "op-%d", &n); err != nil || n < 0 || n >= s.count {
		return pinauth.Operator{}, pinauth.ErrOperatorNotFound
	}
	return s.operator(n + 1), nil
}

func (s syntheticOperators) GetOperatorByID(_ context.Context, id int64) (pinauth.Operator, error) {
	if id < 1 || id > s.count {
		return pinauth.Operator{}, pinauth.ErrOperatorNotFound
	}
	return s.operator(id), nil
}

func (syntheticOperators) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

func (syntheticOperators) operator(id int64) pinauth.Operator {
	return pinauth.Operator{
		ID:       id,
		Username: fmt.Sprintf("op-%d", id-1),
		FullName: fmt.Sprintf("Operator %d", id),
		Role:     pinauth.RoleOperator,
		Active:   true,
	}
}

func main() {
	var (
		operators   = flag.Int("operators", 1000, "number of operators to log in before the run")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (validate-pin + check-session)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		bcryptCost  = flag.Int("bcrypt-cost", 4, "bcrypt cost used to hash seeded PINs")
	)
	flag.Parse()

	if *operators <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "operators, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := pinauth.DefaultConfig()
	cfg.Pin.BcryptCost = *bcryptCost
	cfg.Token.PrivateKey = []byte("loadtest-signing-key-0123456789abcdef")
	cfg.Credential.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Audit.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := pinauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithOperatorProvider(syntheticOperators{count: int64(*operators)}).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]operatorState, *operators)
	fmt.Printf("logging in %d operators...\n", *operators)
	startSeed := time.Now()
	for i := 0; i < *operators; i++ {
		res, err := engine.Login(ctx, fmt.Sprintf("op-%d", i), "unused")
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = operatorState{id: res.Operator.ID, pin: res.Pin, token: res.Token}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		st := states[r.Intn(len(states))]
		res, err := engine.ValidatePin(ctx, st.id, st.pin)
		if err != nil {
			return err
		}
		if !res.Valid {
			return fmt.Errorf("unexpected outcome %s", res.Outcome)
		}
		return nil
	})
	sessionStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		st := states[r.Intn(len(states))]
		if _, err := engine.VerifyToken(ctx, st.token); err != nil {
			return err
		}
		active, err := engine.CheckSession(ctx, st.id)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("operator %d has no active session", st.id)
		}
		return nil
	})

	fmt.Println("---- results ----")
	printStats("validate-pin", validateStats)
	printStats("check-session", sessionStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: pin_valid=%d pin_invalid=%d sessions_created=%d\n",
		snap.Counters[pinauth.MetricPinValid],
		snap.Counters[pinauth.MetricPinInvalid],
		snap.Counters[pinauth.MetricSessionCreated],
	)
}

func runPhase(ops, concurrency int, seedStride int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStride))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
