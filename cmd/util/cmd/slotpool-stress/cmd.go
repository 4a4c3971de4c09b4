package slotpool_stress

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/onflow/flow-slotpool/module/slotpool"
)

var (
	flagWorkers       int
	flagWorkloads     int
	flagCapacity      uint32
	flagOps           int
	flagSeed          int64
	flagValidateEvery int
)

// run many seeded random emplace/erase workloads, each against its own pool, and check the
// pool invariants along the way. Reports per-operation latency percentiles across all workloads.
var Cmd = &cobra.Command{
	Use:   "slotpool-stress",
	Short: "run random workloads against slot pools and check their invariants",
	Run:   run,
}

func init() {
	Cmd.Flags().IntVar(&flagWorkers, "workers", 4, "number of workloads run concurrently")
	Cmd.Flags().IntVar(&flagWorkloads, "workloads", 16, "total number of workloads")
	Cmd.Flags().Uint32Var(&flagCapacity, "capacity", 1024, "capacity of each pool")
	Cmd.Flags().IntVar(&flagOps, "ops", 100_000, "operations per workload")
	Cmd.Flags().Int64Var(&flagSeed, "seed", 1, "seed of the first workload; workload i uses seed+i")
	Cmd.Flags().IntVar(&flagValidateEvery, "validate-every", 1000, "check invariants every n operations (0 checks only at the end)")
}

func run(*cobra.Command, []string) {
	cfg := Config{
		Workers:       flagWorkers,
		Workloads:     flagWorkloads,
		Capacity:      flagCapacity,
		Ops:           flagOps,
		Seed:          flagSeed,
		ValidateEvery: flagValidateEvery,
	}

	report, err := Run(log.Logger, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("stress run failed")
	}

	log.Info().
		Int("workloads", cfg.Workloads).
		Int("ops", report.Ops).
		Int("rejected", report.Rejected).
		Float64("mean_ns", report.MeanNanos).
		Float64("p50_ns", report.P50Nanos).
		Float64("p99_ns", report.P99Nanos).
		Msg("stress run finished")
}

type Config struct {
	Workers       int
	Workloads     int
	Capacity      uint32
	Ops           int
	Seed          int64
	ValidateEvery int
}

// Report aggregates the results of all workloads.
type Report struct {
	Ops       int
	Rejected  int // emplace on a full pool
	MeanNanos float64
	P50Nanos  float64
	P99Nanos  float64
}

// Run executes cfg.Workloads independent workloads on a pool of cfg.Workers workers.
// It returns an error listing every workload that observed a broken invariant.
func Run(logger zerolog.Logger, cfg Config) (*Report, error) {
	if cfg.Workers <= 0 || cfg.Workloads <= 0 || cfg.Ops <= 0 {
		return nil, fmt.Errorf("workers, workloads and ops must be positive")
	}

	var (
		mu        sync.Mutex
		errs      error
		latencies = make(stats.Float64Data, 0, cfg.Workloads*cfg.Ops)
		report    = &Report{}
	)

	wp := workerpool.New(cfg.Workers)
	for i := 0; i < cfg.Workloads; i++ {
		seed := cfg.Seed + int64(i)
		wp.Submit(func() {
			result, err := runWorkload(cfg, seed)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("workload with seed %d: %w", seed, err))
				return
			}
			latencies = append(latencies, result.latencies...)
			report.Ops += len(result.latencies)
			report.Rejected += result.rejected
			logger.Debug().Int64("seed", seed).Int("rejected", result.rejected).Msg("workload finished")
		})
	}
	wp.StopWait()

	if errs != nil {
		return nil, errs
	}

	var err error
	report.MeanNanos, err = stats.Mean(latencies)
	if err != nil {
		return nil, fmt.Errorf("could not compute mean latency: %w", err)
	}
	report.P50Nanos, err = stats.Percentile(latencies, 50)
	if err != nil {
		return nil, fmt.Errorf("could not compute median latency: %w", err)
	}
	report.P99Nanos, err = stats.Percentile(latencies, 99)
	if err != nil {
		return nil, fmt.Errorf("could not compute p99 latency: %w", err)
	}
	return report, nil
}

type workloadResult struct {
	latencies stats.Float64Data
	rejected  int
}

// runWorkload applies cfg.Ops random operations to a fresh pool. Emplace and erase are equally
// likely; erase targets a uniformly chosen live element.
func runWorkload(cfg Config, seed int64) (*workloadResult, error) {
	rng := rand.New(rand.NewSource(seed))
	pool := slotpool.New[int64](cfg.Capacity)
	live := make([]slotpool.Handle[int64], 0, cfg.Capacity)
	result := &workloadResult{latencies: make(stats.Float64Data, 0, cfg.Ops)}

	for op := 0; op < cfg.Ops; op++ {
		if rng.Intn(2) == 0 || len(live) == 0 {
			value := rng.Int63()
			start := time.Now()
			h, err := pool.Emplace(value)
			result.latencies = append(result.latencies, float64(time.Since(start).Nanoseconds()))
			switch {
			case err == nil:
				live = append(live, h)
			case slotpool.IsCapacityExceededError(err):
				result.rejected++
			default:
				return nil, fmt.Errorf("op %d: unexpected emplace error: %w", op, err)
			}
		} else {
			i := rng.Intn(len(live))
			start := time.Now()
			_, err := pool.Erase(live[i])
			result.latencies = append(result.latencies, float64(time.Since(start).Nanoseconds()))
			if err != nil {
				return nil, fmt.Errorf("op %d: could not erase live element: %w", op, err)
			}
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		if cfg.ValidateEvery > 0 && (op+1)%cfg.ValidateEvery == 0 {
			if err := check(pool, live); err != nil {
				return nil, fmt.Errorf("op %d: %w", op, err)
			}
		}
	}

	if err := check(pool, live); err != nil {
		return nil, fmt.Errorf("final check: %w", err)
	}
	return result, nil
}

// check validates the pool structure and that every element the workload believes alive is still reachable.
func check(pool *slotpool.Pool[int64], live []slotpool.Handle[int64]) error {
	if err := pool.Validate(); err != nil {
		return fmt.Errorf("pool invariants broken: %w", err)
	}
	if int(pool.Size()) != len(live) {
		return fmt.Errorf("pool holds %d elements, workload tracks %d", pool.Size(), len(live))
	}
	for _, h := range live {
		if _, err := h.Lookup(); err != nil {
			return fmt.Errorf("live element lost: %w", err)
		}
	}
	return nil
}
