package slotpool_stress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/flow-slotpool/utils/unittest"
)

func TestRun(t *testing.T) {
	cfg := Config{
		Workers:       3,
		Workloads:     6,
		Capacity:      8,
		Ops:           500,
		Seed:          42,
		ValidateEvery: 1,
	}

	report, err := Run(unittest.Logger(), cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.Workloads*cfg.Ops, report.Ops)
	// a small pool under an even emplace/erase mix fills up now and then
	require.Positive(t, report.Rejected)
	require.LessOrEqual(t, report.P50Nanos, report.P99Nanos)
}

// TestRunWorkload_Deterministic checks that a workload only depends on its seed.
func TestRunWorkload_Deterministic(t *testing.T) {
	cfg := Config{Capacity: 4, Ops: 200}

	first, err := runWorkload(cfg, 7)
	require.NoError(t, err)
	second, err := runWorkload(cfg, 7)
	require.NoError(t, err)

	require.Equal(t, first.rejected, second.rejected)
	require.Len(t, first.latencies, cfg.Ops)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(unittest.Logger(), Config{Workers: 0, Workloads: 1, Ops: 1})
	require.Error(t, err)
}
