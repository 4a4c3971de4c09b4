package slotpool_replay

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/onflow/flow-slotpool/module/slotpool"
)

var (
	flagScenario string
	flagCapacity uint32
)

// replay a scripted sequence of slot pool operations and print the resulting pool.
// useful to reproduce an ordering or reuse question without writing a test.
// every operation is followed by a full invariant check, so a scenario doubles as a regression check.
//
// scenario file format:
//
//	capacity: 3
//	ops:
//	  - op: emplace
//	    value: "1"
//	  - op: erase        # erases the most recent element holding value
//	    value: "1"
//	  - op: erase        # erases the element in slot 0
//	    index: 0
//	  - op: erase-head
var Cmd = &cobra.Command{
	Use:   "slotpool-replay",
	Short: "replay a scenario of slot pool operations and dump the pool",
	Run:   run,
}

func init() {
	Cmd.Flags().StringVar(&flagScenario, "scenario", "", "path to the yaml scenario file")
	_ = Cmd.MarkFlagRequired("scenario")

	Cmd.Flags().Uint32Var(&flagCapacity, "capacity", 0, "overrides the capacity of the scenario when set")
}

func run(*cobra.Command, []string) {
	raw, err := os.ReadFile(flagScenario)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot read scenario")
	}

	scenario, err := ParseScenario(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse scenario")
	}
	if flagCapacity != 0 {
		scenario.Capacity = flagCapacity
	}

	err = Replay(log.Logger, scenario, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

const (
	OpEmplace   = "emplace"
	OpErase     = "erase"
	OpEraseHead = "erase-head"
)

// Scenario is a capacity and a sequence of operations to apply to a fresh pool.
type Scenario struct {
	Capacity uint32      `yaml:"capacity"`
	Ops      []Operation `yaml:"ops"`
}

// Operation is one step of a scenario. An erase selects its element by Index when set,
// by Value otherwise.
type Operation struct {
	Op    string              `yaml:"op"`
	Value string              `yaml:"value"`
	Index *slotpool.SlotIndex `yaml:"index"`
}

// ParseScenario decodes a yaml scenario, rejecting unknown operations.
func ParseScenario(raw []byte) (Scenario, error) {
	var scenario Scenario
	if err := yaml.UnmarshalStrict(raw, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("invalid scenario yaml: %w", err)
	}

	for i, op := range scenario.Ops {
		switch op.Op {
		case OpEmplace, OpErase, OpEraseHead:
		default:
			return Scenario{}, fmt.Errorf("operation %d: unknown op %q", i, op.Op)
		}
	}
	return scenario, nil
}

// Replay applies the scenario to a new pool, validating the pool after every operation,
// and writes the final pool dump to out.
// Rejected operations (full pool, nothing to erase) are logged and skipped; a broken
// invariant aborts the replay with an error.
func Replay(logger zerolog.Logger, scenario Scenario, out io.Writer) error {
	pool := slotpool.New[string](scenario.Capacity)
	// handles keeps, per slot index, the handle of the last element stored in that slot.
	handles := make([]slotpool.Handle[string], scenario.Capacity)

	for i, op := range scenario.Ops {
		lg := logger.With().Int("step", i).Str("op", op.Op).Str("value", op.Value).Logger()

		var err error
		switch op.Op {
		case OpEmplace:
			var h slotpool.Handle[string]
			h, err = pool.Emplace(op.Value)
			if err == nil {
				handles[h.Index()] = h
				lg.Debug().Int32("slot", int32(h.Index())).Msg("emplaced")
			}
		case OpErase:
			var h slotpool.Handle[string]
			if op.Index != nil {
				// a free or out of range slot yields a handle the pool rejects
				h = pool.End()
				if *op.Index >= 0 && int(*op.Index) < len(handles) {
					h = handles[*op.Index]
				}
				_, err = pool.Erase(h)
				if err == nil {
					lg.Debug().Int32("slot", int32(*op.Index)).Msg("erased")
				}
				break
			}
			h = find(pool, op.Value)
			if h.IsEnd() {
				lg.Warn().Msg("no element holds value, skipping")
				break
			}
			_, err = pool.Erase(h)
			if err == nil {
				lg.Debug().Int32("slot", int32(h.Index())).Msg("erased")
			}
		case OpEraseHead:
			_, err = pool.Erase(pool.Begin())
		default:
			return fmt.Errorf("step %d: unknown op %q", i, op.Op)
		}

		switch {
		case err == nil:
		case slotpool.IsCapacityExceededError(err), slotpool.IsInvalidHandleError(err):
			lg.Warn().Err(err).Msg("operation rejected")
		default:
			return fmt.Errorf("step %d: unexpected error: %w", i, err)
		}

		if err := pool.Validate(); err != nil {
			return fmt.Errorf("step %d: pool invariants broken: %w", i, err)
		}
	}

	logger.Info().
		Uint32("size", pool.Size()).
		Uint32("capacity", pool.MaxSize()).
		Int("ops", len(scenario.Ops)).
		Msg("scenario replayed")

	_, err := pool.WriteTo(out)
	if err != nil {
		return fmt.Errorf("could not write pool dump: %w", err)
	}
	return nil
}

// find returns a handle to the most recent element holding value, or the end sentinel.
func find(pool *slotpool.Pool[string], value string) slotpool.Handle[string] {
	for h := pool.Begin(); !h.IsEnd(); h = h.Next() {
		if h.Value() == value {
			return h
		}
	}
	return pool.End()
}
