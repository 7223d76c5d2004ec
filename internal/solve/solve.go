// Package solve runs a checkpointed Kuhn Poker solve for the solve_kuhn command.
package solve

import (
	"context"
	"expvar"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mbabramo/ACESim4-sub001"
	"github.com/mbabramo/ACESim4-sub001/kuhn"
	"github.com/mbabramo/ACESim4-sub001/tree"
)

var (
	iterationsDone = expvar.NewInt("iterations")
	infoSets       = expvar.NewInt("information_sets")
)

// RunParams configure one solve. They are read from flags and an
// optional YAML file.
type RunParams struct {
	// Mode is the name of a cfr.NavigationMode.
	Mode string `yaml:"mode"`
	// Solver is "vanilla" or "external".
	Solver     string `yaml:"solver"`
	Iterations int    `yaml:"iterations"`
	// BatchSize is the number of iterations run between progress reports.
	BatchSize int  `yaml:"batch_size"`
	BuildTree bool `yaml:"build_tree"`

	// Discount applies to either solver.
	Discount         cfr.DiscountParams         `yaml:"discount"`
	ExternalSampling cfr.ExternalSamplingParams `yaml:"external_sampling"`

	Checkpoint CheckpointParams `yaml:"checkpoint"`
	PprofAddr  string           `yaml:"pprof_addr"`
}

// CheckpointParams select where the stores are saved during a solve.
type CheckpointParams struct {
	// Backend is "leveldb", "rocksdb", or empty for no checkpoints.
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	// Interval is the number of iterations between saves. Zero saves
	// only at the end of the solve or when it is interrupted.
	Interval int `yaml:"interval"`
}

// Checkpointer is implemented by ldbstore.Checkpoint and rdbstore.Checkpoint.
type Checkpointer interface {
	Save(stores []cfr.InformationSetStore, iter int) error
	Load(stores []cfr.InformationSetStore) (int, error)
	Close() error
}

// OpenFunc opens the checkpoint described by params. It returns a nil
// Checkpointer if checkpoints are disabled.
type OpenFunc func(params CheckpointParams) (Checkpointer, error)

// batchSolver runs batches of iterations and counts the completed ones,
// including those of an interrupted batch.
type batchSolver struct {
	run       func(ctx context.Context, n int) error
	completed func() int
}

// Run solves Kuhn Poker, resuming from the checkpoint opened by open if it
// holds a saved solve. open may be nil. If ctx is done the stores are
// saved, with the number of iterations completed so far, and Run returns nil.
func Run(ctx context.Context, params RunParams, open OpenFunc) error {
	mode, err := cfr.ParseNavigationMode(params.Mode)
	if err != nil {
		return err
	}

	if params.BatchSize < 1 {
		return errors.Errorf("batch size must be positive, got %d", params.BatchSize)
	}

	game := kuhn.NewGame()
	stores := cfr.NewInformationSetTables(game)
	nav, err := cfr.NewNavigation(mode, game, stores)
	if err != nil {
		return err
	}

	var ckpt Checkpointer
	if open != nil {
		if ckpt, err = open(params.Checkpoint); err != nil {
			return err
		}
	}

	start := 0
	if ckpt != nil {
		defer ckpt.Close()
		if start, err = ckpt.Load(stores); err != nil {
			return err
		}
	}

	if params.BuildTree {
		nav.BuildTree()
	}

	solver, err := newSolver(nav, params, start)
	if err != nil {
		return err
	}

	t0 := time.Now()
	iter, saved := start, start
	for iter < params.Iterations {
		n := params.BatchSize
		if ckpt != nil && params.Checkpoint.Interval > 0 && n > saved+params.Checkpoint.Interval-iter {
			n = saved + params.Checkpoint.Interval - iter
		}
		if iter+n > params.Iterations {
			n = params.Iterations - iter
		}

		err := solver.run(ctx, n)
		iter = solver.completed()
		iterationsDone.Set(int64(iter))
		infoSets.Set(int64(countRecords(stores)))
		if err != nil {
			if ckpt != nil && ctx.Err() != nil {
				glog.Infof("Interrupted after %d iterations, saving checkpoint", iter)
				return ckpt.Save(stores, iter)
			}
			return err
		}

		if ckpt != nil && params.Checkpoint.Interval > 0 && iter-saved >= params.Checkpoint.Interval {
			if err := ckpt.Save(stores, iter); err != nil {
				return err
			}
			saved = iter
		}

		glog.V(1).Infof("[iter=%d] %.1f iterations/sec", iter, float64(iter-start)/time.Since(t0).Seconds())
	}

	if ckpt != nil && saved != iter {
		if err := ckpt.Save(stores, iter); err != nil {
			return err
		}
	}

	eval := nav.WithMode(cfr.CompactHistoryReplay).Root()
	u := cfr.ExpectedUtilities(eval, cfr.AverageStrategy)
	glog.Infof("Average strategy value: P0 %.4f, P1 %.4f", u[0], u[1])

	policy := make([]float64, 2)
	tree.VisitInfoSets(eval, func(player int, tally *cfr.InformationSetNodeTally) {
		tally.AverageStrategyPolicy(policy)
		glog.Infof("[player %d] %v: pass=%.3f bet=%.3f", player, tally, policy[0], policy[1])
	})

	return nil
}

// newSolver returns the chosen solver, continuing after start completed iterations.
func newSolver(nav *cfr.Navigation, params RunParams, start int) (*batchSolver, error) {
	switch params.Solver {
	case "vanilla":
		vanilla := cfr.NewVanilla(nav, params.Discount)
		vanilla.Resume(start)
		return &batchSolver{
			run: func(ctx context.Context, n int) error {
				for i := 0; i < n; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					vanilla.Run()
				}
				return nil
			},
			completed: func() int { return vanilla.Iter() - 1 },
		}, nil
	case "external":
		esParams := params.ExternalSampling
		esParams.Discount = params.Discount
		es := cfr.NewExternalSampling(nav, esParams)
		es.Resume(start)
		return &batchSolver{run: es.Run, completed: es.Iter}, nil
	default:
		return nil, errors.Errorf("unknown solver %q", params.Solver)
	}
}

func countRecords(stores []cfr.InformationSetStore) int {
	total := 0
	for _, s := range stores {
		total += s.Len()
	}
	return total
}
