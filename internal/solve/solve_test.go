package solve

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/mbabramo/ACESim4-sub001"
	"github.com/mbabramo/ACESim4-sub001/kuhn"
	"github.com/mbabramo/ACESim4-sub001/ldbstore"
)

// countdownContext reports cancellation once Err has been called n times.
type countdownContext struct {
	context.Context
	n int
}

func (c *countdownContext) Err() error {
	if c.n == 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func openLevelDB(params CheckpointParams) (Checkpointer, error) {
	c, err := ldbstore.Open(params.Path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newParams(t *testing.T, solver string) RunParams {
	tmpDir, err := os.MkdirTemp("", "cfr-solve-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	return RunParams{
		Mode:             cfr.CompactHistoryReplay.String(),
		Solver:           solver,
		Iterations:       1000000,
		BatchSize:        1000000,
		ExternalSampling: cfr.ExternalSamplingParams{Workers: 2, Seed: 7},
		Checkpoint:       CheckpointParams{Backend: "leveldb", Path: tmpDir},
	}
}

// loadCheckpoint returns the saved iteration count and the total strategy
// weight of player 0's opening decisions.
func loadCheckpoint(t *testing.T, path string) (int, float64) {
	c, err := ldbstore.Open(path, &opt.Options{})
	require.NoError(t, err)
	defer c.Close()

	game := kuhn.NewGame()
	stores := cfr.NewInformationSetTables(game)
	iter, err := c.Load(stores)
	require.NoError(t, err)

	var weight float64
	stores[kuhn.Player0].Range(func(key string, record cfr.GameStateRecord) bool {
		if tally, ok := record.(*cfr.InformationSetNodeTally); ok && tally.DecisionIndex() == kuhn.P0Action {
			weight += tally.CumulativeStrategy(kuhn.Pass) + tally.CumulativeStrategy(kuhn.Bet)
		}
		return true
	})

	return iter, weight
}

func TestVanillaInterruptSavesCompletedIterations(t *testing.T) {
	params := newParams(t, "vanilla")

	ctx := &countdownContext{Context: context.Background(), n: 37}
	require.NoError(t, Run(ctx, params, openLevelDB))

	// Player 0 opens once for each of the 6 deals, with weight 1.
	iter, weight := loadCheckpoint(t, params.Checkpoint.Path)
	require.Equal(t, 37, iter)
	require.InDelta(t, 6*37, weight, 1e-9)

	// Resuming runs only the remaining iterations.
	params.Iterations = 50
	require.NoError(t, Run(context.Background(), params, openLevelDB))
	iter, weight = loadCheckpoint(t, params.Checkpoint.Path)
	require.Equal(t, 50, iter)
	require.InDelta(t, 6*50, weight, 1e-9)
}

func TestExternalSamplingInterruptSavesCompletedIterations(t *testing.T) {
	params := newParams(t, "external")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, Run(ctx, params, openLevelDB))

	// Player 0 is sampled, and so accumulates weight 1, on every odd iteration.
	iter, weight := loadCheckpoint(t, params.Checkpoint.Path)
	require.Less(t, iter, params.Iterations)
	require.InDelta(t, float64((iter+1)/2), weight, 1e-9*float64(iter+1))
}

func TestCheckpointInterval(t *testing.T) {
	params := newParams(t, "vanilla")
	params.Iterations = 25
	params.BatchSize = 4
	params.Checkpoint.Interval = 10

	var saves []int
	open := func(p CheckpointParams) (Checkpointer, error) {
		c, err := openLevelDB(p)
		if err != nil {
			return nil, err
		}
		return &recordingCheckpointer{Checkpointer: c, saves: &saves}, nil
	}

	require.NoError(t, Run(context.Background(), params, open))
	require.Equal(t, []int{10, 20, 25}, saves)

	iter, weight := loadCheckpoint(t, params.Checkpoint.Path)
	require.Equal(t, 25, iter)
	require.InDelta(t, 6*25, weight, 1e-9)
}

type recordingCheckpointer struct {
	Checkpointer
	saves *[]int
}

func (c *recordingCheckpointer) Save(stores []cfr.InformationSetStore, iter int) error {
	*c.saves = append(*c.saves, iter)
	return c.Checkpointer.Save(stores, iter)
}

func TestRunWithoutCheckpoint(t *testing.T) {
	params := newParams(t, "external")
	params.Iterations = 200
	params.BatchSize = 50
	params.Discount = cfr.DiscountParams{LinearWeighting: true}
	require.NoError(t, Run(context.Background(), params, nil))
}

func TestRunRejectsBadParams(t *testing.T) {
	params := newParams(t, "vanilla")
	params.Solver = "outcome"
	require.Error(t, Run(context.Background(), params, nil))

	params = newParams(t, "vanilla")
	params.BatchSize = 0
	require.Error(t, Run(context.Background(), params, nil))

	params = newParams(t, "vanilla")
	params.Mode = "Replay"
	require.Error(t, Run(context.Background(), params, nil))
}
