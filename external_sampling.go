package cfr

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/mbabramo/ACESim4-sub001/internal/f64"
)

// ExternalSamplingParams configure an ExternalSampling solver.
type ExternalSamplingParams struct {
	// Workers is the number of concurrent traversals. Zero means one.
	Workers int `yaml:"workers"`
	// Seed seeds the random number generator of each worker.
	Seed uint64 `yaml:"seed"`
	// Discount is applied once at the end of every Run, with the weights
	// of the iteration count reached. The batch size passed to Run thus
	// sets how often linear or discounted weights are applied.
	Discount DiscountParams `yaml:"discount"`
}

// ExternalSampling runs external-sampling MCCFR: on each iteration chance
// and opponent actions are sampled while every action of the traversing
// player is explored. The traversing player alternates by iteration.
//
// Iterations run concurrently on a pool of workers that share the stores
// of the Navigation. Run must not be called concurrently with itself.
type ExternalSampling struct {
	nav          *Navigation
	params       ExternalSamplingParams
	numStrategic int
	iter         atomic.Int64
	workers      []*esWorker
}

type esWorker struct {
	es        *ExternalSampling
	rng       *rand.Rand
	slicePool *floatSlicePool
	mapPool   *mapPool[byte]
}

// NewExternalSampling returns a solver that updates the stores of nav.
func NewExternalSampling(nav *Navigation, params ExternalSamplingParams) *ExternalSampling {
	if params.Workers < 1 {
		params.Workers = 1
	}

	es := &ExternalSampling{
		nav:          nav,
		params:       params,
		numStrategic: nav.NumStrategicPlayers(),
	}

	for i := 0; i < params.Workers; i++ {
		es.workers = append(es.workers, &esWorker{
			es:        es,
			rng:       rand.New(rand.NewSource(params.Seed + uint64(i))),
			slicePool: &floatSlicePool{},
			mapPool:   &mapPool[byte]{},
		})
	}

	return es
}

// Iter returns the number of iterations started so far.
func (es *ExternalSampling) Iter() int {
	return int(es.iter.Load())
}

// Resume continues numbering after done completed iterations.
func (es *ExternalSampling) Resume(done int) {
	es.iter.Store(int64(done))
}

// Run performs n iterations. Cancellation of ctx is checked between
// iterations: updates from completed iterations are kept, and Iter counts
// them. A panic raised by a traversal stops the batch and is returned as
// its error: an *InconsistencyError as is, anything else wrapped with the
// stack of the panic.
func (es *ExternalSampling) Run(ctx context.Context, n int) error {
	var claimed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range es.workers {
		w := w
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}

				if claimed.Inc() > int64(n) {
					return nil
				}

				if err := w.iterate(); err != nil {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	discountAll(es.nav.Stores, es.params.Discount, es.Iter())
	glog.V(1).Infof("[iter=%d] Completed %d external sampling iterations", es.Iter(), n)
	return nil
}

func (w *esWorker) iterate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InconsistencyError); ok {
				err = ie
			} else {
				err = errors.Errorf("external sampling iteration panicked: %v", r)
			}
		}
	}()

	iter := w.es.iter.Inc()
	traverser := int(iter % int64(w.es.numStrategic))
	sampled := w.mapPool.alloc()
	defer w.mapPool.free(sampled)
	value := w.runHelper(w.es.nav.Root(), traverser, sampled)
	if glog.V(2) {
		glog.Infof("[iter=%d] Player %d sampled value %.4f", iter, traverser, value)
	}

	return nil
}

func (w *esWorker) runHelper(p StatePoint, traverser int, sampled map[*InformationSetNodeTally]byte) float64 {
	record := p.GameState()
	switch r := record.(type) {
	case *TerminalPayoffs:
		return r.Utilities[traverser]
	case ChanceNodeSettings:
		return w.handleChanceNode(p, r, traverser, sampled)
	case *InformationSetNodeTally:
		if r.PlayerIndex() == traverser {
			return w.handleTraversingPlayerNode(p, r, traverser, sampled)
		}

		return w.handleSampledPlayerNode(p, r, traverser, sampled)
	default:
		panic(errors.Errorf("unknown game state record type %T", record))
	}
}

func (w *esWorker) handleChanceNode(p StatePoint, chance ChanceNodeSettings, traverser int, sampled map[*InformationSetNodeTally]byte) float64 {
	probs := w.slicePool.alloc(chance.NumActions())
	GetActionProbabilities(chance, RegretMatching, NoForcedAction, probs)
	action := ChooseActionFromCumulative(probs, w.rng.Float64())
	w.slicePool.free(probs)
	// Sampling probabilities cancel out in the calculation of counterfactual value.
	return w.runHelper(p.Branch(action), traverser, sampled)
}

func (w *esWorker) handleTraversingPlayerNode(p StatePoint, tally *InformationSetNodeTally, traverser int, sampled map[*InformationSetNodeTally]byte) float64 {
	n := tally.NumActions()
	policy := w.slicePool.alloc(n)
	defer w.slicePool.free(policy)
	tally.RegretMatchingPolicy(policy)

	values := w.slicePool.alloc(n)
	defer w.slicePool.free(values)
	for i := range values {
		values[i] = w.runHelper(p.Branch(byte(i+1)), traverser, sampled)
	}

	cfValue := f64.Dot(policy, values)
	f64.AddConst(-cfValue, values)
	for i, regret := range values {
		tally.IncrementRegret(byte(i+1), regret)
	}

	return cfValue
}

// Sample player action according to strategy, do not update regrets.
// Save selected action so that it is reused if this infoset is hit again.
func (w *esWorker) handleSampledPlayerNode(p StatePoint, tally *InformationSetNodeTally, traverser int, sampled map[*InformationSetNodeTally]byte) float64 {
	n := tally.NumActions()
	policy := w.slicePool.alloc(n)
	tally.RegretMatchingPolicy(policy)

	// Update average strategy for this node.
	// We perform "stochastic" updates as described in the MC-CFR paper.
	for i, prob := range policy {
		tally.IncrementCumulativeStrategy(byte(i+1), prob)
	}

	action, ok := sampled[tally]
	if !ok {
		// First time hitting this infoset during this run.
		action = ChooseActionFromCumulative(policy, w.rng.Float64())
		sampled[tally] = action
	}
	w.slicePool.free(policy)

	return w.runHelper(p.Branch(action), traverser, sampled)
}
