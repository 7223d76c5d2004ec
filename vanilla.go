package cfr

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mbabramo/ACESim4-sub001/internal/f64"
)

// Vanilla runs deterministic CFR, traversing the full game tree on every
// iteration and updating all players simultaneously.
//
// A traversal visits points in the same order under every navigation
// mode, so a solve is bit-for-bit reproducible across modes.
type Vanilla struct {
	nav          *Navigation
	params       DiscountParams
	iter         int
	numStrategic int

	slicePool *floatSlicePool
	deltaPool *mapPool[[]float64]
	// Regret updates are deferred to the end of the iteration so
	// every visit to an information set sees the same policy.
	deltas map[*InformationSetNodeTally][]float64
}

// NewVanilla returns a solver that updates the stores of nav.
func NewVanilla(nav *Navigation, params DiscountParams) *Vanilla {
	return &Vanilla{
		nav:          nav,
		params:       params,
		iter:         1,
		numStrategic: nav.NumStrategicPlayers(),
		slicePool:    &floatSlicePool{},
		deltaPool:    &mapPool[[]float64]{},
	}
}

// Iter returns the number of the next iteration, starting from 1.
func (v *Vanilla) Iter() int {
	return v.iter
}

// Resume continues numbering after done completed iterations, as when
// the stores were restored from a checkpoint.
func (v *Vanilla) Resume(done int) {
	v.iter = done + 1
}

// Run performs one iteration and returns the expected utility of each
// strategic player under the iteration's policy.
func (v *Vanilla) Run() []float64 {
	v.deltas = v.deltaPool.alloc()
	reach := v.slicePool.alloc(len(v.nav.players))
	for i := range reach {
		reach[i] = 1.0
	}

	u := v.runHelper(v.nav.Root(), reach)
	result := append([]float64(nil), u...)
	v.slicePool.free(u)
	v.slicePool.free(reach)

	glog.V(2).Infof("Updating %d tallies", len(v.deltas))
	for tally, delta := range v.deltas {
		for i, d := range delta {
			tally.IncrementRegret(byte(i+1), d)
		}
		v.slicePool.free(delta)
	}
	v.deltaPool.free(v.deltas)
	v.deltas = nil

	discountAll(v.nav.Stores, v.params, v.iter)
	v.iter++
	return result
}

func (v *Vanilla) runHelper(p StatePoint, reach []float64) []float64 {
	if p.IsTerminal() {
		payoffs := p.GameState().(*TerminalPayoffs)
		u := v.slicePool.alloc(v.numStrategic)
		copy(u, payoffs.Utilities)
		return u
	}

	switch record := p.GameState().(type) {
	case ChanceNodeSettings:
		return v.handleChanceNode(p, record, reach)
	case *InformationSetNodeTally:
		return v.handlePlayerNode(p, record, reach)
	default:
		panic(errors.Errorf("unexpected record %v at non-terminal point %v", record, p))
	}
}

func (v *Vanilla) handleChanceNode(p StatePoint, chance ChanceNodeSettings, reach []float64) []float64 {
	n := chance.NumActions()
	probs := v.slicePool.alloc(n)
	defer v.slicePool.free(probs)
	GetActionProbabilities(chance, RegretMatching, NoForcedAction, probs)

	player := chance.PlayerIndex()
	childReach := v.slicePool.alloc(len(reach))
	defer v.slicePool.free(childReach)

	u := v.slicePool.alloc(v.numStrategic)
	for i, prob := range probs {
		if prob == 0 {
			continue
		}

		copy(childReach, reach)
		childReach[player] *= prob
		child := v.runHelper(p.Branch(byte(i+1)), childReach)
		f64.Axpy(prob, child, u)
		v.slicePool.free(child)
	}

	return u
}

func (v *Vanilla) handlePlayerNode(p StatePoint, tally *InformationSetNodeTally, reach []float64) []float64 {
	n := tally.NumActions()
	player := tally.PlayerIndex()
	policy := v.slicePool.alloc(n)
	defer v.slicePool.free(policy)
	tally.RegretMatchingPolicy(policy)

	childReach := v.slicePool.alloc(len(reach))
	defer v.slicePool.free(childReach)
	actionUtils := v.slicePool.alloc(n)
	defer v.slicePool.free(actionUtils)

	u := v.slicePool.alloc(v.numStrategic)
	for i, prob := range policy {
		copy(childReach, reach)
		childReach[player] *= prob
		child := v.runHelper(p.Branch(byte(i+1)), childReach)
		actionUtils[i] = child[player]
		f64.Axpy(prob, child, u)
		v.slicePool.free(child)
	}

	cfReach := counterfactualReach(reach, player)
	delta, ok := v.deltas[tally]
	if !ok {
		delta = v.slicePool.alloc(n)
		v.deltas[tally] = delta
	}

	for i, x := range actionUtils {
		delta[i] += cfReach * (x - u[player])
	}

	for i, prob := range policy {
		tally.IncrementCumulativeStrategy(byte(i+1), reach[player]*prob)
	}

	return u
}

// counterfactualReach is the probability of reaching a point if player
// always played towards it.
func counterfactualReach(reach []float64, player int) float64 {
	result := 1.0
	for i, r := range reach {
		if i != player {
			result *= r
		}
	}
	return result
}
