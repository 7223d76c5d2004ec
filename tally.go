package cfr

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/mbabramo/ACESim4-sub001/internal/f64"
)

// PruningThreshold is the probability below which RegretMatchingWithPruning
// drops an action from the policy.
const PruningThreshold = 1e-5

// InformationSetNodeTally accumulates regret and strategy weight for
// each action of one information set of a strategic player.
//
// Increments are atomic and may be made concurrently by multiple
// traversals. Discount must not run concurrently with increments.
type InformationSetNodeTally struct {
	decisionByteCode byte
	decisionIndex    int
	playerIndex      int

	regrets            []atomic.Float64
	cumulativeStrategy []atomic.Float64
}

// NewInformationSetNodeTally returns an empty tally for the given decision.
func NewInformationSetNodeTally(decisionIndex int, d Decision) *InformationSetNodeTally {
	return newTally(d.DecisionByteCode, decisionIndex, d.PlayerIndex, int(d.NumPossibleActions))
}

func newTally(decisionByteCode byte, decisionIndex, playerIndex, nActions int) *InformationSetNodeTally {
	return &InformationSetNodeTally{
		decisionByteCode:   decisionByteCode,
		decisionIndex:      decisionIndex,
		playerIndex:        playerIndex,
		regrets:            make([]atomic.Float64, nActions),
		cumulativeStrategy: make([]atomic.Float64, nActions),
	}
}

// DecisionIndex implements GameStateRecord.
func (t *InformationSetNodeTally) DecisionIndex() int { return t.decisionIndex }

// PlayerIndex implements GameStateRecord.
func (t *InformationSetNodeTally) PlayerIndex() int { return t.playerIndex }

// DecisionByteCode returns the byte code of the decision this tally belongs to.
func (t *InformationSetNodeTally) DecisionByteCode() byte { return t.decisionByteCode }

// NumActions returns the number of legal actions.
func (t *InformationSetNodeTally) NumActions() int { return len(t.regrets) }

func (t *InformationSetNodeTally) isGameStateRecord() {}

func (t *InformationSetNodeTally) String() string {
	regrets := make([]float64, t.NumActions())
	strategy := make([]float64, t.NumActions())
	for i := range regrets {
		regrets[i] = t.regrets[i].Load()
		strategy[i] = t.cumulativeStrategy[i].Load()
	}

	return fmt.Sprintf("Tally(decision=%d, player=%d, regrets=%v, strategy=%v)",
		t.decisionIndex, t.playerIndex, regrets, strategy)
}

func (t *InformationSetNodeTally) index(action byte) int {
	if action < 1 || int(action) > len(t.regrets) {
		panic(errors.Errorf("action %d out of range for decision %d with %d actions",
			action, t.decisionIndex, len(t.regrets)))
	}

	return int(action) - 1
}

// IncrementRegret adds amount to the cumulative regret of action.
func (t *InformationSetNodeTally) IncrementRegret(action byte, amount float64) {
	t.regrets[t.index(action)].Add(amount)
}

// IncrementCumulativeStrategy adds amount to the cumulative strategy weight of action.
func (t *InformationSetNodeTally) IncrementCumulativeStrategy(action byte, amount float64) {
	t.cumulativeStrategy[t.index(action)].Add(amount)
}

// Regret returns the cumulative regret of action.
func (t *InformationSetNodeTally) Regret(action byte) float64 {
	return t.regrets[t.index(action)].Load()
}

// CumulativeStrategy returns the cumulative strategy weight of action.
func (t *InformationSetNodeTally) CumulativeStrategy(action byte) float64 {
	return t.cumulativeStrategy[t.index(action)].Load()
}

// PositiveRegret returns max(0, regret) for action.
func (t *InformationSetNodeTally) PositiveRegret(action byte) float64 {
	r := t.Regret(action)
	if r > 0 {
		return r
	}

	return 0
}

// SumPositiveRegret returns the total positive regret over all actions.
func (t *InformationSetNodeTally) SumPositiveRegret() float64 {
	var total float64
	for i := range t.regrets {
		if r := t.regrets[i].Load(); r > 0 {
			total += r
		}
	}
	return total
}

func (t *InformationSetNodeTally) checkDst(dst []float64) []float64 {
	if len(dst) < len(t.regrets) {
		panic(errors.Errorf("probability buffer of length %d too small for %d actions",
			len(dst), len(t.regrets)))
	}

	return dst[:len(t.regrets)]
}

// RegretMatchingPolicy writes the current policy into dst: each action is
// played in proportion to its positive regret, or uniformly if no action
// has positive regret.
func (t *InformationSetNodeTally) RegretMatchingPolicy(dst []float64) {
	dst = t.checkDst(dst)
	for i := range t.regrets {
		if r := t.regrets[i].Load(); r > 0 {
			dst[i] = r
		} else {
			dst[i] = 0
		}
	}

	if !f64.Normalize(dst) {
		f64.Uniform(dst)
	}
}

// RegretMatchingWithPruningPolicy is RegretMatchingPolicy with actions
// below PruningThreshold removed and the remainder renormalized.
func (t *InformationSetNodeTally) RegretMatchingWithPruningPolicy(dst []float64) {
	t.RegretMatchingPolicy(dst)
	dst = dst[:len(t.regrets)]
	pruned := false
	for i, p := range dst {
		if p > 0 && p < PruningThreshold {
			dst[i] = 0
			pruned = true
		}
	}

	if pruned {
		f64.Normalize(dst)
	}
}

// AverageStrategyPolicy writes the time-averaged policy into dst, or a
// uniform distribution if no strategy weight has been accumulated.
func (t *InformationSetNodeTally) AverageStrategyPolicy(dst []float64) {
	dst = t.checkDst(dst)
	for i := range t.cumulativeStrategy {
		dst[i] = t.cumulativeStrategy[i].Load()
	}

	if !f64.Normalize(dst) {
		f64.Uniform(dst)
	}
}

// SampleActionByRegretMatching selects an action by regret matching given
// a uniform random number in [0, 1).
func (t *InformationSetNodeTally) SampleActionByRegretMatching(uniformRandom float64) byte {
	n := len(t.regrets)
	total := t.SumPositiveRegret()
	if total <= 0 {
		action := int(uniformRandom*float64(n)) + 1
		if action > n {
			action = n
		}
		return byte(action)
	}

	target := uniformRandom * total
	var cumulative float64
	last := n
	for i := range t.regrets {
		r := t.regrets[i].Load()
		if r <= 0 {
			continue
		}

		cumulative += r
		last = i + 1
		if cumulative >= target && cumulative > 0 {
			return byte(i + 1)
		}
	}

	return byte(last) // Rounding error.
}

// Discount scales positive regrets, negative regrets and the cumulative
// strategy by the given factors. See DiscountParams.
func (t *InformationSetNodeTally) Discount(positive, negative, strategy float64) {
	if positive != 1.0 || negative != 1.0 {
		for i := range t.regrets {
			r := t.regrets[i].Load()
			if r > 0 {
				t.regrets[i].Store(r * positive)
			} else if r < 0 {
				t.regrets[i].Store(r * negative)
			}
		}
	}

	if strategy != 1.0 {
		for i := range t.cumulativeStrategy {
			t.cumulativeStrategy[i].Store(t.cumulativeStrategy[i].Load() * strategy)
		}
	}
}
