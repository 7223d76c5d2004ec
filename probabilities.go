package cfr

import (
	"github.com/pkg/errors"
)

// ActionStrategy selects how a player's action probabilities are derived
// from the tally of an information set.
type ActionStrategy int

const (
	// RegretMatching plays in proportion to positive cumulative regret.
	RegretMatching ActionStrategy = iota
	// RegretMatchingWithPruning is RegretMatching with negligible actions dropped.
	RegretMatchingWithPruning
	// AverageStrategy plays the time-averaged strategy.
	AverageStrategy
)

var actionStrategyStr = [...]string{
	"RegretMatching",
	"RegretMatchingWithPruning",
	"AverageStrategy",
}

func (s ActionStrategy) String() string {
	if s < 0 || int(s) >= len(actionStrategyStr) {
		return "Unknown"
	}

	return actionStrategyStr[s]
}

// NoForcedAction indicates that play is not forced to a particular action.
const NoForcedAction byte = 0

// GetActionProbabilities writes the probability of each action at the
// given record into dst[:numActions]. Chance records use their fixed
// distribution. Otherwise, if forcedAction is set it receives probability 1,
// else the tally's policy for the given strategy is used.
func GetActionProbabilities(record GameStateRecord, strategy ActionStrategy, forcedAction byte, dst []float64) {
	switch r := record.(type) {
	case ChanceNodeSettings:
		n := r.NumActions()
		if len(dst) < n {
			panic(errors.Errorf("probability buffer of length %d too small for %d actions", len(dst), n))
		}

		for a := 1; a <= n; a++ {
			dst[a-1] = r.ProbabilityOf(byte(a))
		}
	case *InformationSetNodeTally:
		if forcedAction != NoForcedAction {
			forceAction(r.checkDst(dst), forcedAction)
			return
		}

		switch strategy {
		case RegretMatching:
			r.RegretMatchingPolicy(dst)
		case RegretMatchingWithPruning:
			r.RegretMatchingWithPruningPolicy(dst)
		case AverageStrategy:
			r.AverageStrategyPolicy(dst)
		default:
			panic(errors.Errorf("unimplemented action strategy %v", strategy))
		}
	case *TerminalPayoffs:
		panic(errors.New("terminal payoffs have no action probabilities"))
	default:
		panic(errors.Errorf("unknown game state record type %T", record))
	}
}

func forceAction(dst []float64, action byte) {
	if action < 1 || int(action) > len(dst) {
		panic(errors.Errorf("forced action %d out of range for %d actions", action, len(dst)))
	}

	for i := range dst {
		dst[i] = 0
	}
	dst[action-1] = 1.0
}

// ChooseActionFromCumulative returns the first (1-based) action at which the
// cumulative probability reaches randomNumber. Actions with zero probability
// are never chosen. If rounding leaves the total short of randomNumber, the
// last action with positive probability is returned.
func ChooseActionFromCumulative(probabilities []float64, randomNumber float64) byte {
	if len(probabilities) == 0 {
		panic(errors.New("cannot choose from an empty distribution"))
	}

	var cumulative float64
	last := len(probabilities)
	found := false
	for i, p := range probabilities {
		if p <= 0 {
			continue
		}

		cumulative += p
		last = i + 1
		found = true
		if cumulative >= randomNumber {
			return byte(i + 1)
		}
	}

	if !found {
		return byte(len(probabilities))
	}

	return byte(last)
}
