package cfr

import (
	"github.com/pkg/errors"

	"github.com/mbabramo/ACESim4-sub001/internal/f64"
)

// ExpectedUtilities returns the expected utility of each strategic player
// when every player acts according to strategy from p onwards.
func ExpectedUtilities(p StatePoint, strategy ActionStrategy) []float64 {
	pool := &floatSlicePool{}
	u := expectedUtilities(p, strategy, pool)
	return append([]float64(nil), u...)
}

func expectedUtilities(p StatePoint, strategy ActionStrategy, pool *floatSlicePool) []float64 {
	numStrategic := p.nav.NumStrategicPlayers()
	record := p.GameState()
	if payoffs, ok := record.(*TerminalPayoffs); ok {
		u := pool.alloc(numStrategic)
		copy(u, payoffs.Utilities)
		return u
	}

	var n int
	switch r := record.(type) {
	case ChanceNodeSettings:
		n = r.NumActions()
	case *InformationSetNodeTally:
		n = r.NumActions()
	default:
		panic(errors.Errorf("unknown game state record type %T", record))
	}

	probs := pool.alloc(n)
	defer pool.free(probs)
	GetActionProbabilities(record, strategy, NoForcedAction, probs)

	u := pool.alloc(numStrategic)
	for i, prob := range probs {
		if prob == 0 {
			continue
		}

		child := expectedUtilities(p.Branch(byte(i+1)), strategy, pool)
		f64.Axpy(prob, child, u)
		pool.free(child)
	}

	return u
}
