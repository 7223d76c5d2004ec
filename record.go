package cfr

import (
	"fmt"
)

// GameStateRecord is the statistics record stored for a point in the game.
// It is exactly one of ChanceNodeSettings, *InformationSetNodeTally or
// *TerminalPayoffs.
type GameStateRecord interface {
	// DecisionIndex is the execution-order index of the decision the record
	// belongs to, or -1 for terminal payoffs.
	DecisionIndex() int
	// PlayerIndex is the player acting at the decision, or the resolution
	// player for terminal payoffs.
	PlayerIndex() int

	isGameStateRecord()
}

// TerminalPayoffs holds the utility of each strategic player at the end of the game.
type TerminalPayoffs struct {
	Utilities        []float64
	ResolutionPlayer int
}

// DecisionIndex implements GameStateRecord.
func (tp *TerminalPayoffs) DecisionIndex() int { return -1 }

// PlayerIndex implements GameStateRecord.
func (tp *TerminalPayoffs) PlayerIndex() int { return tp.ResolutionPlayer }

func (tp *TerminalPayoffs) isGameStateRecord() {}

func (tp *TerminalPayoffs) String() string {
	return fmt.Sprintf("TerminalPayoffs%v", tp.Utilities)
}

// Equal reports whether both payoff vectors are element-wise equal.
func (tp *TerminalPayoffs) Equal(other *TerminalPayoffs) bool {
	if len(tp.Utilities) != len(other.Utilities) {
		return false
	}

	for i, u := range tp.Utilities {
		if other.Utilities[i] != u {
			return false
		}
	}

	return true
}

// sameRecord reports whether two records describe the same node. Terminal
// payoffs may be shared by many action sequences, so they are compared by value.
func sameRecord(a, b GameStateRecord) bool {
	if pa, ok := a.(*TerminalPayoffs); ok {
		pb, ok := b.(*TerminalPayoffs)
		return ok && pa.Equal(pb)
	}

	return a == b
}

// InconsistencyError is raised (as a panic) when two state representations
// disagree about a node they have both initialized.
type InconsistencyError struct {
	Actions     []byte
	What        string
	FromHistory interface{}
	FromTree    interface{}
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent %s after actions %v: history has %v, tree has %v",
		e.What, e.Actions, e.FromHistory, e.FromTree)
}
