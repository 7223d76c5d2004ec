package cfr

import (
	"math"

	"github.com/pkg/errors"
)

const chanceProbabilityTolerance = 1e-6

// ChanceNodeSettings is the probability distribution over the actions of a
// chance player at one decision.
type ChanceNodeSettings interface {
	GameStateRecord

	// ProbabilityOf returns the probability of the given (1-based) action.
	ProbabilityOf(action byte) float64
	// AreAllProbabilitiesEqual reports whether every action is equally likely.
	AreAllProbabilitiesEqual() bool
	// NumActions is the number of legal actions.
	NumActions() int
}

type chanceDecision struct {
	decisionIndex int
	playerIndex   int
	numActions    int
}

func (c chanceDecision) DecisionIndex() int { return c.decisionIndex }
func (c chanceDecision) PlayerIndex() int   { return c.playerIndex }
func (c chanceDecision) NumActions() int    { return c.numActions }

func (c chanceDecision) checkAction(action byte) {
	if action < 1 || int(action) > c.numActions {
		panic(errors.Errorf("action %d out of range for chance decision %d with %d actions",
			action, c.decisionIndex, c.numActions))
	}
}

// ChanceNodeEqualProbabilities is a chance decision with a uniform distribution.
type ChanceNodeEqualProbabilities struct {
	chanceDecision
	probability float64
}

// NewChanceNodeEqualProbabilities returns uniform settings for the given decision.
func NewChanceNodeEqualProbabilities(decisionIndex int, d Decision) *ChanceNodeEqualProbabilities {
	return &ChanceNodeEqualProbabilities{
		chanceDecision: chanceDecision{
			decisionIndex: decisionIndex,
			playerIndex:   d.PlayerIndex,
			numActions:    int(d.NumPossibleActions),
		},
		probability: 1.0 / float64(d.NumPossibleActions),
	}
}

// ProbabilityOf implements ChanceNodeSettings.
func (c *ChanceNodeEqualProbabilities) ProbabilityOf(action byte) float64 {
	c.checkAction(action)
	return c.probability
}

// AreAllProbabilitiesEqual implements ChanceNodeSettings.
func (c *ChanceNodeEqualProbabilities) AreAllProbabilitiesEqual() bool { return true }

func (c *ChanceNodeEqualProbabilities) isGameStateRecord() {}

// ChanceNodeUnequalProbabilities is a chance decision with an explicit distribution.
type ChanceNodeUnequalProbabilities struct {
	chanceDecision
	probabilities []float64
}

// NewChanceNodeUnequalProbabilities returns settings with the given
// distribution, which must have one entry per action and sum to 1.
func NewChanceNodeUnequalProbabilities(decisionIndex int, d Decision, probabilities []float64) *ChanceNodeUnequalProbabilities {
	if len(probabilities) != int(d.NumPossibleActions) {
		panic(errors.Errorf("decision %s has %d actions but %d chance probabilities were given",
			d.Name, d.NumPossibleActions, len(probabilities)))
	}

	var total float64
	for _, p := range probabilities {
		if p < 0 || math.IsNaN(p) {
			panic(errors.Errorf("decision %s has invalid chance probability in %v", d.Name, probabilities))
		}
		total += p
	}

	if math.Abs(total-1.0) > chanceProbabilityTolerance {
		panic(errors.Errorf("decision %s chance probabilities sum to %v: %v", d.Name, total, probabilities))
	}

	return &ChanceNodeUnequalProbabilities{
		chanceDecision: chanceDecision{
			decisionIndex: decisionIndex,
			playerIndex:   d.PlayerIndex,
			numActions:    int(d.NumPossibleActions),
		},
		probabilities: append([]float64(nil), probabilities...),
	}
}

// ProbabilityOf implements ChanceNodeSettings.
func (c *ChanceNodeUnequalProbabilities) ProbabilityOf(action byte) float64 {
	c.checkAction(action)
	return c.probabilities[action-1]
}

// AreAllProbabilitiesEqual implements ChanceNodeSettings.
func (c *ChanceNodeUnequalProbabilities) AreAllProbabilitiesEqual() bool { return false }

func (c *ChanceNodeUnequalProbabilities) isGameStateRecord() {}
