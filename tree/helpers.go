// Package tree walks the reachable points of a game.
package tree

import (
	"github.com/mbabramo/ACESim4-sub001"
)

// Visit calls visitor for root and every point reachable from it.
// Chance actions with zero probability are not reachable.
func Visit(root cfr.StatePoint, visitor func(p cfr.StatePoint)) {
	visitor(root)
	if root.IsTerminal() {
		return
	}

	record := root.GameState()
	numActions := int(root.NextDecision().NumPossibleActions)
	chance, isChance := record.(cfr.ChanceNodeSettings)
	for a := 1; a <= numActions; a++ {
		if isChance && chance.ProbabilityOf(byte(a)) == 0 {
			continue
		}

		Visit(root.Branch(byte(a)), visitor)
	}
}

// VisitInfoSets calls visitor once for every information set of a
// strategic player reachable from root.
func VisitInfoSets(root cfr.StatePoint, visitor func(player int, tally *cfr.InformationSetNodeTally)) {
	seen := make(map[*cfr.InformationSetNodeTally]struct{})
	Visit(root, func(p cfr.StatePoint) {
		if p.IsTerminal() {
			return
		}

		tally, ok := p.GameState().(*cfr.InformationSetNodeTally)
		if !ok {
			return
		}

		if _, ok := seen[tally]; ok {
			return
		}

		visitor(p.NextPlayer(), tally)
		seen[tally] = struct{}{}
	})
}

func CountTerminalNodes(root cfr.StatePoint) int {
	total := 0
	Visit(root, func(p cfr.StatePoint) {
		if p.IsTerminal() {
			total++
		}
	})

	return total
}

func CountNodes(root cfr.StatePoint) int {
	total := 0
	Visit(root, func(p cfr.StatePoint) { total++ })
	return total
}

func CountInfoSets(root cfr.StatePoint) int {
	total := 0
	VisitInfoSets(root, func(player int, tally *cfr.InformationSetNodeTally) { total++ })
	return total
}
