package cfr

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatePoint is a position in the game, reached by a sequence of actions
// from the root. It is a value: Branch returns a new point and never
// modifies the receiver. Depending on the navigation mode a point carries
// a live simulation, a compact history, a materialized tree node, or both
// of the latter.
type StatePoint struct {
	nav      *Navigation
	history  History
	progress GameProgress
	node     *TreeNode
}

func (p StatePoint) usesHistory() bool {
	return p.nav.Mode != MaterializedTree
}

func (p StatePoint) usesTree() bool {
	return p.nav.Mode == MaterializedTree || p.nav.Mode == CompactHistoryAndTree
}

func (p StatePoint) inconsistent(what string, fromHistory, fromTree interface{}) {
	panic(&InconsistencyError{
		Actions:     p.ActionsTaken(),
		What:        what,
		FromHistory: fromHistory,
		FromTree:    fromTree,
	})
}

// Navigation returns the configuration the point was created from.
func (p StatePoint) Navigation() *Navigation {
	return p.nav
}

// IsTerminal reports whether the game is over at this point.
func (p StatePoint) IsTerminal() bool {
	switch p.nav.Mode {
	case LiveSimulationReplay:
		return p.progress.IsComplete()
	case CompactHistoryReplay:
		return p.history.IsComplete()
	case MaterializedTree:
		return p.node.terminal
	case CompactHistoryAndTree:
		fromHistory, fromTree := p.history.IsComplete(), p.node.terminal
		if fromHistory != fromTree {
			p.inconsistent("terminal state", fromHistory, fromTree)
		}
		return fromHistory
	default:
		panic(errors.Errorf("unknown navigation mode %v", p.nav.Mode))
	}
}

// ActionsTaken returns the actions from the root to this point, in order.
func (p StatePoint) ActionsTaken() []byte {
	if p.usesHistory() {
		return p.history.Actions()
	}

	return p.node.actions()
}

// NextDecisionIndex returns the execution-order index of the next
// decision, or -1 if the point is terminal.
func (p StatePoint) NextDecisionIndex() int {
	switch p.nav.Mode {
	case LiveSimulationReplay, CompactHistoryReplay:
		return p.historyNextDecision()
	case MaterializedTree:
		return p.node.nextDecisionIndex()
	case CompactHistoryAndTree:
		fromHistory, fromTree := p.historyNextDecision(), p.node.nextDecisionIndex()
		if fromHistory != fromTree {
			p.inconsistent("next decision", fromHistory, fromTree)
		}
		return fromHistory
	default:
		panic(errors.Errorf("unknown navigation mode %v", p.nav.Mode))
	}
}

func (p StatePoint) historyNextDecision() int {
	if p.IsTerminal() {
		return -1
	}

	return p.nav.Game.NextDecision(&p.history)
}

// NextPlayer returns the player acting next, or the resolution player
// if the point is terminal.
func (p StatePoint) NextPlayer() int {
	switch p.nav.Mode {
	case LiveSimulationReplay, CompactHistoryReplay:
		return p.historyNextPlayer()
	case MaterializedTree:
		return p.node.nextPlayer(p.nav)
	case CompactHistoryAndTree:
		fromHistory, fromTree := p.historyNextPlayer(), p.node.nextPlayer(p.nav)
		if fromHistory != fromTree {
			p.inconsistent("next player", fromHistory, fromTree)
		}
		return fromHistory
	default:
		panic(errors.Errorf("unknown navigation mode %v", p.nav.Mode))
	}
}

func (p StatePoint) historyNextPlayer() int {
	di := p.historyNextDecision()
	if di < 0 {
		return p.nav.resolution
	}

	return p.nav.decisions[di].PlayerIndex
}

// NextDecision returns the next decision. It panics if the point is terminal.
func (p StatePoint) NextDecision() Decision {
	di := p.NextDecisionIndex()
	if di < 0 {
		panic(errors.Errorf("terminal point %v has no next decision", p))
	}

	return p.nav.decisions[di]
}

// CurrentGameState returns the record for this point: the chance settings
// or tally of the next decision, or the terminal payoffs. It returns nil
// if the record has not been created yet.
func (p StatePoint) CurrentGameState() GameStateRecord {
	switch p.nav.Mode {
	case LiveSimulationReplay, CompactHistoryReplay:
		return p.lookupRecord()
	case MaterializedTree:
		return p.node.loadRecord()
	case CompactHistoryAndTree:
		fromHistory, fromTree := p.lookupRecord(), p.node.loadRecord()
		if fromHistory == nil || fromTree == nil {
			return nil
		}

		if !sameRecord(fromHistory, fromTree) {
			p.inconsistent("game state", fromHistory, fromTree)
		}
		return fromHistory
	default:
		panic(errors.Errorf("unknown navigation mode %v", p.nav.Mode))
	}
}

func (p StatePoint) lookupRecord() GameStateRecord {
	var is InformationSet
	store, key := p.nav.recordKey(&p.history, p.historyNextDecision(), &is)
	if record, ok := store.Get(key); ok {
		return record
	}

	return nil
}

// fullHistory returns the compact history of the point, rebuilding it
// from the tree if it is not carried.
func (p StatePoint) fullHistory() History {
	if p.usesHistory() {
		return p.history
	}

	return p.node.history(p.nav)
}

// Branch returns the point reached by taking action. It panics if the
// point is terminal or the action is not legal.
func (p StatePoint) Branch(action byte) StatePoint {
	if p.IsTerminal() {
		panic(errors.Errorf("cannot branch terminal point %v", p))
	}

	child := p
	switch p.nav.Mode {
	case LiveSimulationReplay:
		child.progress = p.progress.DeepCopy()
		di := p.nav.advance(&child.history, action)
		child.progress.Apply(di, action)
	case CompactHistoryReplay:
		p.nav.advance(&child.history, action)
	case MaterializedTree:
		child.node = p.node.child(p.nav, action, nil)
	case CompactHistoryAndTree:
		p.nav.advance(&child.history, action)
		child.node = p.node.child(p.nav, action, &p.history)
		child.IsTerminal()
	}

	return child
}

// RecordInformationIfAbsent returns the record of the next decision,
// creating it in the player's store on first access. It panics if the
// point is terminal.
func (p StatePoint) RecordInformationIfAbsent() GameStateRecord {
	if p.IsTerminal() {
		panic(errors.Errorf("terminal point %v has no decision to record", p))
	}

	if record := p.CurrentGameState(); record != nil {
		return record
	}

	h := p.fullHistory()
	di := p.NextDecisionIndex()
	var is InformationSet
	store, key := p.nav.recordKey(&h, di, &is)
	record := store.GetOrCreate(key, di, func() GameStateRecord {
		return p.nav.newRecord(&h, di, p.progress)
	})

	p.attach(record)
	return record
}

// RecordTerminalPayoffsIfAbsent returns the payoffs of this terminal point,
// storing the given utilities on first access. It panics if the point is
// not terminal.
func (p StatePoint) RecordTerminalPayoffsIfAbsent(utilities []float64) GameStateRecord {
	if !p.IsTerminal() {
		panic(errors.Errorf("cannot record payoffs at non-terminal point %v", p))
	}

	if record := p.CurrentGameState(); record != nil {
		return record
	}

	h := p.fullHistory()
	var is InformationSet
	store, key := p.nav.recordKey(&h, -1, &is)
	record := store.GetOrCreate(key, -1, func() GameStateRecord {
		return &TerminalPayoffs{
			Utilities:        append([]float64(nil), utilities...),
			ResolutionPlayer: p.nav.resolution,
		}
	})

	p.attach(record)
	return record
}

func (p StatePoint) attach(record GameStateRecord) {
	if !p.usesTree() {
		return
	}

	if attached := p.node.attachRecord(record); !sameRecord(attached, record) {
		p.inconsistent("game state", record, attached)
	}
}

// TerminalUtilities returns the payoff of each strategic player at a
// terminal point, running the simulation if needed.
func (p StatePoint) TerminalUtilities() []float64 {
	if !p.IsTerminal() {
		panic(errors.Errorf("point %v is not terminal", p))
	}

	if p.progress != nil {
		return p.progress.Utilities()
	}

	h := p.fullHistory()
	return p.nav.replay(&h).Utilities()
}

// GameState returns the record for this point, creating it if absent.
func (p StatePoint) GameState() GameStateRecord {
	if !p.IsTerminal() {
		return p.RecordInformationIfAbsent()
	}

	if record := p.CurrentGameState(); record != nil {
		return record
	}

	return p.RecordTerminalPayoffsIfAbsent(p.TerminalUtilities())
}

func (p StatePoint) String() string {
	return fmt.Sprintf("StatePoint(%v, %v)", p.nav.Mode, p.ActionsTaken())
}
