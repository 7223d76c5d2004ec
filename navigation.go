package cfr

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// NavigationMode selects how a StatePoint represents its position in the game.
type NavigationMode int

const (
	// LiveSimulationReplay deep-copies and advances the game simulation at
	// every branch. It is the slowest mode and needs no auxiliary state.
	LiveSimulationReplay NavigationMode = iota
	// CompactHistoryReplay carries a fixed-size action history and derives
	// information sets by decoding it.
	CompactHistoryReplay
	// MaterializedTree walks a tree whose nodes hold their records directly.
	MaterializedTree
	// CompactHistoryAndTree runs CompactHistoryReplay and MaterializedTree
	// side by side and panics if they ever disagree.
	CompactHistoryAndTree
)

var navigationModeStr = [...]string{
	"LiveSimulationReplay",
	"CompactHistoryReplay",
	"MaterializedTree",
	"CompactHistoryAndTree",
}

func (m NavigationMode) String() string {
	if m < 0 || int(m) >= len(navigationModeStr) {
		return "Unknown"
	}

	return navigationModeStr[m]
}

// ParseNavigationMode returns the mode with the given name.
func ParseNavigationMode(s string) (NavigationMode, error) {
	for i, name := range navigationModeStr {
		if name == s {
			return NavigationMode(i), nil
		}
	}

	return 0, errors.Errorf("unknown navigation mode %q", s)
}

// terminalKeyMarker suffixes the resolution player's observations when
// they key terminal payoffs.
const terminalKeyMarker = 0xFF

// Navigation is the configuration shared by every StatePoint of a solve:
// the navigation mode, the game definition and the per-player stores.
// It is not modified by traversals.
type Navigation struct {
	Mode   NavigationMode
	Game   GameDefinition
	Stores []InformationSetStore

	players    []PlayerInfo
	decisions  []Decision
	informed   []uint16
	resolution int
	tree       *TreeNode
}

// NewNavigation validates the game definition and returns a Navigation
// over the given stores, one per player.
func NewNavigation(mode NavigationMode, game GameDefinition, stores []InformationSetStore) (*Navigation, error) {
	if mode < LiveSimulationReplay || mode > CompactHistoryAndTree {
		return nil, errors.Errorf("unknown navigation mode %d", mode)
	}

	players := game.Players()
	if len(players) > MaxPlayers {
		return nil, errors.Errorf("game has %d players, at most %d are supported", len(players), MaxPlayers)
	}

	if len(stores) != len(players) {
		return nil, errors.Errorf("game has %d players but %d stores were given", len(players), len(stores))
	}

	for i, p := range players {
		if p.PlayerIndex != i {
			return nil, errors.Errorf("player %s has index %d, expected %d", p.Name, p.PlayerIndex, i)
		}
	}

	resolution := game.ResolutionPlayer()
	if resolution < 0 || resolution >= len(players) {
		return nil, errors.Errorf("resolution player %d out of range", resolution)
	}

	numStrategic := 0
	for _, p := range players {
		if !p.IsChance && p.PlayerIndex != resolution {
			numStrategic++
		}
	}

	for _, p := range players {
		if !p.IsChance && p.PlayerIndex != resolution && p.PlayerIndex >= numStrategic {
			return nil, errors.Errorf("strategic player %s has index %d, strategic players must take indices 0..%d",
				p.Name, p.PlayerIndex, numStrategic-1)
		}
	}

	decisions := game.Decisions()
	if len(decisions) == 0 || len(decisions) >= terminalKeyMarker {
		return nil, errors.Errorf("game has %d decisions", len(decisions))
	}

	informed := make([]uint16, len(decisions))
	for i, d := range decisions {
		if d.PlayerIndex < 0 || d.PlayerIndex >= len(players) {
			return nil, errors.Errorf("decision %s has invalid player %d", d.Name, d.PlayerIndex)
		}

		if d.NumPossibleActions < 1 {
			return nil, errors.Errorf("decision %s has no actions", d.Name)
		}

		if d.UnevenChanceActions && !players[d.PlayerIndex].IsChance {
			return nil, errors.Errorf("decision %s has uneven chance actions but player %s is not chance",
				d.Name, players[d.PlayerIndex].Name)
		}

		for _, p := range d.PlayersToInform {
			if p < 0 || p >= len(players) {
				return nil, errors.Errorf("decision %s informs invalid player %d", d.Name, p)
			}
			informed[i] |= 1 << uint(p)
		}
	}

	nav := &Navigation{
		Mode:       mode,
		Game:       game,
		Stores:     stores,
		players:    players,
		decisions:  decisions,
		informed:   informed,
		resolution: resolution,
	}

	var h History
	nav.tree = newTreeNode(nav, nil, 0, &h)
	glog.V(1).Infof("Navigating %d decisions for %d players in %v mode", len(decisions), len(players), mode)
	return nav, nil
}

// WithMode returns a copy of the Navigation that uses the given mode,
// sharing its stores and materialized tree.
func (n *Navigation) WithMode(mode NavigationMode) *Navigation {
	result := *n
	result.Mode = mode
	return &result
}

// Players returns the players of the game.
func (n *Navigation) Players() []PlayerInfo {
	return n.players
}

// Decisions returns the decisions of the game in execution order.
func (n *Navigation) Decisions() []Decision {
	return n.decisions
}

// NumStrategicPlayers returns the number of non-chance players.
func (n *Navigation) NumStrategicPlayers() int {
	total := 0
	for _, p := range n.players {
		if !p.IsChance && p.PlayerIndex != n.resolution {
			total++
		}
	}
	return total
}

// Root returns the StatePoint at the start of the game.
func (n *Navigation) Root() StatePoint {
	p := StatePoint{nav: n}
	switch n.Mode {
	case LiveSimulationReplay:
		p.progress = n.Game.NewGameProgress()
	case MaterializedTree, CompactHistoryAndTree:
		p.node = n.tree
	}
	return p
}

// advance appends action at the next decision of h, marking h complete if
// the game ends. It returns the decision index.
func (n *Navigation) advance(h *History, action byte) int {
	di := n.Game.NextDecision(h)
	n.checkAction(di, action)
	h.Append(di, action, n.informed[di])
	if n.Game.IsTerminalAfter(di, h) {
		h.MarkComplete()
	}
	return di
}

func (n *Navigation) checkAction(decisionIndex int, action byte) {
	if decisionIndex < 0 || decisionIndex >= len(n.decisions) {
		panic(errors.Errorf("decision index %d out of range", decisionIndex))
	}

	d := n.decisions[decisionIndex]
	if action < 1 || action > d.NumPossibleActions {
		panic(errors.Errorf("action %d out of range for decision %s with %d actions",
			action, d.Name, d.NumPossibleActions))
	}
}

// replay runs a fresh simulation through the actions of h.
func (n *Navigation) replay(h *History) GameProgress {
	progress := n.Game.NewGameProgress()
	for i := 0; i < h.Len(); i++ {
		di, action := h.Get(i)
		progress.Apply(di, action)
	}
	return progress
}

// recordKey writes the store key for the given decision (or the terminal
// payoffs if decisionIndex < 0) after h into is, and returns the store and key.
func (n *Navigation) recordKey(h *History, decisionIndex int, is *InformationSet) (InformationSetStore, []byte) {
	if decisionIndex < 0 {
		h.InformationSet(n.resolution, is)
		return n.Stores[n.resolution], is.key(terminalKeyMarker)
	}

	d := n.decisions[decisionIndex]
	if n.players[d.PlayerIndex].IsChance && !d.UnevenChanceActions {
		// Uniform settings do not depend on what the chance player has observed.
		is.Reset()
	} else {
		h.InformationSet(d.PlayerIndex, is)
	}

	return n.Stores[d.PlayerIndex], is.key(byte(decisionIndex))
}

// newRecord creates the record for the given decision following h.
// progress may be nil, in which case the simulation is replayed if needed.
func (n *Navigation) newRecord(h *History, decisionIndex int, progress GameProgress) GameStateRecord {
	d := n.decisions[decisionIndex]
	if !n.players[d.PlayerIndex].IsChance {
		return NewInformationSetNodeTally(decisionIndex, d)
	}

	if !d.UnevenChanceActions {
		return NewChanceNodeEqualProbabilities(decisionIndex, d)
	}

	if progress == nil {
		progress = n.replay(h)
	}

	probabilities := n.Game.ChanceProbabilities(decisionIndex, progress)
	return NewChanceNodeUnequalProbabilities(decisionIndex, d, probabilities)
}

// BuildTree materializes every node of the game tree and creates all of
// its records. It returns the number of nodes.
func (n *Navigation) BuildTree() int {
	total := n.WithMode(CompactHistoryAndTree).Root().build()
	glog.Infof("Materialized game tree with %d nodes", total)
	return total
}

func (p StatePoint) build() int {
	p.GameState()
	if p.IsTerminal() {
		return 1
	}

	total := 1
	numActions := int(p.NextDecision().NumPossibleActions)
	for a := 1; a <= numActions; a++ {
		total += p.Branch(byte(a)).build()
	}

	return total
}
