package cfr

const (
	// MaxNumActions is the largest number of legal actions at any decision.
	MaxNumActions = 255
	// MaxPlayers is the largest number of players (strategic, chance and
	// resolution) that a game may declare.
	MaxPlayers = 16
	// MaxHistoryLength is the largest number of actions in one play of a game.
	MaxHistoryLength = 64
	// MaxInformationSetLength is the largest encoded observation sequence.
	// Each observed action takes two bytes: its decision index and the action.
	MaxInformationSetLength = 2 * MaxHistoryLength
)

// Decision describes one decision point in the execution order of a game.
type Decision struct {
	Name             string
	Abbreviation     string
	DecisionByteCode byte
	// PlayerIndex is the player acting at this decision. It may be a chance player.
	PlayerIndex int
	// PlayersToInform lists the players that observe the action taken.
	PlayersToInform []int
	// NumPossibleActions is the number of legal actions, numbered 1..NumPossibleActions.
	NumPossibleActions byte
	// UnevenChanceActions is set for chance decisions whose probabilities
	// are not uniform, and may depend on the state of the game.
	UnevenChanceActions bool
	// IsAlwaysPlayersLastDecision is set if this decision always ends the player's turn.
	IsAlwaysPlayersLastDecision bool
}

// PlayerInfo describes one participant of a game.
//
// Strategic players must take indices 0..k-1. Chance players and the
// resolution player follow.
type PlayerInfo struct {
	Name        string
	PlayerIndex int
	IsChance    bool
}

// GameDefinition supplies the rules of a game: its players, the execution
// order of decisions, and how to determine what comes next.
type GameDefinition interface {
	// Players returns all players, including chance and resolution players.
	Players() []PlayerInfo
	// Decisions returns the decisions in execution order.
	Decisions() []Decision
	// ResolutionPlayer is the index of the pseudo-player whose observations
	// determine the terminal payoffs.
	ResolutionPlayer() int
	// NextDecision returns the execution-order index of the decision that
	// follows the given history. It is only called for incomplete histories.
	NextDecision(h *History) int
	// IsTerminalAfter reports whether the game is over once the action for the
	// given decision has been appended to h.
	IsTerminalAfter(decisionIndex int, h *History) bool
	// ChanceProbabilities returns the distribution over the actions of an
	// uneven chance decision, given the live state of the game.
	ChanceProbabilities(decisionIndex int, progress GameProgress) []float64
	// NewGameProgress returns a live simulation of the game at its root.
	NewGameProgress() GameProgress
}

// GameProgress is a live simulation of one play of a game.
type GameProgress interface {
	// DeepCopy returns a copy that shares no mutable state with the original.
	DeepCopy() GameProgress
	// Apply advances the simulation by taking the given action at the given decision.
	Apply(decisionIndex int, action byte)
	// IsComplete reports whether the game is over.
	IsComplete() bool
	// Utilities returns the payoff for each strategic player.
	// It may only be called once the game is complete.
	Utilities() []float64
}

// InformationSetStore maps observation sequences to the statistics
// recorded for them. There is one store per player.
type InformationSetStore interface {
	// Get returns the record stored for key, if any.
	Get(key []byte) (GameStateRecord, bool)
	// GetOrCreate returns the record stored for key, calling factory to
	// create it on first access. The factory is invoked at most once per key,
	// even under concurrent access.
	GetOrCreate(key []byte, decisionIndex int, factory func() GameStateRecord) GameStateRecord
	// Range calls fn for every stored record until fn returns false.
	Range(fn func(key string, record GameStateRecord) bool)
	// Len returns the number of stored records.
	Len() int
}
