package cfr

// coinGame is a small two-player game with a uniform and an uneven chance
// decision. The coin is flipped and shown to player 0. The coin then picks
// a bias, which depends on the flip, and shows it to player 1. Player 0
// guesses the flip in view of player 1, then player 1 guesses the bias.
// Player 0 scores a point for a right guess and loses one if player 1
// guesses right.
type coinGame struct {
	players    []PlayerInfo
	decisions  []Decision
	resolution int
}

const (
	coinPlayer0 = iota
	coinPlayer1
	coinChance
	coinReferee
)

const (
	coinFlip = iota
	coinBias
	coinGuess0
	coinGuess1
)

func newCoinGame() *coinGame {
	return &coinGame{
		players: []PlayerInfo{
			{Name: "P0", PlayerIndex: coinPlayer0},
			{Name: "P1", PlayerIndex: coinPlayer1},
			{Name: "Coin", PlayerIndex: coinChance, IsChance: true},
			{Name: "Referee", PlayerIndex: coinReferee, IsChance: true},
		},
		decisions: []Decision{
			{Name: "Flip", PlayerIndex: coinChance, NumPossibleActions: 2,
				PlayersToInform: []int{coinPlayer0, coinChance, coinReferee}},
			{Name: "Bias", PlayerIndex: coinChance, NumPossibleActions: 2, UnevenChanceActions: true,
				PlayersToInform: []int{coinPlayer1, coinReferee}},
			{Name: "Guess0", PlayerIndex: coinPlayer0, NumPossibleActions: 2,
				PlayersToInform: []int{coinPlayer1, coinReferee}},
			{Name: "Guess1", PlayerIndex: coinPlayer1, NumPossibleActions: 2,
				PlayersToInform: []int{coinReferee}, IsAlwaysPlayersLastDecision: true},
		},
		resolution: coinReferee,
	}
}

func (g *coinGame) Players() []PlayerInfo       { return g.players }
func (g *coinGame) Decisions() []Decision       { return g.decisions }
func (g *coinGame) ResolutionPlayer() int       { return g.resolution }
func (g *coinGame) NextDecision(h *History) int { return h.LastDecisionIndex() + 1 }

func (g *coinGame) IsTerminalAfter(decisionIndex int, h *History) bool {
	return decisionIndex == coinGuess1
}

func (g *coinGame) ChanceProbabilities(decisionIndex int, progress GameProgress) []float64 {
	if progress.(*coinProgress).actions[coinFlip] == 1 {
		return []float64{0.25, 0.75}
	}

	return []float64{1, 0}
}

func (g *coinGame) NewGameProgress() GameProgress {
	return &coinProgress{}
}

type coinProgress struct {
	actions [4]byte
	n       int
}

func (c *coinProgress) DeepCopy() GameProgress {
	result := *c
	return &result
}

func (c *coinProgress) Apply(decisionIndex int, action byte) {
	c.actions[decisionIndex] = action
	c.n++
}

func (c *coinProgress) IsComplete() bool {
	return c.n == len(c.actions)
}

func (c *coinProgress) Utilities() []float64 {
	var u float64
	if c.actions[coinGuess0] == c.actions[coinFlip] {
		u++
	}
	if c.actions[coinGuess1] == c.actions[coinBias] {
		u--
	}

	return []float64{u, -u}
}

var allModes = []NavigationMode{
	LiveSimulationReplay,
	CompactHistoryReplay,
	MaterializedTree,
	CompactHistoryAndTree,
}

func newCoinNavigation(mode NavigationMode) (*Navigation, error) {
	game := newCoinGame()
	return NewNavigation(mode, game, NewInformationSetTables(game))
}

func walk(p StatePoint, fn func(p StatePoint)) {
	fn(p)
	if p.IsTerminal() {
		return
	}

	for a := byte(1); a <= p.NextDecision().NumPossibleActions; a++ {
		walk(p.Branch(a), fn)
	}
}

func follow(p StatePoint, actions ...byte) StatePoint {
	for _, a := range actions {
		p = p.Branch(a)
	}
	return p
}
