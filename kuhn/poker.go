// Package kuhn implements Kuhn Poker as a cfr.GameDefinition,
// adapted from: https://justinsermeno.com/posts/cfr/.
//
// Each player antes 1 and is dealt one of three cards. Player 0 may pass
// or bet 1; player 1 may then pass or bet; if player 0 passed and player 1
// bet, player 0 must fold (pass) or call (bet). The second card is dealt
// by an uneven chance decision that never repeats the first card.
package kuhn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mbabramo/ACESim4-sub001"
)

// Player indices.
const (
	Player0 = iota
	Player1
	Dealer
	Resolution
)

// Decision indices, in execution order.
const (
	DealP0 = iota
	DealP1
	P0Action
	P1Action
	P0Response
)

// Actions of the betting decisions.
const (
	Pass byte = 1
	Bet  byte = 2
)

type Card int

const (
	Jack Card = iota
	Queen
	King
	noCard Card = -1
)

var cardStr = [...]string{
	"J",
	"Q",
	"K",
}

func (c Card) String() string {
	if c == noCard {
		return "-"
	}

	return cardStr[c]
}

// cardFor returns the card dealt by the given (1-based) chance action.
func cardFor(action byte) Card {
	return Card(action - 1)
}

var (
	bettingAudience = []int{Player0, Player1, Resolution}

	players = []cfr.PlayerInfo{
		{Name: "P0", PlayerIndex: Player0},
		{Name: "P1", PlayerIndex: Player1},
		{Name: "Dealer", PlayerIndex: Dealer, IsChance: true},
		{Name: "Resolution", PlayerIndex: Resolution, IsChance: true},
	}

	decisions = []cfr.Decision{
		{
			Name:               "DealP0",
			Abbreviation:       "d0",
			DecisionByteCode:   DealP0,
			PlayerIndex:        Dealer,
			PlayersToInform:    []int{Player0, Dealer, Resolution},
			NumPossibleActions: 3,
		},
		{
			Name:                        "DealP1",
			Abbreviation:                "d1",
			DecisionByteCode:            DealP1,
			PlayerIndex:                 Dealer,
			PlayersToInform:             []int{Player1, Resolution},
			NumPossibleActions:          3,
			UnevenChanceActions:         true,
			IsAlwaysPlayersLastDecision: true,
		},
		{
			Name:               "P0Action",
			Abbreviation:       "a0",
			DecisionByteCode:   P0Action,
			PlayerIndex:        Player0,
			PlayersToInform:    bettingAudience,
			NumPossibleActions: 2,
		},
		{
			Name:                        "P1Action",
			Abbreviation:                "a1",
			DecisionByteCode:            P1Action,
			PlayerIndex:                 Player1,
			PlayersToInform:             bettingAudience,
			NumPossibleActions:          2,
			IsAlwaysPlayersLastDecision: true,
		},
		{
			Name:                        "P0Response",
			Abbreviation:                "r0",
			DecisionByteCode:            P0Response,
			PlayerIndex:                 Player0,
			PlayersToInform:             bettingAudience,
			NumPossibleActions:          2,
			IsAlwaysPlayersLastDecision: true,
		},
	}
)

// Game implements cfr.GameDefinition for Kuhn Poker.
type Game struct{}

var _ cfr.GameDefinition = Game{}

// NewGame returns the Kuhn Poker definition.
func NewGame() Game {
	return Game{}
}

// Players implements cfr.GameDefinition.
func (Game) Players() []cfr.PlayerInfo { return players }

// Decisions implements cfr.GameDefinition.
func (Game) Decisions() []cfr.Decision { return decisions }

// ResolutionPlayer implements cfr.GameDefinition.
func (Game) ResolutionPlayer() int { return Resolution }

// NextDecision implements cfr.GameDefinition.
func (Game) NextDecision(h *cfr.History) int {
	return h.LastDecisionIndex() + 1
}

// IsTerminalAfter implements cfr.GameDefinition.
func (Game) IsTerminalAfter(decisionIndex int, h *cfr.History) bool {
	switch decisionIndex {
	case P1Action:
		first, _ := h.ActionFor(P0Action)
		second, _ := h.ActionFor(P1Action)
		return !(first == Pass && second == Bet)
	case P0Response:
		return true
	default:
		return false
	}
}

// ChanceProbabilities implements cfr.GameDefinition. The second card is
// drawn uniformly from the two cards player 0 did not receive.
func (Game) ChanceProbabilities(decisionIndex int, progress cfr.GameProgress) []float64 {
	if decisionIndex != DealP1 {
		panic(errors.Errorf("decision %d has even chance probabilities", decisionIndex))
	}

	hand := progress.(*Hand)
	result := make([]float64, len(cardStr))
	for i := range result {
		if Card(i) != hand.p0Card {
			result[i] = 0.5
		}
	}
	return result
}

// NewGameProgress implements cfr.GameDefinition.
func (Game) NewGameProgress() cfr.GameProgress {
	return &Hand{p0Card: noCard, p1Card: noCard}
}

// Hand is the live state of one hand of Kuhn Poker.
type Hand struct {
	p0Card, p1Card Card
	bets           [3]byte
	nBets          int
	complete       bool
}

var _ cfr.GameProgress = &Hand{}

// String implements fmt.Stringer.
func (h *Hand) String() string {
	return fmt.Sprintf("Hand[Cards: P0 - %s, P1 - %s, Bets: %v]", h.p0Card, h.p1Card, h.bets[:h.nBets])
}

// DeepCopy implements cfr.GameProgress.
func (h *Hand) DeepCopy() cfr.GameProgress {
	result := *h
	return &result
}

// Apply implements cfr.GameProgress.
func (h *Hand) Apply(decisionIndex int, action byte) {
	if h.complete {
		panic(errors.Errorf("cannot apply action %d to complete hand %v", action, h))
	}

	switch decisionIndex {
	case DealP0:
		h.p0Card = cardFor(action)
	case DealP1:
		h.p1Card = cardFor(action)
	case P0Action, P1Action, P0Response:
		h.bets[h.nBets] = action
		h.nBets++
		h.complete = h.bettingOver()
	default:
		panic(errors.Errorf("unknown decision %d", decisionIndex))
	}
}

func (h *Hand) bettingOver() bool {
	switch h.nBets {
	case 2:
		return !(h.bets[0] == Pass && h.bets[1] == Bet)
	case 3:
		return true
	default:
		return false
	}
}

// IsComplete implements cfr.GameProgress.
func (h *Hand) IsComplete() bool {
	return h.complete
}

// Utilities implements cfr.GameProgress.
func (h *Hand) Utilities() []float64 {
	if !h.complete {
		panic(errors.Errorf("hand is not complete: %v", h))
	}

	u0 := h.player0Utility()
	return []float64{u0, -u0}
}

func (h *Hand) player0Utility() float64 {
	switch {
	case h.bets[0] == Pass && h.bets[1] == Pass:
		return h.showdown(1.0)
	case h.bets[0] == Bet && h.bets[1] == Pass:
		return 1.0 // Player 1 folded.
	case h.bets[0] == Bet && h.bets[1] == Bet:
		return h.showdown(2.0)
	case h.nBets == 3 && h.bets[2] == Pass:
		return -1.0 // Player 0 folded.
	default:
		return h.showdown(2.0)
	}
}

func (h *Hand) showdown(stake float64) float64 {
	switch {
	case h.p0Card > h.p1Card:
		return stake
	case h.p0Card < h.p1Card:
		return -stake
	default:
		// Only reachable through the zero-probability deal of a repeated card.
		return 0
	}
}

// Cards returns the cards dealt in the hand, or -1 for a card not yet dealt.
func (h *Hand) Cards() (p0, p1 Card) {
	return h.p0Card, h.p1Card
}
