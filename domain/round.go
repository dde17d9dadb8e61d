package domain

import (
	"fmt"

	"github.com/lazharichir/trumpout/cards"
)

type RoundPhase string

const (
	RoundPhaseOpen RoundPhase = "open"
	RoundPhaseOver RoundPhase = "over"
)

// Effect tags the special card of a play
type Effect string

const (
	EffectNone  Effect = ""
	EffectJack  Effect = "J"
	EffectQueen Effect = "Q"
	EffectKing  Effect = "K"
	EffectJoker Effect = "joker"
)

const KingModifier = 5

// Bet is one accepted raise
type Bet struct {
	PlayerID   string
	PlayerName string
	Cards      cards.Stack
	Base       int // numeric cards only
	Effective  int // compared against the current highest
	Scored     int // recorded for settlement
	Effect     Effect
}

// Round represents one betting sequence of a game
type Round struct {
	Number           int
	Phase            RoundPhase
	Players          []*Player
	FirstPlayerIndex int
	CurrentTurnIndex int
	CurrentHighest   int
	Reversed         bool
	BetHistory       []Bet
	ActivePlayers    map[string]bool // Maps player IDs to active status (still in the round)
	Winner           *Player

	maxCardsPerPlay int
	settled         bool
}

// NewRound opens a round over players; first is the index of the starting seat.
func NewRound(number int, players []*Player, first int, maxCardsPerPlay int) *Round {
	order := make([]*Player, len(players))
	copy(order, players)

	r := &Round{
		Number:           number,
		Phase:            RoundPhaseOpen,
		Players:          order,
		FirstPlayerIndex: first,
		CurrentTurnIndex: first,
		ActivePlayers:    make(map[string]bool, len(players)),
		BetHistory:       []Bet{},
		maxCardsPerPlay:  maxCardsPerPlay,
	}
	for _, p := range order {
		r.ActivePlayers[p.ID] = true
	}
	return r
}

// CurrentPlayer returns the player at the turn cursor
func (r *Round) CurrentPlayer() *Player {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentTurnIndex]
}

func (r *Round) IsPlayerActive(playerID string) bool {
	return r.ActivePlayers[playerID]
}

func (r *Round) IsPlayerTheCurrentPlayer(playerID string) bool {
	current := r.CurrentPlayer()
	return current != nil && current.ID == playerID
}

func (r *Round) IsOver() bool {
	return r.Phase == RoundPhaseOver
}

func (r *Round) countActivePlayers() int {
	return len(r.ActivePlayers)
}

// checkCanAct validates that playerID may act now
func (r *Round) checkCanAct(playerID string) error {
	if r.IsOver() {
		return ErrNoRound
	}
	if !r.IsPlayerActive(playerID) {
		return ErrNotActive
	}
	if !r.IsPlayerTheCurrentPlayer(playerID) {
		return ErrNotYourTurn
	}
	return nil
}

// Raise plays the selected cards of the current player's hand.
// A rejected raise changes nothing.
func (r *Round) Raise(playerID string, indices []int) (Bet, error) {
	if err := r.checkCanAct(playerID); err != nil {
		return Bet{}, err
	}
	player := r.CurrentPlayer()

	if len(indices) == 0 {
		return Bet{}, ErrNoCards
	}

	selection, err := player.Hand.Pick(indices)
	if err != nil {
		return Bet{}, fmt.Errorf("%w: %v", ErrInvalidCardIndex, err)
	}

	bet, reversed, err := r.evaluate(selection)
	if err != nil {
		return Bet{}, err
	}
	bet.PlayerID = player.ID
	bet.PlayerName = player.Name

	if _, err := player.Hand.RemoveAt(indices); err != nil {
		return Bet{}, fmt.Errorf("%w: %v", ErrInvalidCardIndex, err)
	}

	r.BetHistory = append(r.BetHistory, bet)
	r.CurrentHighest = bet.Effective
	r.Reversed = reversed
	player.HasRaised = true
	player.LastAction = ActionRaised

	return bet, nil
}

// evaluate validates a selection against the round and computes its values.
// It returns the direction that applies once the play is accepted.
func (r *Round) evaluate(selection cards.Stack) (Bet, bool, error) {
	specials := selection.Specials()
	numerics := selection.Numerics()

	if len(specials) > 1 {
		return Bet{}, false, ErrTooManySpecials
	}

	allowed := r.maxCardsPerPlay
	if len(specials) == 1 {
		allowed++
	}
	if len(selection) > allowed {
		return Bet{}, false, fmt.Errorf("%w: at most %d", ErrTooManyCards, allowed)
	}

	if len(specials) == 1 && len(numerics) == 0 {
		return Bet{}, false, ErrSpecialAlone
	}

	base := numerics.Sum()
	bet := Bet{
		Cards:     selection,
		Base:      base,
		Effective: base,
		Effect:    EffectNone,
	}
	reversed := r.Reversed

	if len(specials) == 1 {
		switch specials[0].Rank {
		case cards.Jack:
			bet.Effect = EffectJack
		case cards.Queen:
			bet.Effect = EffectQueen
			reversed = !reversed
		case cards.King:
			bet.Effect = EffectKing
			if reversed {
				bet.Effective = base - KingModifier
			} else {
				bet.Effective = base + KingModifier
			}
		case cards.Joker:
			bet.Effect = EffectJoker
			if reversed {
				bet.Effective = r.CurrentHighest - base
			} else {
				bet.Effective = base + r.CurrentHighest
			}
		}
	}

	bet.Scored = bet.Effective
	if bet.Effect == EffectJoker {
		bet.Scored = base
	}

	// the first raise of a round sets the bar in either direction
	if len(r.BetHistory) > 0 {
		if !reversed && bet.Effective <= r.CurrentHighest {
			return Bet{}, false, fmt.Errorf("%w: %d is not above %d", ErrTooLow, bet.Effective, r.CurrentHighest)
		}
		if reversed && bet.Effective >= r.CurrentHighest {
			return Bet{}, false, fmt.Errorf("%w: %d is not below %d", ErrTooHigh, bet.Effective, r.CurrentHighest)
		}
	}

	return bet, reversed, nil
}

// Fold removes the current player from the round
func (r *Round) Fold(playerID string) error {
	if err := r.checkCanAct(playerID); err != nil {
		return err
	}
	r.withdraw(r.CurrentPlayer(), ActionFolded)
	return nil
}

// withdraw takes a player out of the active set without turn checks
func (r *Round) withdraw(player *Player, action string) {
	delete(r.ActivePlayers, player.ID)
	player.InRound = false
	player.LastAction = action
}

// CheckRoundOver closes the round when nobody, or a single player who has raised, is left.
func (r *Round) CheckRoundOver() bool {
	if r.IsOver() {
		return true
	}

	switch r.countActivePlayers() {
	case 0:
		r.Phase = RoundPhaseOver
		return true
	case 1:
		last := r.getLastActivePlayer()
		if last != nil && last.HasRaised {
			r.Phase = RoundPhaseOver
			r.Winner = last
			return true
		}
	}

	return false
}

func (r *Round) getLastActivePlayer() *Player {
	for _, p := range r.Players {
		if r.ActivePlayers[p.ID] {
			return p
		}
	}
	return nil
}

// NextPlayer moves the cursor to the next active seat and returns it.
// The cursor stays put when nobody else is active.
func (r *Round) NextPlayer() *Player {
	n := len(r.Players)
	if n == 0 {
		return nil
	}
	pos := r.CurrentTurnIndex
	for i := 0; i < n; i++ {
		pos = (pos + 1) % n
		if r.ActivePlayers[r.Players[pos].ID] {
			r.CurrentTurnIndex = pos
			return r.Players[pos]
		}
	}
	return nil
}

// RemovePlayer drops a departing player from the seat order and the active set,
// keeping the cursor on an active seat.
func (r *Round) RemovePlayer(playerID string) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	wasCurrent := idx == r.CurrentTurnIndex
	delete(r.ActivePlayers, playerID)
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if idx < r.FirstPlayerIndex {
		r.FirstPlayerIndex--
	}
	if idx < r.CurrentTurnIndex {
		r.CurrentTurnIndex--
	}

	n := len(r.Players)
	if n == 0 {
		r.FirstPlayerIndex, r.CurrentTurnIndex = 0, 0
		return
	}
	r.FirstPlayerIndex %= n

	if wasCurrent {
		// the seat after the departed one now sits at idx; step back so NextPlayer lands on it
		r.CurrentTurnIndex = (idx - 1 + n) % n
		if r.NextPlayer() == nil {
			r.CurrentTurnIndex = idx % n
		}
		return
	}
	r.CurrentTurnIndex %= n
}

// LastBetBy returns the most recent bet of a player
func (r *Round) LastBetBy(playerID string) (Bet, bool) {
	for i := len(r.BetHistory) - 1; i >= 0; i-- {
		if r.BetHistory[i].PlayerID == playerID {
			return r.BetHistory[i], true
		}
	}
	return Bet{}, false
}

// CardsInPlay returns every card sitting in the bet history
func (r *Round) CardsInPlay() cards.Stack {
	if r.settled {
		return nil
	}
	var out cards.Stack
	for _, b := range r.BetHistory {
		out = append(out, b.Cards...)
	}
	return out
}

// Settle credits the winner and hands the played cards out. It runs once; a round without a
// winner only sends its cards back to the deck.
func (r *Round) Settle(deck *cards.Deck, policy ScoringPolicy, handCount int) int {
	if r.settled {
		return 0
	}
	r.settled = true

	var returned cards.Stack

	winnerBet, ok := Bet{}, false
	if r.Winner != nil {
		winnerBet, ok = r.LastBetBy(r.Winner.ID)
	}

	if !ok {
		for _, b := range r.BetHistory {
			returned = append(returned, b.Cards...)
		}
		deck.Return(returned...)
		return 0
	}

	points := policy.Score(winnerBet)
	r.Winner.Points += points

	for _, b := range r.BetHistory {
		for _, c := range b.Cards {
			if b.PlayerID == r.Winner.ID && (!c.IsSpecial() || c.Rank == cards.King) {
				r.Winner.ScorePile.Add(c)
				continue
			}
			returned = append(returned, c)
		}
	}
	deck.Return(returned...)

	for _, p := range r.Players {
		p.DrawToHandCount(deck, handCount)
	}

	return points
}
