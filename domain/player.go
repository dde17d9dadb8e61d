package domain

import (
	"github.com/google/uuid"
	"github.com/lazharichir/trumpout/cards"
)

const (
	ActionWaiting  = "waiting"
	ActionRaised   = "raised"
	ActionFolded   = "folded"
	ActionMulligan = "mulligan (auto-fold)"
	ActionLeft     = "left"
)

// Player represents one seat of a game
type Player struct {
	ID            string
	Name          string
	Hand          cards.Stack
	ScorePile     cards.Stack
	Points        int
	StartingCount int
	LastAction    string

	// reset every round
	HasRaised    bool
	MulliganUsed bool
	InRound      bool
}

// NewPlayer creates a new player with the given ID and name.
// An empty id gets a fresh uuid.
func NewPlayer(id string, name string) *Player {
	if id == "" {
		id = uuid.NewString()
	}
	return &Player{
		ID:         id,
		Name:       name,
		Hand:       make(cards.Stack, 0),
		ScorePile:  make(cards.Stack, 0),
		LastAction: ActionWaiting,
	}
}

// ResetForNewRound clears the per-round flags
func (p *Player) ResetForNewRound() {
	p.HasRaised = false
	p.MulliganUsed = false
	p.InRound = true
	p.LastAction = ActionWaiting
}

// DrawToHandCount tops the hand up to size. A dry deck leaves it short.
func (p *Player) DrawToHandCount(deck *cards.Deck, size int) {
	missing := size - len(p.Hand)
	if missing <= 0 {
		return
	}
	p.Hand.Add(deck.Draw(missing)...)
}

// CanMulligan reports whether a fold request turns into a mulligan
func (p *Player) CanMulligan() bool {
	return !p.HasRaised && !p.MulliganUsed
}
