package domain

import (
	"github.com/lazharichir/trumpout/cards"
)

// GameView represents one player's view of a game. Other players' hands are never included,
// except the hand revealed to the owner of a jack discard prompt.
type GameView struct {
	RoomID   string `json:"roomId"`
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`

	RoundNumber    int           `json:"roundNumber"`
	FirstPlayer    string        `json:"firstPlayer,omitempty"`
	TurnOrder      []string      `json:"turnOrder"`
	CurrentTurn    string        `json:"currentTurn,omitempty"`
	MyTurn         bool          `json:"myTurn"`
	CurrentHighest int           `json:"currentHighest"`
	Reversed       bool          `json:"reversed"`
	Direction      string        `json:"direction"`
	BetHistory     []BetView     `json:"betHistory"`
	Players        []PlayerView  `json:"players"`
	MyHand         []CardView    `json:"myHand"`
	Prompt         *PromptView   `json:"prompt,omitempty"`
	Messages       []string      `json:"messages,omitempty"`
	RoundHistory   []RoundResult `json:"roundHistory"`
	DeckCount      int           `json:"deckCount"`

	AvailableActions []string `json:"availableActions"`

	GameOver    bool           `json:"gameOver"`
	Aborted     bool           `json:"aborted"`
	FinalScores map[string]int `json:"finalScores,omitempty"`
}

// CardView carries what a client needs to draw a card
type CardView struct {
	Label   string `json:"label"`
	Suit    string `json:"suit,omitempty"`
	Rank    string `json:"rank"`
	Special bool   `json:"special"`
	Red     bool   `json:"red"`
	Effect  string `json:"effect,omitempty"`
}

type BetView struct {
	PlayerID   string     `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Cards      []CardView `json:"cards"`
	Value      int        `json:"value"`
	Effect     string     `json:"effect,omitempty"`
}

type PlayerView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	HandCount     int        `json:"handCount"`
	Points        int        `json:"points"`
	StartingCount int        `json:"startingCount"`
	LastAction    string     `json:"lastAction"`
	ScorePile     []CardView `json:"scorePile"`
	IsActive      bool       `json:"isActive"`
	IsCurrent     bool       `json:"isCurrent"`
	HasRaised     bool       `json:"hasRaised"`
}

type PromptView struct {
	Kind       string     `json:"kind"`
	Targets    []string   `json:"targets,omitempty"`
	TargetName string     `json:"targetName,omitempty"`
	TargetHand []CardView `json:"targetHand,omitempty"`
	Drawn      []CardView `json:"drawn,omitempty"`
	Count      int        `json:"count,omitempty"`
}

// NewCardView maps a card to its display data
func NewCardView(c cards.Card) CardView {
	return CardView{
		Label:   c.String(),
		Suit:    string(c.Suit),
		Rank:    string(c.Rank),
		Special: c.IsSpecial(),
		Red:     c.Suit.IsRed(),
		Effect:  c.Effect(),
	}
}

func cardViews(stack cards.Stack) []CardView {
	views := make([]CardView, len(stack))
	for i, c := range stack {
		views[i] = NewCardView(c)
	}
	return views
}

// BuildPlayerView constructs a view of the game specific to a player
func (g *Game) BuildPlayerView(playerID string) GameView {
	view := GameView{
		RoomID:       g.RoomID,
		GameID:       g.ID,
		PlayerID:     playerID,
		TurnOrder:    []string{},
		Direction:    "up",
		BetHistory:   []BetView{},
		Players:      make([]PlayerView, 0, len(g.Players)),
		MyHand:       []CardView{},
		RoundHistory: g.RoundHistory,
		DeckCount:    g.Deck.Len(),
		GameOver:     g.GameOver,
		Aborted:      g.Aborted,
	}

	round := g.CurrentRound
	if round != nil {
		view.RoundNumber = round.Number
		view.CurrentHighest = round.CurrentHighest
		view.Reversed = round.Reversed
		if round.Reversed {
			view.Direction = "down"
		}
		for _, p := range g.TurnOrder() {
			view.TurnOrder = append(view.TurnOrder, p.Name)
		}
		if len(view.TurnOrder) > 0 {
			view.FirstPlayer = view.TurnOrder[0]
		}
		if current := round.CurrentPlayer(); current != nil {
			view.CurrentTurn = current.Name
			view.MyTurn = current.ID == playerID
		}
		// newest first
		for i := len(round.BetHistory) - 1; i >= 0; i-- {
			b := round.BetHistory[i]
			view.BetHistory = append(view.BetHistory, BetView{
				PlayerID:   b.PlayerID,
				PlayerName: b.PlayerName,
				Cards:      cardViews(b.Cards),
				Value:      b.Scored,
				Effect:     string(b.Effect),
			})
		}
	}

	for _, p := range g.Players {
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			HandCount:     len(p.Hand),
			Points:        p.Points,
			StartingCount: p.StartingCount,
			LastAction:    p.LastAction,
			ScorePile:     cardViews(p.ScorePile),
			HasRaised:     p.HasRaised,
		}
		if round != nil {
			pv.IsActive = round.IsPlayerActive(p.ID)
			pv.IsCurrent = round.IsPlayerTheCurrentPlayer(p.ID)
		}
		view.Players = append(view.Players, pv)

		if p.ID == playerID {
			view.MyHand = cardViews(p.Hand)
		}
	}

	view.Prompt = g.buildPromptView(playerID)
	view.AvailableActions = g.getAvailableActions(playerID)

	if g.GameOver {
		view.FinalScores = g.FinalScores()
	}

	return view
}

func (g *Game) buildPromptView(playerID string) *PromptView {
	prompt := g.promptFor(playerID)
	if prompt == nil {
		return nil
	}

	pv := &PromptView{Kind: string(prompt.Kind)}
	switch prompt.Kind {
	case PromptJackTarget:
		for _, p := range g.jackTargets(playerID) {
			pv.Targets = append(pv.Targets, p.Name)
		}
	case PromptJackDiscard:
		if target := g.GetPlayer(prompt.TargetID); target != nil {
			pv.TargetName = target.Name
			pv.TargetHand = cardViews(target.Hand)
			pv.Count = 1
		}
	case PromptMulligan:
		pv.Drawn = cardViews(prompt.Drawn)
		pv.Count = len(prompt.Drawn)
	}
	return pv
}

// getAvailableActions determines what actions a player can take in the current state
func (g *Game) getAvailableActions(playerID string) []string {
	actions := []string{}

	if g.GameOver || g.CurrentRound == nil {
		return actions
	}

	if prompt := g.promptFor(playerID); prompt != nil {
		switch prompt.Kind {
		case PromptJackTarget:
			return append(actions, "j_select_target")
		case PromptJackDiscard:
			return append(actions, "j_discard")
		case PromptMulligan:
			return append(actions, "mulligan_discard")
		}
	}

	round := g.CurrentRound
	if !round.IsPlayerActive(playerID) || !round.IsPlayerTheCurrentPlayer(playerID) {
		return actions
	}

	return append(actions, "raise", "fold")
}
