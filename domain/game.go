package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lazharichir/trumpout/cards"
	"github.com/lazharichir/trumpout/domain/events"
)

// RoundResult is one line of a game's round history
type RoundResult struct {
	Number     int    `json:"number"`
	WinnerID   string `json:"winnerId,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	Highest    int    `json:"highest"`
	Points     int    `json:"points"`
}

// Game owns the deck, the seats and the rounds of one room
type Game struct {
	ID               string
	RoomID           string
	Config           GameConfig
	Players          []*Player
	Deck             *cards.Deck
	CurrentRound     *Round
	RoundHistory     []RoundResult
	FirstPlayerIndex int // -1 until the first round picks one
	GameOver         bool
	Aborted          bool
	StartedAt        time.Time

	scoring  ScoringPolicy
	rng      *rand.Rand
	pending  map[string]*Prompt
	messages map[string][]string

	// events
	Events        []events.Event
	eventHandlers []events.EventHandler
}

// NewGame creates an empty game for a room
func NewGame(roomID string, config GameConfig) (*Game, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	scoring, err := ScoringPolicyByName(config.Scoring)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	g := &Game{
		ID:               uuid.NewString(),
		RoomID:           roomID,
		Config:           config,
		Players:          make([]*Player, 0, config.PlayerCount),
		Deck:             cards.NewDeck(config.Recipe(), rng),
		RoundHistory:     []RoundResult{},
		FirstPlayerIndex: -1,
		scoring:          scoring,
		rng:              rng,
		pending:          make(map[string]*Prompt),
		messages:         make(map[string][]string),
		Events:           []events.Event{},
		eventHandlers:    []events.EventHandler{},
	}
	g.Deck.AttachSource(g)

	return g, nil
}

// RegisterEventHandler registers a callback function that will be called when events occur
func (g *Game) RegisterEventHandler(handler events.EventHandler) {
	g.eventHandlers = append(g.eventHandlers, handler)
}

// emitEvent notifies all registered handlers of a new event
func (g *Game) emitEvent(event events.Event) {
	g.Events = append(g.Events, event)

	for _, handler := range g.eventHandlers {
		handler(event)
	}
}

// AddPlayer seats a player. Fails when the game is full or the name is taken.
func (g *Game) AddPlayer(player *Player) error {
	if player == nil || player.Name == "" {
		return ErrEmptyName
	}
	if len(g.Players) >= g.Config.PlayerCount {
		return ErrRoomFull
	}
	for _, p := range g.Players {
		if p.Name == player.Name {
			return ErrDuplicateName
		}
		if p.ID == player.ID {
			return fmt.Errorf("%w: id %s already seated", ErrDuplicateName, player.ID)
		}
	}

	g.Players = append(g.Players, player)
	return nil
}

// Start begins the first round once every seat is taken
func (g *Game) Start() error {
	if len(g.Players) != g.Config.PlayerCount {
		return fmt.Errorf("need %d players to start, have %d", g.Config.PlayerCount, len(g.Players))
	}
	if !g.StartedAt.IsZero() {
		return fmt.Errorf("game %s already started", g.ID)
	}

	g.StartedAt = time.Now()
	g.emitEvent(events.GameStarted{
		RoomID:  g.RoomID,
		GameID:  g.ID,
		Players: g.playerIDs(),
		At:      time.Now(),
	})

	_, err := g.StartRound()
	return err
}

// StartRound refills hands, resets round flags, picks the starting seat and opens a round.
func (g *Game) StartRound() (*Round, error) {
	if g.GameOver {
		return nil, ErrGameOver
	}
	if g.CurrentRound != nil {
		return nil, fmt.Errorf("round %d still in progress", g.CurrentRound.Number)
	}
	if len(g.Players) == 0 {
		return nil, ErrPlayerNotFound
	}

	for _, p := range g.Players {
		p.DrawToHandCount(g.Deck, g.Config.HandCount)
		p.ResetForNewRound()
	}

	if g.FirstPlayerIndex < 0 || g.FirstPlayerIndex >= len(g.Players) {
		g.FirstPlayerIndex = g.rng.Intn(len(g.Players))
	}
	starter := g.Players[g.FirstPlayerIndex]
	starter.StartingCount++

	g.pending = make(map[string]*Prompt)
	g.CurrentRound = NewRound(len(g.RoundHistory)+1, g.Players, g.FirstPlayerIndex, g.Config.MaxCardsPerPlay)

	g.emitEvent(events.RoundStarted{
		RoomID:      g.RoomID,
		GameID:      g.ID,
		Number:      g.CurrentRound.Number,
		FirstPlayer: starter.ID,
		TurnOrder:   g.turnOrderIDs(),
		At:          time.Now(),
	})
	g.emitEvent(events.PlayerTurnStarted{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: starter.ID,
		At:       time.Now(),
	})

	return g.CurrentRound, nil
}

// EndRound settles the finished round, records it and rotates the starting seat.
// The game is over once every seat has started the configured number of rounds.
func (g *Game) EndRound() {
	round := g.CurrentRound
	if round == nil {
		return
	}

	points := round.Settle(g.Deck, g.scoring, g.Config.HandCount)

	result := RoundResult{
		Number:  round.Number,
		Highest: round.CurrentHighest,
		Points:  points,
	}
	if round.Winner != nil {
		result.WinnerID = round.Winner.ID
		result.WinnerName = round.Winner.Name
	}
	g.RoundHistory = append(g.RoundHistory, result)

	g.FirstPlayerIndex = (g.FirstPlayerIndex + 1) % len(g.Players)
	g.CurrentRound = nil
	g.pending = make(map[string]*Prompt)

	g.emitEvent(events.RoundEnded{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		Number:   result.Number,
		WinnerID: result.WinnerID,
		Highest:  result.Highest,
		Points:   result.Points,
		At:       time.Now(),
	})

	if g.everySeatHasStarted() {
		g.GameOver = true
		g.emitEvent(events.GameEnded{
			RoomID:      g.RoomID,
			GameID:      g.ID,
			FinalScores: g.FinalScores(),
			At:          time.Now(),
		})
	}
}

func (g *Game) everySeatHasStarted() bool {
	for _, p := range g.Players {
		if p.StartingCount < g.Config.FirstPlayerThreshold {
			return false
		}
	}
	return len(g.Players) > 0
}

// RemovePlayer takes a departing player off the roster and out of the live round.
// Dropping below capacity aborts the game.
func (g *Game) RemovePlayer(playerID string) error {
	idx := g.playerIndex(playerID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	player := g.Players[idx]

	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	if len(g.Players) > 0 && g.FirstPlayerIndex >= 0 {
		if idx < g.FirstPlayerIndex {
			g.FirstPlayerIndex--
		}
		g.FirstPlayerIndex %= len(g.Players)
	}

	g.clearPrompt(playerID)
	if g.CurrentRound != nil {
		g.CurrentRound.RemovePlayer(playerID)
		// a jack discard aimed at the departed player falls back to target selection
		for actor, prompt := range g.pending {
			if prompt.Kind == PromptJackDiscard && prompt.TargetID == playerID {
				g.setPrompt(actor, &Prompt{Kind: PromptJackTarget})
			}
		}
	}

	player.LastAction = ActionLeft
	g.Deck.Return(append(player.Hand, player.ScorePile...)...)
	player.Hand = cards.Stack{}
	player.ScorePile = cards.Stack{}

	if len(g.Players) < g.Config.PlayerCount {
		g.Aborted = true
		g.GameOver = true
		g.emitEvent(events.GameAborted{
			RoomID:    g.RoomID,
			GameID:    g.ID,
			Survivors: g.playerIDs(),
			At:        time.Now(),
		})
	}

	return nil
}

// checkCanAct guards every in-round action
func (g *Game) checkCanAct(playerID string) (*Player, error) {
	if g.GameOver {
		return nil, ErrGameOver
	}
	if g.CurrentRound == nil {
		return nil, ErrNoRound
	}
	player := g.GetPlayer(playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// Raise plays cards for the current player
func (g *Game) Raise(playerID string, indices []int) error {
	if _, err := g.checkCanAct(playerID); err != nil {
		return err
	}
	if g.promptFor(playerID) != nil {
		return ErrPromptPending
	}

	bet, err := g.CurrentRound.Raise(playerID, indices)
	if err != nil {
		return err
	}

	g.emitEvent(events.PlayerRaised{
		RoomID:    g.RoomID,
		GameID:    g.ID,
		PlayerID:  playerID,
		Cards:     bet.Cards,
		Effective: bet.Effective,
		Scored:    bet.Scored,
		Effect:    string(bet.Effect),
		Reversed:  g.CurrentRound.Reversed,
		At:        time.Now(),
	})

	if bet.Effect == EffectJack && len(g.jackTargets(playerID)) > 0 {
		g.setPrompt(playerID, &Prompt{Kind: PromptJackTarget})
		return nil
	}

	return g.advance()
}

// Fold withdraws the current player. A player who has neither raised nor used the
// mulligan this round gets a mulligan instead: draw extra cards, then discard as many.
func (g *Game) Fold(playerID string) error {
	player, err := g.checkCanAct(playerID)
	if err != nil {
		return err
	}
	if g.promptFor(playerID) != nil {
		return ErrPromptPending
	}

	round := g.CurrentRound
	if err := round.checkCanAct(playerID); err != nil {
		return err
	}

	if player.CanMulligan() && g.Config.MulliganCount > 0 {
		player.MulliganUsed = true
		drawn := g.Deck.Draw(g.Config.MulliganCount)
		player.Hand.Add(drawn...)

		g.emitEvent(events.MulliganStarted{
			RoomID:   g.RoomID,
			GameID:   g.ID,
			PlayerID: playerID,
			Drawn:    len(drawn),
			At:       time.Now(),
		})

		if len(drawn) > 0 {
			g.setPrompt(playerID, &Prompt{Kind: PromptMulligan, Drawn: drawn})
			g.emitEvent(events.MulliganCardsDrawn{
				RoomID:   g.RoomID,
				GameID:   g.ID,
				PlayerID: playerID,
				Cards:    drawn,
				At:       time.Now(),
			})
			return nil
		}

		g.notify(playerID, "The deck is empty, the mulligan drew nothing.")
		return g.completeMulligan(player)
	}

	if err := round.Fold(playerID); err != nil {
		return err
	}
	g.emitEvent(events.PlayerFolded{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: playerID,
		At:       time.Now(),
	})

	return g.advance()
}

// MulliganDiscard completes a mulligan by discarding exactly as many cards as were drawn.
func (g *Game) MulliganDiscard(playerID string, indices []int) error {
	player, err := g.checkCanAct(playerID)
	if err != nil {
		return err
	}
	prompt, err := g.expectPrompt(playerID, PromptMulligan)
	if err != nil {
		return err
	}

	if len(indices) != len(prompt.Drawn) {
		return fmt.Errorf("%w: discard exactly %d", ErrWrongDiscardCount, len(prompt.Drawn))
	}

	discarded, err := player.Hand.RemoveAt(indices)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCardIndex, err)
	}
	g.Deck.Return(discarded...)

	return g.completeMulligan(player)
}

func (g *Game) completeMulligan(player *Player) error {
	g.clearPrompt(player.ID)
	g.CurrentRound.withdraw(player, ActionMulligan)

	g.emitEvent(events.PlayerFolded{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: player.ID,
		Mulligan: true,
		At:       time.Now(),
	})

	return g.advance()
}

// SelectJackTarget picks whose hand the J reveals
func (g *Game) SelectJackTarget(playerID string, targetName string) error {
	player, err := g.checkCanAct(playerID)
	if err != nil {
		return err
	}
	if _, err := g.expectPrompt(playerID, PromptJackTarget); err != nil {
		return err
	}

	var target *Player
	for _, p := range g.jackTargets(playerID) {
		if p.Name == targetName {
			target = p
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, targetName)
	}

	g.emitEvent(events.JackTargetSelected{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: playerID,
		TargetID: target.ID,
		At:       time.Now(),
	})

	if len(target.Hand) == 0 {
		g.notify(playerID, fmt.Sprintf("%s has no cards to discard.", target.Name))
		g.clearPrompt(playerID)
		return g.advance()
	}

	g.setPrompt(playerID, &Prompt{Kind: PromptJackDiscard, TargetID: target.ID})
	g.emitEvent(events.JackHandRevealed{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: player.ID,
		TargetID: target.ID,
		Cards:    append(cards.Stack{}, target.Hand...),
		At:       time.Now(),
	})

	return nil
}

// JackDiscard discards one card from the revealed hand
func (g *Game) JackDiscard(playerID string, indices []int) error {
	player, err := g.checkCanAct(playerID)
	if err != nil {
		return err
	}
	prompt, err := g.expectPrompt(playerID, PromptJackDiscard)
	if err != nil {
		return err
	}
	if len(indices) != 1 {
		return fmt.Errorf("%w: discard exactly 1", ErrWrongDiscardCount)
	}

	target := g.GetPlayer(prompt.TargetID)
	if target == nil {
		return ErrInvalidTarget
	}

	discarded, err := target.Hand.RemoveAt(indices)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCardIndex, err)
	}
	g.Deck.Return(discarded...)

	g.notify(target.ID, fmt.Sprintf("%s used J and discarded your %s.", player.Name, discarded[0]))
	g.emitEvent(events.JackCardDiscarded{
		RoomID:   g.RoomID,
		GameID:   g.ID,
		PlayerID: playerID,
		TargetID: target.ID,
		At:       time.Now(),
	})

	g.clearPrompt(playerID)
	return g.advance()
}

// advance ends the round when it is over, otherwise hands the turn to the next active seat.
func (g *Game) advance() error {
	round := g.CurrentRound
	if round == nil {
		return nil
	}

	if round.CheckRoundOver() {
		g.EndRound()
		if g.GameOver {
			return nil
		}
		if _, err := g.StartRound(); err != nil {
			return fmt.Errorf("opening round %d: %w", len(g.RoundHistory)+1, err)
		}
		return nil
	}

	if next := round.NextPlayer(); next != nil {
		g.emitEvent(events.PlayerTurnStarted{
			RoomID:   g.RoomID,
			GameID:   g.ID,
			PlayerID: next.ID,
			At:       time.Now(),
		})
	}
	return nil
}

// jackTargets lists every other seated player
func (g *Game) jackTargets(playerID string) []*Player {
	targets := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.ID != playerID {
			targets = append(targets, p)
		}
	}
	return targets
}

// CardsInPlay reports hands, score piles and the live bet history for deck refreshes
func (g *Game) CardsInPlay() cards.Stack {
	var out cards.Stack
	for _, p := range g.Players {
		out = append(out, p.Hand...)
		out = append(out, p.ScorePile...)
	}
	if g.CurrentRound != nil {
		out = append(out, g.CurrentRound.CardsInPlay()...)
	}
	return out
}

// GetPlayer finds a seated player by id
func (g *Game) GetPlayer(playerID string) *Player {
	if idx := g.playerIndex(playerID); idx != -1 {
		return g.Players[idx]
	}
	return nil
}

// GetPlayerByName finds a seated player by display name
func (g *Game) GetPlayerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (g *Game) playerIndex(playerID string) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (g *Game) playerIDs() []string {
	ids := make([]string, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	return ids
}

func (g *Game) turnOrderIDs() []string {
	order := g.TurnOrder()
	ids := make([]string, len(order))
	for i, p := range order {
		ids[i] = p.ID
	}
	return ids
}

// TurnOrder lists the round's seats starting from its first player
func (g *Game) TurnOrder() []*Player {
	round := g.CurrentRound
	if round == nil || len(round.Players) == 0 {
		return nil
	}
	n := len(round.Players)
	order := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		order = append(order, round.Players[(round.FirstPlayerIndex+i)%n])
	}
	return order
}

// FinalScores maps display names to cumulative points
func (g *Game) FinalScores() map[string]int {
	scores := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		scores[p.Name] = p.Points
	}
	return scores
}
