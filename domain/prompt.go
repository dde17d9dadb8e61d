package domain

import "github.com/lazharichir/trumpout/cards"

type PromptKind string

const (
	PromptJackTarget  PromptKind = "jack.target"
	PromptJackDiscard PromptKind = "jack.discard"
	PromptMulligan    PromptKind = "mulligan"
)

// Prompt is a step a player owes before the turn can move on.
// Prompts live on the game, keyed by the owing player, and are removed when completed.
type Prompt struct {
	Kind     PromptKind
	TargetID string      // jack.discard
	Drawn    cards.Stack // mulligan
}

func (g *Game) promptFor(playerID string) *Prompt {
	return g.pending[playerID]
}

func (g *Game) setPrompt(playerID string, prompt *Prompt) {
	if g.pending == nil {
		g.pending = make(map[string]*Prompt)
	}
	g.pending[playerID] = prompt
}

func (g *Game) clearPrompt(playerID string) {
	delete(g.pending, playerID)
}

// expectPrompt returns the player's pending prompt if it is of the given kind
func (g *Game) expectPrompt(playerID string, kind PromptKind) (*Prompt, error) {
	prompt := g.promptFor(playerID)
	if prompt == nil || prompt.Kind != kind {
		return nil, ErrNothingPending
	}
	return prompt, nil
}

// notify queues a one-shot message for a player
func (g *Game) notify(playerID string, message string) {
	if g.messages == nil {
		g.messages = make(map[string][]string)
	}
	g.messages[playerID] = append(g.messages[playerID], message)
}

// TakeMessages returns and clears the player's queued messages
func (g *Game) TakeMessages(playerID string) []string {
	msgs := g.messages[playerID]
	delete(g.messages, playerID)
	return msgs
}

// PendingMessages returns the player's queued messages without clearing them
func (g *Game) PendingMessages(playerID string) []string {
	return append([]string(nil), g.messages[playerID]...)
}
