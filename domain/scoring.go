package domain

import (
	"fmt"

	"github.com/lazharichir/trumpout/cards"
)

const (
	ScoringEffective = "effective"
	ScoringScored    = "scored"
	ScoringBonus     = "bonus"

	AceBonus  = 4
	KingBonus = 5
)

// ScoringPolicy turns the winner's last play into settlement points
type ScoringPolicy interface {
	Name() string
	Score(bet Bet) int
}

// ScoringPolicyByName resolves a policy from its config name
func ScoringPolicyByName(name string) (ScoringPolicy, error) {
	switch name {
	case ScoringEffective:
		return EffectiveValueScoring{}, nil
	case ScoringScored, "":
		return CappedJokerScoring{}, nil
	case ScoringBonus:
		return BonusScoring{}, nil
	}
	return nil, fmt.Errorf("%w: unknown scoring policy %q", ErrInvalidConfig, name)
}

// EffectiveValueScoring credits the value the play was compared with, joker boost included.
type EffectiveValueScoring struct{}

func (EffectiveValueScoring) Name() string { return ScoringEffective }

func (EffectiveValueScoring) Score(bet Bet) int { return bet.Effective }

// CappedJokerScoring credits the recorded value, where a joker only counts its numeric cards.
type CappedJokerScoring struct{}

func (CappedJokerScoring) Name() string { return ScoringScored }

func (CappedJokerScoring) Score(bet Bet) int { return bet.Scored }

// BonusScoring recomputes from the cards: numeric sum, +4 per ace, +5 if a K was played.
type BonusScoring struct{}

func (BonusScoring) Name() string { return ScoringBonus }

func (BonusScoring) Score(bet Bet) int {
	score := bet.Cards.Sum()
	for _, c := range bet.Cards {
		switch {
		case c.IsAce():
			score += AceBonus
		case c.Rank == cards.King:
			score += KingBonus
		}
	}
	return score
}
