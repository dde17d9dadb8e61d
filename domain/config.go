package domain

import (
	"fmt"

	"github.com/lazharichir/trumpout/cards"
)

// GameConfig is the rule set of one room
type GameConfig struct {
	PlayerCount          int    `json:"playerCount"`
	HandCount            int    `json:"handCount"`
	MulliganCount        int    `json:"mulliganCount"`
	MaxCardsPerPlay      int    `json:"maxCardsPerPlay"`
	FirstPlayerThreshold int    `json:"firstPlayerThreshold"`
	SpecialCopies        int    `json:"specialCopies"`
	JokerCount           int    `json:"jokerCount"`
	Scoring              string `json:"scoring"`

	// Seed fixes shuffles and the first player. Zero seeds from the clock.
	Seed int64 `json:"-"`
}

// DefaultGameConfig returns the stock two-player rules
func DefaultGameConfig() GameConfig {
	return GameConfig{
		PlayerCount:          2,
		HandCount:            5,
		MulliganCount:        3,
		MaxCardsPerPlay:      2,
		FirstPlayerThreshold: 2,
		SpecialCopies:        2,
		JokerCount:           1,
		Scoring:              ScoringScored,
	}
}

// Merge fills zero fields of c from defaults
func (c GameConfig) Merge(defaults GameConfig) GameConfig {
	if c.PlayerCount == 0 {
		c.PlayerCount = defaults.PlayerCount
	}
	if c.HandCount == 0 {
		c.HandCount = defaults.HandCount
	}
	if c.MulliganCount == 0 {
		c.MulliganCount = defaults.MulliganCount
	}
	if c.MaxCardsPerPlay == 0 {
		c.MaxCardsPerPlay = defaults.MaxCardsPerPlay
	}
	if c.FirstPlayerThreshold == 0 {
		c.FirstPlayerThreshold = defaults.FirstPlayerThreshold
	}
	if c.SpecialCopies == 0 {
		c.SpecialCopies = defaults.SpecialCopies
	}
	if c.JokerCount == 0 {
		c.JokerCount = defaults.JokerCount
	}
	if c.Scoring == "" {
		c.Scoring = defaults.Scoring
	}
	if c.Seed == 0 {
		c.Seed = defaults.Seed
	}
	return c
}

// Validate rejects rule sets a game cannot be played with
func (c GameConfig) Validate() error {
	switch {
	case c.PlayerCount < 2:
		return fmt.Errorf("%w: player count must be at least 2", ErrInvalidConfig)
	case c.HandCount < 1:
		return fmt.Errorf("%w: hand count must be at least 1", ErrInvalidConfig)
	case c.MulliganCount < 0:
		return fmt.Errorf("%w: mulligan count cannot be negative", ErrInvalidConfig)
	case c.MaxCardsPerPlay < 1:
		return fmt.Errorf("%w: max cards per play must be at least 1", ErrInvalidConfig)
	case c.FirstPlayerThreshold < 1:
		return fmt.Errorf("%w: first player threshold must be at least 1", ErrInvalidConfig)
	case c.SpecialCopies < 0:
		return fmt.Errorf("%w: special copies cannot be negative", ErrInvalidConfig)
	case c.JokerCount < 0 || c.JokerCount > 2:
		return fmt.Errorf("%w: joker count must be 0, 1 or 2", ErrInvalidConfig)
	}

	if _, err := ScoringPolicyByName(c.Scoring); err != nil {
		return err
	}

	if c.PlayerCount*c.HandCount > c.Recipe().Composition().Size() {
		return fmt.Errorf("%w: deck too small to deal %d hands of %d", ErrInvalidConfig, c.PlayerCount, c.HandCount)
	}

	return nil
}

// Recipe is the deck recipe for this rule set
func (c GameConfig) Recipe() cards.Recipe {
	return cards.Recipe{
		SpecialCopies: c.SpecialCopies,
		Jokers:        c.JokerCount,
	}
}
