package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// CardFromString creates a card from a string representation
// e.g., "7♥" or "7h" or "7H" -> Card{Suit: Hearts, Rank: "7"}
// e.g., "J", "Q", "K" -> suitless specials
// e.g., "JOKER", "JOKER-B", "JOKER-C" -> jokers
func CardFromString(s string) (Card, error) {
	switch strings.ToUpper(s) {
	case "J":
		return Card{Rank: Jack}, nil
	case "Q":
		return Card{Rank: Queen}, nil
	case "K":
		return Card{Rank: King}, nil
	case "JOKER":
		return Card{Rank: Joker}, nil
	case "JOKER-B":
		return Card{Suit: Black, Rank: Joker}, nil
	case "JOKER-C":
		return Card{Suit: Color, Rank: Joker}, nil
	}

	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %s", s)
	}

	var suit Suit
	var rank string
	switch {
	case strings.HasSuffix(s, string(Spades)):
		suit, rank = Spades, strings.TrimSuffix(s, string(Spades))
	case strings.HasSuffix(s, string(Hearts)):
		suit, rank = Hearts, strings.TrimSuffix(s, string(Hearts))
	case strings.HasSuffix(s, string(Diamonds)):
		suit, rank = Diamonds, strings.TrimSuffix(s, string(Diamonds))
	case strings.HasSuffix(s, string(Clubs)):
		suit, rank = Clubs, strings.TrimSuffix(s, string(Clubs))
	default:
		switch s[len(s)-1:] {
		case "s", "S":
			suit = Spades
		case "h", "H":
			suit = Hearts
		case "d", "D":
			suit = Diamonds
		case "c", "C":
			suit = Clubs
		default:
			return Card{}, fmt.Errorf("invalid card suit: %s", s[len(s)-1:])
		}
		rank = s[:len(s)-1]
	}

	n, err := strconv.Atoi(rank)
	if err != nil || n < 1 || n > 10 || strconv.Itoa(n) != rank {
		return Card{}, fmt.Errorf("invalid card rank: %s", rank)
	}

	return Card{Suit: suit, Rank: Rank(rank)}, nil
}

// MustParse parses a list of shorthands and panics on the first bad one.
// Meant for fixtures.
func MustParse(shorthands ...string) Stack {
	stack := make(Stack, 0, len(shorthands))
	for _, s := range shorthands {
		c, err := CardFromString(s)
		if err != nil {
			panic(err)
		}
		stack = append(stack, c)
	}
	return stack
}

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"

	// joker variants
	Black Suit = "black"
	Color Suit = "color"

	NoSuit Suit = ""
)

// StandardSuits lists the four suits numeric cards are built from.
var StandardSuits = []Suit{Hearts, Diamonds, Clubs, Spades}

// IsRed reports whether the suit is printed in red.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds || s == Color
}

// Rank represents a card rank: "1".."10" for numeric cards or a special token
type Rank string

const (
	Jack  Rank = "j"
	Queen Rank = "q"
	King  Rank = "k"
	Joker Rank = "joker"
)

// SpecialRanks lists the ranks that carry an effect instead of a magnitude.
var SpecialRanks = []Rank{Jack, Queen, King, Joker}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// IsSpecial reports whether the card is one of j, q, k or joker
func (c Card) IsSpecial() bool {
	switch c.Rank {
	case Jack, Queen, King, Joker:
		return true
	}
	return false
}

// IsAce reports whether the card is a numeric 1
func (c Card) IsAce() bool {
	return c.Rank == "1"
}

// NumericValue returns the face value of a numeric card. The boolean is false for specials.
func (c Card) NumericValue() (int, bool) {
	if c.IsSpecial() {
		return 0, false
	}
	n, err := strconv.Atoi(string(c.Rank))
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the string representation of a card
func (c Card) String() string {
	if c.IsSpecial() {
		if c.Rank == Joker && c.Suit != NoSuit {
			return fmt.Sprintf("JOKER-%s", strings.ToUpper(string(c.Suit)[:1]))
		}
		return strings.ToUpper(string(c.Rank))
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Equals checks if two cards are equal
func (c Card) Equals(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

// Effect describes what a special card does when played. Empty for numeric cards.
func (c Card) Effect() string {
	switch c.Rank {
	case Jack:
		return "Look at an opponent's hand and discard one of their cards."
	case Queen:
		return "Reverse the raise direction for the rest of the round."
	case King:
		return "+5 while raising up, -5 while raising down."
	case Joker:
		return "Builds on the current highest value instead of standing alone."
	}
	return ""
}
