package cards

import (
	"errors"
	"fmt"
)

// ErrBadIndex is returned when a selection refers outside the stack or repeats an index.
var ErrBadIndex = errors.New("invalid card index")

// Stack represents multiple cards
type Stack []Card

// NewStack creates a new stack with the given cards
func NewStack(cards ...Card) Stack {
	return cards
}

// Add appends cards to the stack
func (s *Stack) Add(cards ...Card) {
	*s = append(*s, cards...)
}

// Pick returns the cards at the given indices, in selection order, without modifying the stack.
func (s Stack) Pick(indices []int) (Stack, error) {
	seen := make(map[int]bool, len(indices))
	picked := make(Stack, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s) {
			return nil, fmt.Errorf("%w: %d", ErrBadIndex, i)
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: %d selected twice", ErrBadIndex, i)
		}
		seen[i] = true
		picked = append(picked, s[i])
	}
	return picked, nil
}

// RemoveAt removes the cards at the given indices and returns them.
// The remaining cards keep their relative order.
func (s *Stack) RemoveAt(indices []int) (Stack, error) {
	picked, err := s.Pick(indices)
	if err != nil {
		return nil, err
	}

	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}

	kept := make(Stack, 0, len(*s)-len(indices))
	for i, c := range *s {
		if !drop[i] {
			kept = append(kept, c)
		}
	}
	*s = kept

	return picked, nil
}

// Strings renders every card with String
func (s Stack) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.String()
	}
	return out
}

// Specials returns the special cards of the stack
func (s Stack) Specials() Stack {
	var out Stack
	for _, c := range s {
		if c.IsSpecial() {
			out = append(out, c)
		}
	}
	return out
}

// Numerics returns the numeric cards of the stack
func (s Stack) Numerics() Stack {
	var out Stack
	for _, c := range s {
		if !c.IsSpecial() {
			out = append(out, c)
		}
	}
	return out
}

// Sum adds up the numeric values of the stack. Specials count for nothing.
func (s Stack) Sum() int {
	total := 0
	for _, c := range s {
		if v, ok := c.NumericValue(); ok {
			total += v
		}
	}
	return total
}

// Count returns how many cards of the stack equal card
func (s Stack) Count(card Card) int {
	n := 0
	for _, c := range s {
		if c.Equals(card) {
			n++
		}
	}
	return n
}
