package cards

import (
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// Composition is a multiset of cards keyed by (suit, rank)
type Composition map[Card]int

// Recipe describes the canonical content of a deck
type Recipe struct {
	SpecialCopies int // copies of each of j, q and k
	Jokers        int // 0, 1 (suitless) or 2 (black + color)
}

// Composition returns the canonical multiset for the recipe:
// 1..10 in the four suits, SpecialCopies of each of j/q/k and the jokers.
func (r Recipe) Composition() Composition {
	comp := make(Composition)
	for _, suit := range StandardSuits {
		for n := 1; n <= 10; n++ {
			comp[Card{Suit: suit, Rank: rankOf(n)}]++
		}
	}
	for _, rank := range []Rank{Jack, Queen, King} {
		for i := 0; i < r.SpecialCopies; i++ {
			comp[Card{Rank: rank}]++
		}
	}
	switch {
	case r.Jokers == 1:
		comp[Card{Rank: Joker}]++
	case r.Jokers >= 2:
		comp[Card{Suit: Black, Rank: Joker}]++
		comp[Card{Suit: Color, Rank: Joker}]++
	}
	return comp
}

// Size is the total number of cards in the composition
func (c Composition) Size() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Minus returns a copy of c with every card of the stack taken out once.
// Counts never drop below zero.
func (c Composition) Minus(stack Stack) Composition {
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, card := range stack {
		if out[card] > 0 {
			out[card]--
		}
	}
	return out
}

// Stack expands the composition into cards in a stable order
func (c Composition) Stack() Stack {
	keys := make([]Card, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Suit != keys[j].Suit {
			return keys[i].Suit < keys[j].Suit
		}
		return keys[i].Rank < keys[j].Rank
	})

	stack := make(Stack, 0, c.Size())
	for _, k := range keys {
		for i := 0; i < c[k]; i++ {
			stack = append(stack, k)
		}
	}
	return stack
}

// Tally counts the cards of a stack by (suit, rank)
func Tally(stack Stack) Composition {
	comp := make(Composition)
	for _, c := range stack {
		comp[c]++
	}
	return comp
}

// InPlay reports every card that currently lives outside the deck
// (hands, score piles, the live bet history).
type InPlay interface {
	CardsInPlay() Stack
}

// Deck is the draw pile of one game
type Deck struct {
	Cards  Stack
	recipe Recipe
	source InPlay
	rng    *rand.Rand
}

// NewDeck creates a deck built from the recipe and shuffled with rng.
// A nil rng seeds one from the clock.
func NewDeck(recipe Recipe, rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{recipe: recipe, rng: rng}
	d.Build()
	return d
}

// AttachSource wires the owner used to rebuild the deck once it runs dry.
func (d *Deck) AttachSource(source InPlay) {
	d.source = source
}

// Build fills the deck with the full canonical composition and shuffles it
func (d *Deck) Build() {
	d.Cards = d.recipe.Composition().Stack()
	d.Shuffle()
}

// Shuffle permutes the whole deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Len is the number of cards left to draw
func (d *Deck) Len() int {
	return len(d.Cards)
}

// Composition is the canonical multiset this deck is built from
func (d *Deck) Composition() Composition {
	return d.recipe.Composition()
}

// Draw takes up to n cards from the top. When the deck runs dry it is rebuilt from
// the canonical composition minus the cards in play; if that is empty too the result is short.
func (d *Deck) Draw(n int) Stack {
	drawn := make(Stack, 0, n)
	for len(drawn) < n {
		if len(d.Cards) == 0 {
			d.refresh(drawn)
			if len(d.Cards) == 0 {
				break
			}
		}
		top := len(d.Cards) - 1
		drawn = append(drawn, d.Cards[top])
		d.Cards = d.Cards[:top]
	}
	return drawn
}

// Refresh replaces the deck with whatever the canonical composition says is not in play.
func (d *Deck) Refresh() {
	d.refresh(nil)
}

// refresh treats held as in play too: those are cards already drawn by the current call.
func (d *Deck) refresh(held Stack) {
	inPlay := append(Stack{}, held...)
	if d.source != nil {
		inPlay = append(inPlay, d.source.CardsInPlay()...)
	}
	d.Cards = d.recipe.Composition().Minus(inPlay).Stack()
	d.Shuffle()
}

// Return puts cards back and reshuffles the whole deck
func (d *Deck) Return(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	d.Cards = append(d.Cards, cards...)
	d.Shuffle()
}

func rankOf(n int) Rank {
	return Rank(strconv.Itoa(n))
}
