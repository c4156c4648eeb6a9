package game

import (
	rand "math/rand/v2"
)

// Deck deals prompts without replacement. Dealt prompts come back only through
// Discard, and discards are reshuffled into play once the deck runs low.
type Deck struct {
	cards    []string
	discards []string
	rng      *rand.Rand
}

// NewDeck copies the pool and shuffles it.
func NewDeck(pool []string, rng *rand.Rand) *Deck {
	d := &Deck{
		cards: append([]string(nil), pool...),
		rng:   rng,
	}
	d.shuffle(d.cards)
	return d
}

func (d *Deck) shuffle(cards []string) {
	for i := len(cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// EnsureCapacity moves the shuffled discard pile under the remaining deck when
// fewer than n prompts are left.
func (d *Deck) EnsureCapacity(n int) {
	if len(d.cards) >= n {
		return
	}
	d.shuffle(d.discards)
	d.cards = append(d.cards, d.discards...)
	d.discards = d.discards[:0]
}

// Deal removes and returns n prompts from the front of the deck. It returns
// fewer than n only when the whole pool is smaller than n.
func (d *Deck) Deal(n int) []string {
	d.EnsureCapacity(n)
	if n > len(d.cards) {
		n = len(d.cards)
	}
	hand := make([]string, n)
	copy(hand, d.cards[:n])
	d.cards = d.cards[n:]
	return hand
}

func (d *Deck) Discard(cards []string) {
	d.discards = append(d.discards, cards...)
}

func (d *Deck) Remaining() int { return len(d.cards) }

func (d *Deck) DiscardCount() int { return len(d.discards) }
