// internal/deck/deck.go
package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/sirupsen/logrus"
)

// Size is the number of cards in a standard deck.
const Size = 52

// ErrMalformedDeck is returned when a stored ordering cannot be rebuilt.
var ErrMalformedDeck = errors.New("malformed deck data")

// Deck is one game's ordering of the 52 cards. Back is a cosmetic card-back
// style carried for the presentation layer.
type Deck struct {
	back  int
	cards []models.Card
}

// New returns a freshly shuffled deck. A nil r uses a time-seeded source.
func New(back int, r *rand.Rand) *Deck {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{back: back, cards: Standard()}
	r.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Standard returns the 52 cards in ordinal order.
func Standard() []models.Card {
	cards := make([]models.Card, 0, Size)
	for _, suit := range models.Suits {
		for rank := models.Ace; rank <= models.King; rank++ {
			cards = append(cards, models.MustCard(suit, rank))
		}
	}
	return cards
}

// FromOrdinals rebuilds a deck from a stored ordering. The list must hold
// each ordinal 1-52 exactly once.
func FromOrdinals(back int, ordinals []int) (*Deck, error) {
	if len(ordinals) != Size {
		return nil, fmt.Errorf("%w: expected %d cards, got %d", ErrMalformedDeck, Size, len(ordinals))
	}
	seen := make(map[int]bool, Size)
	cards := make([]models.Card, 0, Size)
	for i, n := range ordinals {
		c, err := models.CardFromOrdinal(n)
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %v", ErrMalformedDeck, i, err)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: ordinal %d repeated", ErrMalformedDeck, n)
		}
		seen[n] = true
		cards = append(cards, c)
	}
	return &Deck{back: back, cards: cards}, nil
}

// Load rebuilds a deck from ordinals, or shuffles a new one when ordinals is
// empty. Malformed data is logged and replaced by a random deck; the returned
// bool reports whether that fallback happened.
func Load(back int, ordinals []int, r *rand.Rand, logger logrus.FieldLogger) (*Deck, bool) {
	if len(ordinals) == 0 {
		return New(back, r), false
	}
	d, err := FromOrdinals(back, ordinals)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Problem loading saved deck, starting new game")
		}
		return New(back, r), true
	}
	return d, false
}

func (d *Deck) Back() int { return d.back }

func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the ordering, index 0 first.
func (d *Deck) Cards() []models.Card {
	out := make([]models.Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Ordinals is the serializable form accepted by FromOrdinals.
func (d *Deck) Ordinals() []int {
	out := make([]int, len(d.cards))
	for i, c := range d.cards {
		out[i] = c.Ordinal()
	}
	return out
}
