// internal/pile/stack.go
package pile

import (
	"github.com/jason-s-yu/fourrow/internal/models"
)

// Kind tags the concrete variant behind a Pile.
type Kind int

const (
	KindStack Kind = iota
	KindFoundation
	KindColumn
	KindFreeCell
	KindStock
	KindWaste
)

func (k Kind) String() string {
	switch k {
	case KindFoundation:
		return "foundation"
	case KindColumn:
		return "column"
	case KindFreeCell:
		return "cell"
	case KindStock:
		return "stock"
	case KindWaste:
		return "waste"
	}
	return "stack"
}

// Pile is the capability set shared by every card receptacle on the board.
//
// Push appends a card only when CanAccept allows it; a rejected card is
// returned to the caller untouched. PushRun drains a run from its lead card
// and stops at the first rejection without rolling back, so callers check
// CanAcceptRun first.
type Pile interface {
	Kind() Kind
	Len() int
	Empty() bool
	Cards() []models.Card
	CardAt(i int) (models.Card, bool)
	Peek() (models.Card, bool)
	Pop() (models.Card, bool)
	Push(card models.Card) (models.Card, bool)
	PushRun(run *Stack) *Stack
	CanAccept(card models.Card) bool
	CanAcceptRun(run *Stack) bool
	AvailableRun() (*Stack, bool)
	SubStackFrom(card models.Card) *Stack
	SubStackTop(n int) *Stack
	Take(n int) *Stack
	Lowlight()
	Reset(cards []models.Card)
}

// Stack is an ordered run of cards, index 0 at the bottom. On its own it is
// the transit container for runs being moved: Push always appends, while
// CanAccept and CanAcceptRun report false so a bare Stack is never a move
// destination. The board's piles embed it and override the rules.
type Stack struct {
	cards []models.Card
}

// NewStack returns a stack holding cards bottom-to-top.
func NewStack(cards ...models.Card) *Stack {
	s := &Stack{}
	s.cards = append(s.cards, cards...)
	return s
}

func (s *Stack) Kind() Kind  { return KindStack }
func (s *Stack) Len() int    { return len(s.cards) }
func (s *Stack) Empty() bool { return len(s.cards) == 0 }

// Cards returns a copy, bottom first.
func (s *Stack) Cards() []models.Card {
	out := make([]models.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// CardAt returns the card at index i counted from the bottom.
func (s *Stack) CardAt(i int) (models.Card, bool) {
	if i < 0 || i >= len(s.cards) {
		return models.Card{}, false
	}
	return s.cards[i], true
}

func (s *Stack) Peek() (models.Card, bool) {
	if len(s.cards) == 0 {
		return models.Card{}, false
	}
	return s.cards[len(s.cards)-1], true
}

// Lead is the bottom card: for a run, the card that must fit the destination.
func (s *Stack) Lead() (models.Card, bool) {
	if len(s.cards) == 0 {
		return models.Card{}, false
	}
	return s.cards[0], true
}

func (s *Stack) Pop() (models.Card, bool) {
	if len(s.cards) == 0 {
		return models.Card{}, false
	}
	c := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	return c, true
}

func (s *Stack) Push(card models.Card) (models.Card, bool) {
	s.cards = append(s.cards, card)
	return card, true
}

func (s *Stack) PushRun(run *Stack) *Stack { return drain(s, run) }

func (s *Stack) CanAccept(models.Card) bool { return false }

func (s *Stack) CanAcceptRun(*Stack) bool { return false }

func (s *Stack) AvailableRun() (*Stack, bool) { return nil, false }

// Index returns the position of the last occurrence of card, or -1.
func (s *Stack) Index(card models.Card) int {
	for i := len(s.cards) - 1; i >= 0; i-- {
		if s.cards[i].Same(card) {
			return i
		}
	}
	return -1
}

// SubStackFrom copies every card from card to the top. The originals stay in
// place but are highlighted. An absent card yields an empty stack.
func (s *Stack) SubStackFrom(card models.Card) *Stack {
	idx := s.Index(card)
	if idx < 0 {
		return NewStack()
	}
	return s.copyFrom(idx)
}

// SubStackTop copies the top n cards; n outside 1..Len yields an empty stack.
func (s *Stack) SubStackTop(n int) *Stack {
	if n <= 0 || n > len(s.cards) {
		return NewStack()
	}
	return s.copyFrom(len(s.cards) - n)
}

func (s *Stack) copyFrom(idx int) *Stack {
	out := &Stack{cards: make([]models.Card, 0, len(s.cards)-idx)}
	for i := idx; i < len(s.cards); i++ {
		c := s.cards[i]
		c.Highlighted = false
		out.cards = append(out.cards, c)
		s.cards[i].Highlighted = true
	}
	return out
}

// Lowlight clears the highlight left by a sub-stack preview.
func (s *Stack) Lowlight() {
	for i := range s.cards {
		s.cards[i].Highlighted = false
	}
}

// Reset replaces the contents without any legality checks. Used for dealing
// and for restoring snapshots.
func (s *Stack) Reset(cards []models.Card) {
	s.cards = append(s.cards[:0:0], cards...)
}

// Take removes the top n cards in one step and returns them bottom-first.
// It is the removal half of a validated move.
func (s *Stack) Take(n int) *Stack {
	if n <= 0 || n > len(s.cards) {
		return NewStack()
	}
	idx := len(s.cards) - n
	out := NewStack(s.cards[idx:]...)
	s.cards = s.cards[:idx]
	return out
}

type pusher interface {
	Push(card models.Card) (models.Card, bool)
}

// drain moves cards from the run's lead upward into dst until one is refused.
func drain(dst pusher, run *Stack) *Stack {
	for len(run.cards) > 0 {
		if _, ok := dst.Push(run.cards[0]); !ok {
			break
		}
		run.cards = run.cards[1:]
	}
	return run
}

// IsDifferentColor reports whether the two cards are of opposite colors.
func IsDifferentColor(a, b models.Card) bool { return a.Color() != b.Color() }

// IsOneLess reports whether a ranks exactly one below b.
func IsOneLess(a, b models.Card) bool { return a.Rank()+1 == b.Rank() }

func IsSameSuit(a, b models.Card) bool { return a.Suit() == b.Suit() }

// IsRun reports whether cards, bottom first, descend by one with alternating
// colors. Empty and single-card slices are runs.
func IsRun(cards []models.Card) bool {
	for i := 0; i+1 < len(cards); i++ {
		if !IsDifferentColor(cards[i], cards[i+1]) || !IsOneLess(cards[i+1], cards[i]) {
			return false
		}
	}
	return true
}
