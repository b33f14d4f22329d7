package pile

import "github.com/jason-s-yu/fourrow/internal/models"

// Foundation builds one suit upward from Ace to King. Filling all four is
// the only way to win.
type Foundation struct {
	Stack
	suit models.Suit
}

func NewFoundation(suit models.Suit) *Foundation {
	return &Foundation{suit: suit}
}

func (f *Foundation) Kind() Kind        { return KindFoundation }
func (f *Foundation) Suit() models.Suit { return f.suit }

// Complete reports whether the foundation holds Ace through King.
func (f *Foundation) Complete() bool { return f.Len() == int(models.King) }

func (f *Foundation) CanAccept(card models.Card) bool {
	if card.Suit() != f.suit {
		return false
	}
	top, ok := f.Peek()
	if !ok {
		return card.Rank() == models.Ace
	}
	return IsOneLess(top, card)
}

// CanAcceptRun is always false: foundations take one card at a time.
func (f *Foundation) CanAcceptRun(*Stack) bool { return false }

func (f *Foundation) Push(card models.Card) (models.Card, bool) {
	if !f.CanAccept(card) {
		return models.Card{}, false
	}
	card.FaceUp = true
	card.Origin = models.OriginNone
	return f.Stack.Push(card)
}

func (f *Foundation) PushRun(run *Stack) *Stack { return drain(f, run) }

// AvailableRun is the top card, which may be played back onto a column.
func (f *Foundation) AvailableRun() (*Stack, bool) {
	top, ok := f.Peek()
	if !ok {
		return nil, false
	}
	return NewStack(top), true
}
