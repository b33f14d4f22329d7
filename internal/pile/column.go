package pile

import "github.com/jason-s-yu/fourrow/internal/models"

// Column is a tableau pile. It builds down in alternating colors and only a
// King may start an empty column.
type Column struct {
	Stack
}

func NewColumn() *Column { return &Column{} }

func (c *Column) Kind() Kind { return KindColumn }

func (c *Column) CanAccept(card models.Card) bool {
	top, ok := c.Peek()
	if !ok {
		return card.Rank() == models.King
	}
	return IsDifferentColor(card, top) && IsOneLess(card, top)
}

// CanAcceptRun checks only the run's lead card against the current top.
func (c *Column) CanAcceptRun(run *Stack) bool {
	lead, ok := run.Lead()
	if !ok {
		return false
	}
	return c.CanAccept(lead)
}

func (c *Column) Push(card models.Card) (models.Card, bool) {
	if !c.CanAccept(card) {
		return models.Card{}, false
	}
	card.FaceUp = true
	card.Origin = models.OriginNone
	return c.Stack.Push(card)
}

func (c *Column) PushRun(run *Stack) *Stack { return drain(c, run) }

// AvailableRun is the longest valid run that ends at the top card, found by
// walking down from the top until the first break.
func (c *Column) AvailableRun() (*Stack, bool) {
	n := len(c.cards)
	if n == 0 {
		return nil, false
	}
	start := n - 1
	for start > 0 {
		below, above := c.cards[start-1], c.cards[start]
		if !below.FaceUp || !IsDifferentColor(above, below) || !IsOneLess(above, below) {
			break
		}
		start--
	}
	return NewStack(c.cards[start:]...), true
}

// Selectable reports whether card sits inside the available run and can be
// grabbed together with everything above it.
func (c *Column) Selectable(card models.Card) bool {
	run, ok := c.AvailableRun()
	if !ok {
		return false
	}
	return run.Index(card) >= 0
}
