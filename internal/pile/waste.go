package pile

import "github.com/jason-s-yu/fourrow/internal/models"

// Waste receives the cards drawn from the stock. It only ever takes cards
// whose origin is the stock, so the playing field cannot dump cards here.
//
// visible counts how many cards of the most recent draw are still fanned
// out; in draw-three it decides which cards of the batch are shown, and only
// the top card is ever playable.
type Waste struct {
	Stack
	drawCount int
	visible   int
}

func NewWaste(drawCount int) *Waste {
	return &Waste{drawCount: drawCount}
}

func (w *Waste) Kind() Kind { return KindWaste }

func (w *Waste) DrawCount() int { return w.drawCount }

func (w *Waste) SetDrawCount(n int) { w.drawCount = n }

// Visible is the number of cards from the last draw still exposed.
func (w *Waste) Visible() int { return w.visible }

// SetVisible restores the exposed count, clamped to the pile length.
func (w *Waste) SetVisible(n int) {
	switch {
	case n < 0:
		n = 0
	case n > w.Len():
		n = w.Len()
	}
	w.visible = n
}

// VisibleCards returns the fanned cards of the last draw, bottom first.
func (w *Waste) VisibleCards() []models.Card {
	n := w.visible
	if n > w.Len() {
		n = w.Len()
	}
	return w.Cards()[w.Len()-n:]
}

func (w *Waste) CanAccept(card models.Card) bool {
	return card.Origin == models.OriginStock
}

// CanAcceptRun requires every card to come from the stock; in draw-one mode
// only a single card may arrive at once.
func (w *Waste) CanAcceptRun(run *Stack) bool {
	if run == nil || run.Empty() {
		return false
	}
	if w.drawCount == 1 && run.Len() != 1 {
		return false
	}
	for _, c := range run.cards {
		if !w.CanAccept(c) {
			return false
		}
	}
	return true
}

func (w *Waste) Push(card models.Card) (models.Card, bool) {
	if !w.CanAccept(card) {
		return models.Card{}, false
	}
	if w.drawCount == 1 {
		w.visible = 0
	}
	return w.add(card), true
}

// PushRun takes a whole draw at once and exposes all of it. A run the waste
// cannot accept is handed back untouched.
func (w *Waste) PushRun(run *Stack) *Stack {
	if !w.CanAcceptRun(run) {
		return run
	}
	w.visible = 0
	for _, c := range run.cards {
		w.add(c)
	}
	run.cards = run.cards[:0]
	return run
}

func (w *Waste) add(card models.Card) models.Card {
	card.FaceUp = true
	card.Origin = models.OriginNone
	w.visible++
	w.Stack.Push(card)
	return card
}

func (w *Waste) Pop() (models.Card, bool) {
	c, ok := w.Stack.Pop()
	if ok && w.visible > 0 {
		w.visible--
	}
	return c, ok
}

// Take removes the top n cards, shrinking the exposed count with them.
func (w *Waste) Take(n int) *Stack {
	run := w.Stack.Take(n)
	w.visible -= run.Len()
	if w.visible < 0 {
		w.visible = 0
	}
	return run
}

// Selectable reports whether card is the playable top card.
func (w *Waste) Selectable(card models.Card) bool {
	top, ok := w.Peek()
	return ok && top.Same(card)
}

func (w *Waste) AvailableRun() (*Stack, bool) {
	top, ok := w.Peek()
	if !ok {
		return nil, false
	}
	return NewStack(top), true
}

// Reset replaces the contents and clears the exposed count.
func (w *Waste) Reset(cards []models.Card) {
	w.Stack.Reset(cards)
	w.visible = 0
}

// put appends without the origin check, used when the stock hands cards back.
func (w *Waste) put(card models.Card) {
	card.FaceUp = true
	card.Origin = models.OriginNone
	w.Stack.Push(card)
}
