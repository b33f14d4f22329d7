package pile

import "github.com/jason-s-yu/fourrow/internal/models"

// FreeCell holds a single card of any kind.
type FreeCell struct {
	Stack
}

func NewFreeCell() *FreeCell { return &FreeCell{} }

func (f *FreeCell) Kind() Kind { return KindFreeCell }

func (f *FreeCell) CanAccept(models.Card) bool { return f.Empty() }

func (f *FreeCell) CanAcceptRun(*Stack) bool { return false }

func (f *FreeCell) Push(card models.Card) (models.Card, bool) {
	if !f.CanAccept(card) {
		return models.Card{}, false
	}
	card.FaceUp = true
	card.Origin = models.OriginNone
	return f.Stack.Push(card)
}

func (f *FreeCell) PushRun(run *Stack) *Stack { return drain(f, run) }

func (f *FreeCell) AvailableRun() (*Stack, bool) {
	top, ok := f.Peek()
	if !ok {
		return nil, false
	}
	return NewStack(top), true
}
