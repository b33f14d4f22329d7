package pile

import "github.com/jason-s-yu/fourrow/internal/models"

// StockState summarizes where the stock is in its draw/redeal cycle.
type StockState int

const (
	StockHasCards StockState = iota
	StockRedealable
	StockLocked
)

func (s StockState) String() string {
	switch s {
	case StockHasCards:
		return "has_cards"
	case StockRedealable:
		return "exhausted_redealable"
	}
	return "exhausted_locked"
}

// DrawOutcome reports what a call to Draw did.
type DrawOutcome int

const (
	// DrawDealt moved cards onto the waste.
	DrawDealt DrawOutcome = iota
	// DrawRedealt turned the waste back over; draw again to deal.
	DrawRedealt
	// DrawIdle found nothing to deal or redeal.
	DrawIdle
	// DrawExhausted means the deck-through limit has been reached.
	DrawExhausted
)

func (o DrawOutcome) String() string {
	switch o {
	case DrawDealt:
		return "dealt"
	case DrawRedealt:
		return "redealt"
	case DrawIdle:
		return "idle"
	}
	return "exhausted"
}

// Stock is the face-down draw pile. Drawing moves one or three cards onto
// its waste; once empty it may turn the waste back over a limited number of
// times. The first pass counts as pass one.
type Stock struct {
	Stack
	waste      *Waste
	drawCount  int
	limit      int
	throughs   int
	redealable bool
}

func NewStock(waste *Waste, rules models.Rules) *Stock {
	s := &Stock{waste: waste, throughs: 1, redealable: true}
	s.SetRules(rules)
	return s
}

func (s *Stock) Kind() Kind { return KindStock }

// SetRules sets the draw count on the stock and its waste and recomputes the
// deck-through limit.
func (s *Stock) SetRules(rules models.Rules) {
	s.drawCount = rules.DrawCount
	if s.drawCount != 3 {
		s.drawCount = 1
	}
	s.limit = rules.ThroughLimit()
	s.waste.SetDrawCount(s.drawCount)
}

func (s *Stock) Waste() *Waste    { return s.waste }
func (s *Stock) DrawCount() int   { return s.drawCount }
func (s *Stock) Limit() int       { return s.limit }
func (s *Stock) Throughs() int    { return s.throughs }
func (s *Stock) Redealable() bool { return s.redealable }

// ThroughsRemaining is how many more redeals the limit allows.
func (s *Stock) ThroughsRemaining() int {
	if r := s.limit - s.throughs; r > 0 {
		return r
	}
	return 0
}

// SetProgress restores the pass counter and lock flag from a snapshot.
func (s *Stock) SetProgress(throughs int, redealable bool) {
	s.throughs = throughs
	s.redealable = redealable
}

// ResetProgress starts a new game's pass count.
func (s *Stock) ResetProgress() {
	s.throughs = 1
	s.redealable = true
}

func (s *Stock) State() StockState {
	switch {
	case !s.Empty():
		return StockHasCards
	case s.redealable && s.throughs < s.limit:
		return StockRedealable
	}
	return StockLocked
}

// CanDraw reports whether Draw would change anything.
func (s *Stock) CanDraw() bool {
	if !s.Empty() {
		return true
	}
	return s.redealable && s.throughs < s.limit && !s.waste.Empty()
}

// Load seeds the stock face-down; the last card is on top.
func (s *Stock) Load(cards []models.Card) {
	s.Stack.Reset(nil)
	for _, c := range cards {
		c.FaceUp = false
		c.Highlighted = false
		c.Origin = models.OriginNone
		s.Stack.Push(c)
	}
}

func (s *Stock) CanAccept(models.Card) bool { return false }

func (s *Stock) CanAcceptRun(*Stack) bool { return false }

func (s *Stock) Push(models.Card) (models.Card, bool) { return models.Card{}, false }

func (s *Stock) PushRun(run *Stack) *Stack { return run }

// Draw deals up to drawCount cards face-up onto the waste, in the order they
// come off the stock, and returns the last one. With the stock empty it
// redeals the waste if the limit allows, or locks once the limit is reached.
func (s *Stock) Draw() (models.Card, DrawOutcome) {
	if !s.Empty() {
		n := s.drawCount
		if n > s.Len() {
			n = s.Len()
		}
		run := NewStack()
		for i := 0; i < n; i++ {
			c, _ := s.Stack.Pop()
			c.FaceUp = true
			c.Origin = models.OriginStock
			run.cards = append(run.cards, c)
		}
		last := run.cards[len(run.cards)-1]
		s.waste.PushRun(run)
		return last, DrawDealt
	}

	if s.redealable && s.throughs < s.limit && !s.waste.Empty() {
		for !s.waste.Empty() {
			c, _ := s.waste.Pop()
			c.FaceUp = false
			c.Highlighted = false
			c.Origin = models.OriginStock
			s.Stack.Push(c)
		}
		s.throughs++
		return models.Card{}, DrawRedealt
	}

	if s.throughs >= s.limit {
		s.redealable = false
		return models.Card{}, DrawExhausted
	}
	return models.Card{}, DrawIdle
}

// UndoLastDeal reverses the most recent redeal: every stock card goes back
// onto the waste face-up, the pass counter drops by one and redealing is
// enabled again. It reports false when no redeal has happened.
func (s *Stock) UndoLastDeal() bool {
	if s.throughs <= 1 {
		return false
	}
	for !s.Empty() {
		c, _ := s.Stack.Pop()
		s.waste.put(c)
	}
	s.waste.SetVisible(0)
	s.throughs--
	s.redealable = true
	return true
}
