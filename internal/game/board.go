// internal/game/board.go
package game

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/sirupsen/logrus"
)

const (
	// NumColumns and NumFoundations are fixed by the layout.
	NumColumns     = 4
	NumFoundations = 4
	// DefaultCells is the number of free cells in a standard game.
	DefaultCells = 4
	// ColumnDeal is how many cards each column receives at the start.
	ColumnDeal = 5
)

var (
	// ErrIllegalMove is returned when a destination refuses the moved cards.
	// The board is left unchanged.
	ErrIllegalMove = errors.New("illegal move")
	// ErrUnknownPile is returned for a pile id the board does not have.
	ErrUnknownPile = errors.New("unknown pile")
)

// PileID addresses one pile on the board.
type PileID struct {
	Kind  pile.Kind
	Index int
}

var (
	StockID = PileID{Kind: pile.KindStock}
	WasteID = PileID{Kind: pile.KindWaste}
)

func FoundationID(i int) PileID { return PileID{Kind: pile.KindFoundation, Index: i} }
func ColumnID(i int) PileID     { return PileID{Kind: pile.KindColumn, Index: i} }
func CellID(i int) PileID       { return PileID{Kind: pile.KindFreeCell, Index: i} }

// String renders the id as "stock", "waste", "foundation-2", "column-0" or "cell-3".
func (id PileID) String() string {
	switch id.Kind {
	case pile.KindStock, pile.KindWaste:
		return id.Kind.String()
	}
	return id.Kind.String() + "-" + strconv.Itoa(id.Index)
}

// ParsePileID reads the String form back.
func ParsePileID(s string) (PileID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "stock":
		return StockID, nil
	case "waste":
		return WasteID, nil
	}
	name, idx, ok := strings.Cut(s, "-")
	if !ok {
		return PileID{}, fmt.Errorf("%w: %q", ErrUnknownPile, s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return PileID{}, fmt.Errorf("%w: %q", ErrUnknownPile, s)
	}
	switch name {
	case "foundation":
		return FoundationID(n), nil
	case "column":
		return ColumnID(n), nil
	case "cell":
		return CellID(n), nil
	}
	return PileID{}, fmt.Errorf("%w: %q", ErrUnknownPile, s)
}

func (id PileID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *PileID) UnmarshalText(b []byte) error {
	v, err := ParsePileID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// MoveResult describes an applied move.
type MoveResult struct {
	From      PileID        `json:"from"`
	To        PileID        `json:"to"`
	Cards     []models.Card `json:"cards"`
	SourceLen int           `json:"sourceLen"`
	DestLen   int           `json:"destLen"`
	Won       bool          `json:"won"`
}

// DrawResult describes a call to Draw.
type DrawResult struct {
	Outcome           pile.DrawOutcome `json:"-"`
	Card              *models.Card     `json:"card,omitempty"`
	StockLen          int              `json:"stockLen"`
	WasteLen          int              `json:"wasteLen"`
	ThroughsRemaining int              `json:"throughsRemaining"`
}

// Board owns the piles of one game and routes every move between them.
// It is not safe for concurrent use; Session serializes access.
type Board struct {
	rules       models.Rules
	deck        *deck.Deck
	stock       *pile.Stock
	waste       *pile.Waste
	foundations [NumFoundations]*pile.Foundation
	columns     [NumColumns]*pile.Column
	cells       []*pile.FreeCell

	history []snapshot
	moves   int
	logger  logrus.FieldLogger
}

// NewBoard deals d onto a fresh board. A nil logger discards output.
func NewBoard(rules models.Rules, d *deck.Deck, cells int, logger logrus.FieldLogger) *Board {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if cells < 0 {
		cells = DefaultCells
	}
	waste := pile.NewWaste(rules.DrawCount)
	b := &Board{
		rules:  rules,
		deck:   d,
		waste:  waste,
		stock:  pile.NewStock(waste, rules),
		cells:  make([]*pile.FreeCell, cells),
		logger: logger,
	}
	for i, suit := range models.Suits {
		b.foundations[i] = pile.NewFoundation(suit)
	}
	for i := range b.columns {
		b.columns[i] = pile.NewColumn()
	}
	for i := range b.cells {
		b.cells[i] = pile.NewFreeCell()
	}
	b.deal()
	return b
}

// deal gives each column five face-up cards from the front of the deck and
// loads the rest into the stock, so the last card of the deck is drawn first.
func (b *Board) deal() {
	cards := b.deck.Cards()
	for i, col := range b.columns {
		run := make([]models.Card, 0, ColumnDeal)
		for _, c := range cards[i*ColumnDeal : (i+1)*ColumnDeal] {
			c.FaceUp = true
			run = append(run, c)
		}
		col.Reset(run)
	}
	b.stock.Load(cards[NumColumns*ColumnDeal:])
}

func (b *Board) Rules() models.Rules { return b.rules }
func (b *Board) Deck() *deck.Deck    { return b.deck }
func (b *Board) Stock() *pile.Stock  { return b.stock }
func (b *Board) Waste() *pile.Waste  { return b.waste }
func (b *Board) NumCells() int       { return len(b.cells) }

// Moves counts applied moves and draws; undo takes one back.
func (b *Board) Moves() int { return b.moves }

// Pile looks up a pile by id.
func (b *Board) Pile(id PileID) (pile.Pile, error) {
	switch id.Kind {
	case pile.KindStock:
		return b.stock, nil
	case pile.KindWaste:
		return b.waste, nil
	case pile.KindFoundation:
		if id.Index >= 0 && id.Index < len(b.foundations) {
			return b.foundations[id.Index], nil
		}
	case pile.KindColumn:
		if id.Index >= 0 && id.Index < len(b.columns) {
			return b.columns[id.Index], nil
		}
	case pile.KindFreeCell:
		if id.Index >= 0 && id.Index < len(b.cells) {
			return b.cells[id.Index], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPile, id)
}

// PileIDs lists every pile on the board in layout order.
func (b *Board) PileIDs() []PileID {
	ids := []PileID{StockID, WasteID}
	for i := range b.foundations {
		ids = append(ids, FoundationID(i))
	}
	for i := range b.columns {
		ids = append(ids, ColumnID(i))
	}
	for i := range b.cells {
		ids = append(ids, CellID(i))
	}
	return ids
}

// AvailableRun returns the movable run on top of a pile; empty when nothing
// can be picked up.
func (b *Board) AvailableRun(id PileID) (*pile.Stack, error) {
	p, err := b.Pile(id)
	if err != nil {
		return nil, err
	}
	if run, ok := p.AvailableRun(); ok {
		return run, nil
	}
	return pile.NewStack(), nil
}

// IsWon reports whether all 52 cards sit on the foundations.
func (b *Board) IsWon() bool {
	n := 0
	for _, f := range b.foundations {
		n += f.Len()
	}
	return n == deck.Size
}

func (b *Board) DeckThroughsRemaining() int { return b.stock.ThroughsRemaining() }

// AttemptMove moves cards from one pile to another. With card nil the board
// picks the unit: the top card, or for a column the part of its available
// run the destination takes. With card set, that card and everything above
// it move, and it must be inside the available run.
func (b *Board) AttemptMove(from PileID, card *models.Card, to PileID) (MoveResult, error) {
	src, err := b.Pile(from)
	if err != nil {
		return MoveResult{}, err
	}
	dst, err := b.Pile(to)
	if err != nil {
		return MoveResult{}, err
	}
	if from == to || from.Kind == pile.KindStock {
		return MoveResult{}, fmt.Errorf("%w: %s to %s", ErrIllegalMove, from, to)
	}

	n := b.unitSize(src, card, dst)
	if n == 0 {
		return MoveResult{}, fmt.Errorf("%w: %s to %s", ErrIllegalMove, from, to)
	}

	b.record()
	unit := src.Take(n)
	moved := unit.Cards()
	if rest := dst.PushRun(unit); !rest.Empty() {
		b.restore(b.popHistory())
		return MoveResult{}, fmt.Errorf("%w: %s to %s", ErrIllegalMove, from, to)
	}
	src.Lowlight()
	b.moves++

	res := MoveResult{
		From:      from,
		To:        to,
		Cards:     moved,
		SourceLen: src.Len(),
		DestLen:   dst.Len(),
		Won:       b.IsWon(),
	}
	b.logger.WithFields(logrus.Fields{
		"from":  from.String(),
		"to":    to.String(),
		"cards": len(moved),
	}).Debug("move applied")
	return res, nil
}

// unitSize resolves how many cards from the top of src make up the move, or
// 0 when no legal unit exists.
func (b *Board) unitSize(src pile.Pile, card *models.Card, dst pile.Pile) int {
	run, ok := src.AvailableRun()
	if !ok {
		return 0
	}
	if card != nil {
		idx := run.Index(*card)
		if idx < 0 {
			return 0
		}
		if src.Kind() != pile.KindColumn && idx != run.Len()-1 {
			return 0
		}
		n := run.Len() - idx
		if accepts(dst, run.SubStackTop(n)) {
			return n
		}
		return 0
	}
	for n := run.Len(); n >= 1; n-- {
		if accepts(dst, run.SubStackTop(n)) {
			return n
		}
	}
	return 0
}

// accepts applies the single-card rule to one card and the run rule otherwise.
func accepts(dst pile.Pile, unit *pile.Stack) bool {
	if unit.Len() == 1 {
		c, _ := unit.Lead()
		return dst.CanAccept(c)
	}
	return dst.CanAcceptRun(unit)
}

// Draw deals from the stock, or redeals the waste once the stock is empty.
// Idle and exhausted draws leave no undo step.
func (b *Board) Draw() DrawResult {
	b.record()
	card, out := b.stock.Draw()
	switch out {
	case pile.DrawDealt, pile.DrawRedealt:
		b.moves++
	default:
		b.popHistory()
	}

	res := DrawResult{
		Outcome:           out,
		StockLen:          b.stock.Len(),
		WasteLen:          b.waste.Len(),
		ThroughsRemaining: b.stock.ThroughsRemaining(),
	}
	if out == pile.DrawDealt {
		res.Card = &card
	}
	b.logger.WithFields(logrus.Fields{
		"outcome":  out.String(),
		"throughs": b.stock.Throughs(),
	}).Debug("draw")
	return res
}
