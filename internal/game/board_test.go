package game

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(t *testing.T, code string) models.Card {
	t.Helper()
	c, err := models.ParseCard(code)
	require.NoError(t, err)
	return c
}

func cards(t *testing.T, codes ...string) []models.Card {
	t.Helper()
	out := make([]models.Card, 0, len(codes))
	for _, code := range codes {
		out = append(out, card(t, code))
	}
	return out
}

func codesOf(cs []models.Card) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}

// standardBoard deals the unshuffled deck: columns hold AS-5S, 6S-TS,
// JS-2C and 3C-7C; the stock holds 8C through KD with KD on top.
func standardBoard(t *testing.T, rules models.Rules) *Board {
	t.Helper()
	std, err := deck.FromOrdinals(0, ordinalsOf(deck.Standard()))
	require.NoError(t, err)
	return NewBoard(rules, std, DefaultCells, nil)
}

func ordinalsOf(cs []models.Card) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Ordinal())
	}
	return out
}

// emptyBoard returns a board with every pile cleared, for hand-built positions.
func emptyBoard(t *testing.T, rules models.Rules) *Board {
	t.Helper()
	b := standardBoard(t, rules)
	b.stock.Load(nil)
	b.waste.Reset(nil)
	for _, c := range b.columns {
		c.Reset(nil)
	}
	return b
}

func TestPileID_RoundTrip(t *testing.T) {
	for _, id := range []PileID{StockID, WasteID, FoundationID(3), ColumnID(0), CellID(2)} {
		got, err := ParsePileID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "column-2", ColumnID(2).String())

	for _, bad := range []string{"", "column", "column-x", "tableau-1", "cell--1"} {
		_, err := ParsePileID(bad)
		assert.ErrorIs(t, err, ErrUnknownPile, bad)
	}
}

func TestBoard_Deal(t *testing.T) {
	b := standardBoard(t, models.DefaultRules())

	assert.Equal(t, []string{"AS", "2S", "3S", "4S", "5S"}, codesOf(b.columns[0].Cards()))
	assert.Equal(t, []string{"3C", "4C", "5C", "6C", "7C"}, codesOf(b.columns[3].Cards()))
	for _, col := range b.columns {
		for _, c := range col.Cards() {
			assert.True(t, c.FaceUp)
		}
	}

	assert.Equal(t, 32, b.stock.Len())
	top, _ := b.stock.Peek()
	assert.Equal(t, "KD", top.String())
	assert.False(t, top.FaceUp)
	assert.True(t, b.waste.Empty())
	assert.False(t, b.IsWon())
	assert.False(t, b.CanUndo())
}

func TestBoard_EndToEndEasyDrawOne(t *testing.T) {
	b := standardBoard(t, models.Rules{DrawCount: 1, Difficulty: models.Easy})
	require.Equal(t, 3, b.stock.Limit())
	stockSize := b.stock.Len()

	for pass := 1; pass <= 3; pass++ {
		for i := 0; i < stockSize; i++ {
			res := b.Draw()
			require.Equal(t, pile.DrawDealt, res.Outcome, "pass %d draw %d", pass, i)
		}
		assert.True(t, b.stock.Empty())
		assert.Equal(t, stockSize, b.waste.Len())

		res := b.Draw()
		if pass < 3 {
			require.Equal(t, pile.DrawRedealt, res.Outcome)
			assert.Equal(t, stockSize, b.stock.Len())
			assert.True(t, b.waste.Empty())
			assert.Equal(t, 3-pass-1, b.DeckThroughsRemaining())
			continue
		}
		assert.Equal(t, pile.DrawExhausted, res.Outcome)
	}

	assert.Equal(t, 0, b.DeckThroughsRemaining())
	before := b.Layout()
	moves := b.Moves()
	res := b.Draw()
	assert.Equal(t, pile.DrawExhausted, res.Outcome)
	assert.Equal(t, before, b.Layout(), "further draws are no-ops")
	assert.Equal(t, moves, b.Moves())
	assert.Equal(t, pile.StockLocked, b.stock.State())
}

func TestBoard_MoveTopOfRunToColumn(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "2H", "KS", "QH", "JC"))
	b.columns[1].Reset(cards(t, "QD"))

	res, err := b.AttemptMove(ColumnID(0), nil, ColumnID(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"JC"}, codesOf(res.Cards))
	assert.Equal(t, 3, res.SourceLen)
	assert.Equal(t, 2, res.DestLen)
	assert.Equal(t, []string{"QD", "JC"}, codesOf(b.columns[1].Cards()))
}

func TestBoard_MoveGrabbedRun(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "2H", "KS", "QH", "JC"))

	ks := card(t, "KS")
	res, err := b.AttemptMove(ColumnID(0), &ks, ColumnID(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"KS", "QH", "JC"}, codesOf(res.Cards))
	assert.Equal(t, []string{"2H"}, codesOf(b.columns[0].Cards()))
	assert.Equal(t, []string{"KS", "QH", "JC"}, codesOf(b.columns[1].Cards()))
	for _, c := range b.columns[0].Cards() {
		assert.False(t, c.Highlighted)
	}
}

func TestBoard_IllegalMovesLeaveBoardUnchanged(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "2H", "KS", "QH", "JC"))
	b.columns[1].Reset(cards(t, "9D"))
	b.waste.Reset(cards(t, "4C"))
	b.stock.Load(cards(t, "AD"))
	before := b.Layout()

	twoH := card(t, "2H")
	tests := []struct {
		name string
		from PileID
		card *models.Card
		to   PileID
	}{
		{"card below the run", ColumnID(0), &twoH, ColumnID(2)},
		{"no fit", ColumnID(0), nil, ColumnID(1)},
		{"onto the waste", ColumnID(1), nil, WasteID},
		{"onto the stock", ColumnID(1), nil, StockID},
		{"from the stock", StockID, nil, ColumnID(2)},
		{"same pile", ColumnID(0), nil, ColumnID(0)},
		{"non-ace to foundation", WasteID, nil, FoundationID(1)},
		{"empty source", CellID(0), nil, ColumnID(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.AttemptMove(tt.from, tt.card, tt.to)
			assert.ErrorIs(t, err, ErrIllegalMove)
			assert.Equal(t, before, b.Layout())
			assert.False(t, b.CanUndo())
		})
	}

	_, err := b.AttemptMove(ColumnID(9), nil, ColumnID(0))
	assert.ErrorIs(t, err, ErrUnknownPile)
}

func TestBoard_FreeCells(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "5S", "4H"))

	_, err := b.AttemptMove(ColumnID(0), nil, CellID(0))
	require.NoError(t, err)
	_, err = b.AttemptMove(ColumnID(0), nil, CellID(0))
	assert.ErrorIs(t, err, ErrIllegalMove, "cell already holds a card")

	_, err = b.AttemptMove(ColumnID(0), nil, CellID(1))
	require.NoError(t, err)
	assert.True(t, b.columns[0].Empty())

	// a whole run cannot go into a cell
	b.columns[1].Reset(cards(t, "9C", "8D"))
	nine := card(t, "9C")
	_, err = b.AttemptMove(ColumnID(1), &nine, CellID(2))
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestBoard_WasteToFoundationAndBack(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.waste.Reset(cards(t, "AS"))

	res, err := b.AttemptMove(WasteID, nil, FoundationID(0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.DestLen)

	b.columns[2].Reset(cards(t, "2H"))
	_, err = b.AttemptMove(FoundationID(0), nil, ColumnID(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"2H", "AS"}, codesOf(b.columns[2].Cards()))
}

func TestBoard_UndoRestoresExactState(t *testing.T) {
	b := standardBoard(t, models.Rules{DrawCount: 3, Difficulty: models.Hard})
	type view struct {
		layout   []int
		visible  int
		throughs int
		moves    int
	}
	look := func() view {
		return view{b.Layout(), b.waste.Visible(), b.stock.Throughs(), b.Moves()}
	}

	var seen []view
	seen = append(seen, look())
	b.Draw()
	seen = append(seen, look())
	b.Draw()
	seen = append(seen, look())

	// two draw-threes leave 8D on top of the waste
	_, err := b.AttemptMove(WasteID, nil, CellID(0))
	require.NoError(t, err)
	assert.Equal(t, 2, b.waste.Visible())

	for i := len(seen) - 1; i >= 0; i-- {
		require.NoError(t, b.UndoLastMove())
		assert.Equal(t, seen[i], look(), "undo step %d", i)
	}
	assert.ErrorIs(t, b.UndoLastMove(), ErrNothingToUndo)
}

func TestBoard_UndoRedeal(t *testing.T) {
	b := standardBoard(t, models.Rules{DrawCount: 1, Difficulty: models.Medium})
	for !b.stock.Empty() {
		b.Draw()
	}
	wasteBefore := b.waste.Cards()
	res := b.Draw()
	require.Equal(t, pile.DrawRedealt, res.Outcome)
	require.Equal(t, 2, b.stock.Throughs())

	require.NoError(t, b.UndoLastMove())
	assert.Equal(t, 1, b.stock.Throughs())
	assert.True(t, b.stock.Empty())
	assert.Equal(t, wasteBefore, b.waste.Cards())
}

func TestBoard_IdleDrawLeavesNoUndo(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	res := b.Draw()
	assert.Equal(t, pile.DrawIdle, res.Outcome)
	assert.False(t, b.CanUndo())
}

func TestBoard_HintPrefersFoundation(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.waste.Reset(cards(t, "AS"))
	b.columns[0].Reset(cards(t, "9S"))
	b.columns[1].Reset(cards(t, "8H"))

	h, ok := b.Hint()
	require.True(t, ok)
	assert.False(t, h.Draw)
	assert.Equal(t, WasteID, *h.From)
	assert.Equal(t, FoundationID(0), *h.To)
	assert.Equal(t, "AS", h.Card.String())
}

func TestBoard_HintColumnMove(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "9S"))
	b.columns[1].Reset(cards(t, "8H"))

	h, ok := b.Hint()
	require.True(t, ok)
	assert.Equal(t, ColumnID(1), *h.From)
	assert.Equal(t, ColumnID(0), *h.To)
	assert.Equal(t, 1, h.Count)
}

func TestBoard_HintKingToEmptyColumn(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "2D", "KS", "QH"))

	h, ok := b.Hint()
	require.True(t, ok)
	assert.Equal(t, ColumnID(0), *h.From)
	assert.Equal(t, "KS", h.Card.String())
	assert.Equal(t, 2, h.Count)
	assert.True(t, h.To.Kind == pile.KindColumn && *h.To != ColumnID(0))
}

func TestBoard_HintSkipsUselessMoves(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	// a King already at the bottom of its column, and a card that only fits a cell
	b.columns[0].Reset(cards(t, "KH", "QS"))
	b.columns[1].Reset(cards(t, "5D"))

	_, ok := b.Hint()
	assert.False(t, ok)

	b.stock.Load(cards(t, "3C"))
	h, ok := b.Hint()
	require.True(t, ok)
	assert.True(t, h.Draw)
}

func TestBoard_HintDoesNotSwapEquivalentParents(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "8S", "7H"))
	b.columns[1].Reset(cards(t, "8C"))

	_, ok := b.Hint()
	assert.False(t, ok, "7H already rests on 8S")
}

func TestBoard_FollowingHintsDoesNotCycle(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "8S", "7H"))
	b.columns[1].Reset(cards(t, "8C"))
	b.columns[2].Reset(cards(t, "6C"))

	type step struct{ from, to PileID }
	var steps []step
	for i := 0; i < 8; i++ {
		h, ok := b.Hint()
		if !ok {
			break
		}
		require.False(t, h.Draw)
		if n := len(steps); n > 0 {
			prev := steps[n-1]
			require.False(t, prev.from == *h.To && prev.to == *h.From, "hint undoes the previous move")
		}
		_, err := b.AttemptMove(*h.From, h.Card, *h.To)
		require.NoError(t, err)
		steps = append(steps, step{*h.From, *h.To})
	}
	require.Len(t, steps, 1)
	assert.Equal(t, []string{"8S", "7H", "6C"}, codesOf(b.columns[0].Cards()))
}

func TestBoard_HintRunFeedsAttemptMove(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "2D", "9H", "8S"))
	b.columns[1].Reset(cards(t, "TC"))

	h, ok := b.Hint()
	require.True(t, ok)
	assert.Equal(t, ColumnID(0), *h.From)
	assert.Equal(t, ColumnID(1), *h.To)
	assert.Equal(t, "9H", h.Card.String())
	require.Equal(t, 2, h.Count)

	res, err := b.AttemptMove(*h.From, h.Card, *h.To)
	require.NoError(t, err)
	assert.Equal(t, []string{"9H", "8S"}, codesOf(res.Cards))
	assert.Equal(t, []string{"TC", "9H", "8S"}, codesOf(b.columns[1].Cards()))
	assert.Equal(t, []string{"2D"}, codesOf(b.columns[0].Cards()))
}

func TestBoard_AutoPlay(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.waste.Reset(cards(t, "3S"))
	b.columns[0].Reset(cards(t, "2S", "AS"))
	b.columns[1].Reset(cards(t, "AH"))

	moved := b.AutoPlay()
	require.Len(t, moved, 4)
	assert.Equal(t, 3, b.foundations[0].Len())
	assert.Equal(t, 1, b.foundations[2].Len())
	assert.True(t, b.waste.Empty())

	for range moved {
		require.NoError(t, b.UndoLastMove())
	}
	assert.False(t, b.CanUndo())
	assert.Equal(t, []string{"2S", "AS"}, codesOf(b.columns[0].Cards()))
	assert.Equal(t, 0, b.foundations[0].Len())
}

func TestBoard_Win(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	std := deck.Standard()
	for i := range b.foundations {
		b.foundations[i].Reset(std[i*13 : (i+1)*13])
	}
	// take the King of Diamonds back off
	kd, _ := b.foundations[3].Pop()
	b.columns[0].Reset([]models.Card{kd})
	require.False(t, b.IsWon())

	res, err := b.AttemptMove(ColumnID(0), nil, FoundationID(3))
	require.NoError(t, err)
	assert.True(t, res.Won)
	assert.True(t, b.IsWon())
}

func TestBoard_AvailableRun(t *testing.T) {
	b := emptyBoard(t, models.DefaultRules())
	b.columns[0].Reset(cards(t, "9H", "KS", "QH", "JC"))

	run, err := b.AvailableRun(ColumnID(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"KS", "QH", "JC"}, codesOf(run.Cards()))

	run, err = b.AvailableRun(ColumnID(1))
	require.NoError(t, err)
	assert.True(t, run.Empty())

	_, err = b.AvailableRun(CellID(7))
	assert.True(t, errors.Is(err, ErrUnknownPile))
}

func TestBoard_LayoutRoundTrip(t *testing.T) {
	b := standardBoard(t, models.DefaultRules())
	b.Draw()
	_, err := b.AttemptMove(ColumnID(0), nil, CellID(0))
	require.NoError(t, err)
	layout := b.Layout()

	zeros := 0
	for _, n := range layout {
		if n == 0 {
			zeros++
		}
	}
	assert.Equal(t, len(b.PileIDs()), zeros)
	assert.Equal(t, 52+zeros, len(layout))

	other := standardBoard(t, models.DefaultRules())
	require.NoError(t, other.RestoreLayout(layout, 1))
	assert.Equal(t, layout, other.Layout())
	assert.False(t, other.CanUndo())
	for _, c := range other.stock.Cards() {
		assert.False(t, c.FaceUp)
	}
}

func TestBoard_RestoreLayoutRejectsBadInput(t *testing.T) {
	b := standardBoard(t, models.DefaultRules())
	good := b.Layout()

	short := append([]int(nil), good[1:]...)
	assert.ErrorIs(t, b.RestoreLayout(short, 1), ErrMalformedLayout)

	dup := append([]int(nil), good...)
	dup[0] = dup[1]
	assert.ErrorIs(t, b.RestoreLayout(dup, 1), ErrMalformedLayout)

	noTail := append([]int(nil), good[:len(good)-1]...)
	assert.ErrorIs(t, b.RestoreLayout(noTail, 1), ErrMalformedLayout)

	assert.Equal(t, good, b.Layout(), "board untouched after a rejected layout")
}

// layoutWith puts the given ordinals on one pile and the rest of the deck in
// the stock.
func layoutWith(b *Board, target PileID, ords ...int) []int {
	placed := make(map[int]bool, len(ords))
	for _, n := range ords {
		placed[n] = true
	}
	var out []int
	for _, id := range b.PileIDs() {
		switch id {
		case StockID:
			for n := 1; n <= deck.Size; n++ {
				if !placed[n] {
					out = append(out, n)
				}
			}
		case target:
			out = append(out, ords...)
		}
		out = append(out, 0)
	}
	return out
}

func TestBoard_RestoreLayoutChecksFoundationsAndCells(t *testing.T) {
	b := standardBoard(t, models.DefaultRules())
	good := b.Layout()

	// 5H on the Spades foundation
	assert.ErrorIs(t, b.RestoreLayout(layoutWith(b, FoundationID(0), 31), 1), ErrMalformedLayout)
	// Spades out of order
	assert.ErrorIs(t, b.RestoreLayout(layoutWith(b, FoundationID(0), 1, 3), 1), ErrMalformedLayout)
	// two cards in one cell
	assert.ErrorIs(t, b.RestoreLayout(layoutWith(b, CellID(0), 1, 2), 1), ErrMalformedLayout)
	assert.Equal(t, good, b.Layout())

	require.NoError(t, b.RestoreLayout(layoutWith(b, FoundationID(0), 1, 2), 1))
	assert.Equal(t, []string{"AS", "2S"}, codesOf(b.foundations[0].Cards()))

	// any order is fine in a column
	require.NoError(t, b.RestoreLayout(layoutWith(b, ColumnID(2), 13, 1, 40), 1))
	assert.Equal(t, []string{"KS", "AS", "AD"}, codesOf(b.columns[2].Cards()))
}
