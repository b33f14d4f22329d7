// internal/game/save.go
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
)

// ErrMalformedLayout is returned when a saved board layout cannot be loaded.
var ErrMalformedLayout = errors.New("malformed board layout")

// SavedGame is everything needed to bring a session back: the deck order and
// the actions applied to it. Layout and Throughs hold the last board as a
// fallback when the move list no longer replays.
type SavedGame struct {
	ID       uuid.UUID           `json:"id"`
	Rules    models.Rules        `json:"rules"`
	Cells    int                 `json:"cells,omitempty"`
	Deck     []int               `json:"deck"`
	Moves    []models.GameAction `json:"moves"`
	Layout   []int               `json:"layout,omitempty"`
	Throughs int                 `json:"throughs,omitempty"`
	Won      bool                `json:"won"`
	SavedAt  time.Time           `json:"savedAt"`
}

// Save captures the session.
func (s *Session) Save() SavedGame {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	moves := make([]models.GameAction, len(s.actions))
	copy(moves, s.actions)
	return SavedGame{
		ID:       s.ID,
		Rules:    s.Rules,
		Cells:    s.Board.NumCells(),
		Deck:     s.Board.deck.Ordinals(),
		Moves:    moves,
		Layout:   s.Board.Layout(),
		Throughs: s.Board.stock.Throughs(),
		Won:      s.Board.IsWon(),
		SavedAt:  time.Now(),
	}
}

// RestoreSession rebuilds a saved game by dealing its deck and replaying
// its moves without broadcasting or recording them. If a move no longer
// applies, the saved layout is loaded instead and undo history starts empty.
// The saved cell count overrides any WithCells option.
func RestoreSession(saved SavedGame, opts ...Option) (*Session, error) {
	opts = append(opts, WithID(saved.ID))
	if saved.Cells > 0 {
		opts = append(opts, WithCells(saved.Cells))
	}
	s, err := NewSession(saved.Rules, saved.Deck, opts...)
	if err != nil {
		return nil, err
	}

	s.replaying = true
	defer func() { s.replaying = false }()

	replayErr := s.replay(saved.Moves)
	if replayErr == nil && !s.reshuffled {
		return s, nil
	}
	if len(saved.Layout) == 0 {
		if replayErr == nil {
			replayErr = deck.ErrMalformedDeck
		}
		return nil, fmt.Errorf("restore %s: %w", saved.ID, replayErr)
	}

	s.logger.WithError(replayErr).Warn("replay failed, loading saved layout")
	if err := s.Board.RestoreLayout(saved.Layout, saved.Throughs); err != nil {
		return nil, fmt.Errorf("restore %s: %w", saved.ID, err)
	}
	s.actions = nil
	return s, nil
}

func (s *Session) replay(actions []models.GameAction) error {
	for i, a := range actions {
		switch a.ActionType {
		case models.ActionDraw:
			res := s.Draw()
			if res.Outcome != pile.DrawDealt && res.Outcome != pile.DrawRedealt {
				return fmt.Errorf("action %d: %w", i, ErrIllegalMove)
			}
		default:
			if _, err := s.Apply(a); err != nil {
				return fmt.Errorf("action %d: %w", i, err)
			}
		}
	}
	return nil
}

// Layout encodes the board as card ordinals pile by pile, bottom first, with
// a 0 after each pile. Piles follow PileIDs order.
func (b *Board) Layout() []int {
	out := make([]int, 0, deck.Size+len(b.PileIDs()))
	for _, id := range b.PileIDs() {
		p, _ := b.Pile(id)
		for _, c := range p.Cards() {
			out = append(out, c.Ordinal())
		}
		out = append(out, 0)
	}
	return out
}

// RestoreLayout replaces the board with a Layout encoding. The stock is
// turned face down and its pass counter set to throughs; undo history is
// cleared.
func (b *Board) RestoreLayout(layout []int, throughs int) error {
	ids := b.PileIDs()
	groups := make([][]models.Card, 0, len(ids))
	var cur []models.Card
	seen := make(map[int]bool, deck.Size)
	for _, n := range layout {
		if n == 0 {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		c, err := models.CardFromOrdinal(n)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedLayout, err)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate card %s", ErrMalformedLayout, c)
		}
		seen[n] = true
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		return fmt.Errorf("%w: missing final separator", ErrMalformedLayout)
	}
	if len(groups) != len(ids) {
		return fmt.Errorf("%w: expected %d piles, got %d", ErrMalformedLayout, len(ids), len(groups))
	}
	if len(seen) != deck.Size {
		return fmt.Errorf("%w: expected %d cards, got %d", ErrMalformedLayout, deck.Size, len(seen))
	}
	for i, id := range ids {
		if err := b.checkPile(id, groups[i]); err != nil {
			return err
		}
	}
	if throughs < 1 {
		throughs = 1
	}

	for i, id := range ids {
		p, _ := b.Pile(id)
		if id == StockID {
			b.stock.Load(groups[i])
			continue
		}
		p.Reset(groups[i])
	}
	b.stock.SetProgress(throughs, true)
	b.history = nil
	return nil
}

// checkPile rejects a pile no game can reach: a foundation out of suit or
// sequence, or a cell holding more than one card. Columns hold whatever was
// dealt under their runs, so any order is accepted there.
func (b *Board) checkPile(id PileID, group []models.Card) error {
	switch id.Kind {
	case pile.KindFoundation:
		f := pile.NewFoundation(b.foundations[id.Index].Suit())
		for _, c := range group {
			if _, ok := f.Push(c); !ok {
				return fmt.Errorf("%w: %s cannot go on %s", ErrMalformedLayout, c, id)
			}
		}
	case pile.KindFreeCell:
		if len(group) > 1 {
			return fmt.Errorf("%w: %s holds %d cards", ErrMalformedLayout, id, len(group))
		}
	}
	return nil
}
