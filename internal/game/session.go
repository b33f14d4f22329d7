// internal/game/session.go
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/sirupsen/logrus"
)

// ErrUnknownAction is returned by Apply for an action type it cannot handle.
var ErrUnknownAction = errors.New("unknown action type")

// ActionRecorder receives every applied action, typically a Redis queue
// drained by the historian.
type ActionRecorder interface {
	RecordAction(ctx context.Context, rec models.GameActionRecord) error
}

// Session is one game in progress. Every operation takes Mu, so moves from
// several connections are applied one at a time.
type Session struct {
	ID        uuid.UUID
	Rules     models.Rules
	Board     *Board
	CreatedAt time.Time
	Mu        sync.Mutex

	// BroadcastFn is used to send events to listeners. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// OnGameEnd runs once when the last card reaches a foundation.
	OnGameEnd OnGameEndFunc

	recorder    ActionRecorder
	logger      logrus.FieldLogger
	actionIndex int
	actions     []models.GameAction
	reshuffled  bool
	replaying   bool
	finished    bool
	lastActive  time.Time
}

type sessionConfig struct {
	id       uuid.UUID
	rng      *rand.Rand
	cells    int
	logger   logrus.FieldLogger
	recorder ActionRecorder
}

// Option customizes NewSession.
type Option func(*sessionConfig)

func WithID(id uuid.UUID) Option { return func(c *sessionConfig) { c.id = id } }

// WithRand fixes the shuffle source, for reproducible deals.
func WithRand(r *rand.Rand) Option { return func(c *sessionConfig) { c.rng = r } }

func WithCells(n int) Option { return func(c *sessionConfig) { c.cells = n } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *sessionConfig) { c.logger = l } }

func WithRecorder(r ActionRecorder) Option { return func(c *sessionConfig) { c.recorder = r } }

// NewSession deals a new game. ordinals restores a specific deck order; an
// empty list shuffles. A malformed order is logged and replaced by a fresh shuffle.
func NewSession(rules models.Rules, ordinals []int, opts ...Option) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	cfg := sessionConfig{cells: DefaultCells}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == uuid.Nil {
		cfg.id = uuid.New()
	}
	if cfg.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.logger = l
	}
	logger := cfg.logger.WithField("session", cfg.id.String())

	d, reshuffled := deck.Load(0, ordinals, cfg.rng, logger)
	now := time.Now()
	s := &Session{
		ID:         cfg.id,
		Rules:      rules,
		Board:      NewBoard(rules, d, cfg.cells, logger),
		CreatedAt:  now,
		lastActive: now,
		recorder:   cfg.recorder,
		logger:     logger,
		reshuffled: reshuffled,
	}
	return s, nil
}

// LastActive is the time of the last action, or of creation.
func (s *Session) LastActive() time.Time {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.lastActive
}

// Reshuffled reports whether a requested deck order was rejected.
func (s *Session) Reshuffled() bool { return s.reshuffled }

// Actions returns the applied actions in order, undos included.
func (s *Session) Actions() []models.GameAction {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make([]models.GameAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// Apply dispatches a client action. The result is a MoveResult, []MoveResult,
// DrawResult, Hint or nil depending on the type.
func (s *Session) Apply(action models.GameAction) (interface{}, error) {
	switch action.ActionType {
	case models.ActionMove:
		return s.Move(action.From, action.Card, action.To)
	case models.ActionDraw:
		return s.Draw(), nil
	case models.ActionUndo:
		return nil, s.Undo()
	case models.ActionHint:
		h, ok := s.Hint()
		if !ok {
			return nil, nil
		}
		return h, nil
	case models.ActionAutoPlay:
		return s.AutoPlay(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.ActionType)
}

// Move parses pile ids and an optional card code, then applies the move.
func (s *Session) Move(from, card, to string) (MoveResult, error) {
	fromID, err := ParsePileID(from)
	if err != nil {
		return MoveResult{}, err
	}
	toID, err := ParsePileID(to)
	if err != nil {
		return MoveResult{}, err
	}
	var grabbed *models.Card
	if card != "" {
		c, err := models.ParseCard(card)
		if err != nil {
			return MoveResult{}, err
		}
		grabbed = &c
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()

	res, err := s.Board.AttemptMove(fromID, grabbed, toID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"from": from, "to": to, "card": card}).Debug("rejected move")
		return MoveResult{}, err
	}
	s.actions = append(s.actions, models.GameAction{ActionType: models.ActionMove, From: from, To: to, Card: card})
	s.logAction(models.ActionMove, map[string]interface{}{
		"from":  fromID.String(),
		"to":    toID.String(),
		"cards": cardCodes(res.Cards),
	})
	s.fireEvent(GameEvent{Type: EventMove, Move: &res})
	s.checkWon()
	return res, nil
}

// Draw deals from the stock. Reaching the pass limit broadcasts limit_reached.
func (s *Session) Draw() DrawResult {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()

	res := s.Board.Draw()
	switch res.Outcome {
	case pile.DrawDealt, pile.DrawRedealt:
		s.actions = append(s.actions, models.GameAction{ActionType: models.ActionDraw})
		s.logAction(models.ActionDraw, map[string]interface{}{
			"outcome":  res.Outcome.String(),
			"stockLen": res.StockLen,
		})
		s.fireEvent(GameEvent{Type: EventDraw, Draw: &res})
	case pile.DrawExhausted:
		s.fireEvent(GameEvent{Type: EventLimitReached, Draw: &res})
	}
	return res
}

// Undo takes back the last move or draw.
func (s *Session) Undo() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()

	if err := s.Board.UndoLastMove(); err != nil {
		return err
	}
	s.actions = append(s.actions, models.GameAction{ActionType: models.ActionUndo})
	s.logAction(models.ActionUndo, nil)
	st := s.state()
	s.fireEvent(GameEvent{Type: EventUndo, State: &st})
	return nil
}

// Hint suggests a move without changing the board.
func (s *Session) Hint() (Hint, bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()

	h, ok := s.Board.Hint()
	if ok {
		s.fireEvent(GameEvent{Type: EventHint, Hint: &h})
	}
	return h, ok
}

// AutoPlay moves everything it can to the foundations.
func (s *Session) AutoPlay() []MoveResult {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()

	moved := s.Board.AutoPlay()
	for i := range moved {
		res := moved[i]
		s.actions = append(s.actions, models.GameAction{
			ActionType: models.ActionMove,
			From:       res.From.String(),
			To:         res.To.String(),
			Card:       res.Cards[0].String(),
		})
		s.logAction(models.ActionMove, map[string]interface{}{
			"from":     res.From.String(),
			"to":       res.To.String(),
			"cards":    cardCodes(res.Cards),
			"autoplay": true,
		})
		s.fireEvent(GameEvent{Type: EventMove, Move: &res})
	}
	if len(moved) > 0 {
		s.checkWon()
	}
	return moved
}

// State returns the public view of the board.
func (s *Session) State() BoardState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.state()
}

// checkWon fires the win once. Assumes lock is held.
func (s *Session) checkWon() {
	if s.finished || !s.Board.IsWon() {
		return
	}
	s.finished = true
	s.logger.WithField("moves", s.Board.Moves()).Info("game won")
	s.fireEvent(GameEvent{Type: EventWon, Payload: map[string]interface{}{"moves": s.Board.Moves()}})
	if s.OnGameEnd != nil && !s.replaying {
		s.OnGameEnd(s)
	}
}

// fireEvent broadcasts ev. Assumes lock is held.
func (s *Session) fireEvent(ev GameEvent) {
	if s.replaying || s.BroadcastFn == nil {
		return
	}
	ev.GameID = s.ID
	s.BroadcastFn(ev)
}

// logAction queues an action record for the historian without blocking the
// game. Assumes lock is held.
func (s *Session) logAction(actionType string, payload map[string]interface{}) {
	if s.replaying || s.recorder == nil {
		return
	}
	s.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := models.GameActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec models.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.recorder.RecordAction(ctx, rec); err != nil {
			s.logger.WithError(err).WithField("index", rec.ActionIndex).Warn("failed to record action")
		}
	}(record)
}

func cardCodes(cards []models.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}
