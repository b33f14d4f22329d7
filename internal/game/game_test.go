// internal/game/game_test.go
package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []GameEvent
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) types() []GameEventType {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]GameEventType, 0, len(mb.events))
	for _, ev := range mb.events {
		out = append(out, ev.Type)
	}
	return out
}

func (mb *mockBroadcaster) getLastEvent() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.events) == 0 {
		return nil
	}
	return &mb.events[len(mb.events)-1]
}

// mockRecorder stands in for the Redis action queue.
type mockRecorder struct {
	mu      sync.Mutex
	records []models.GameActionRecord
}

func (mr *mockRecorder) RecordAction(_ context.Context, rec models.GameActionRecord) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.records = append(mr.records, rec)
	return nil
}

func (mr *mockRecorder) count() int {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return len(mr.records)
}

// setupTestSession deals the unshuffled deck with a mock broadcaster and recorder.
func setupTestSession(t *testing.T, rules models.Rules) (*Session, *mockBroadcaster, *mockRecorder) {
	t.Helper()
	mr := &mockRecorder{}
	s, err := NewSession(rules, ordinalsOf(deck.Standard()), WithRecorder(mr))
	require.NoError(t, err)
	mb := &mockBroadcaster{}
	s.BroadcastFn = mb.broadcastFn
	return s, mb, mr
}

func TestNewSession_RejectsBadRules(t *testing.T) {
	_, err := NewSession(models.Rules{DrawCount: 2, Difficulty: models.Easy}, nil)
	assert.Error(t, err)
}

func TestNewSession_MalformedDeckFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s, err := NewSession(models.DefaultRules(), []int{1, 2, 3}, WithLogger(logger), WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	assert.True(t, s.Reshuffled())
	assert.Len(t, s.Board.Deck().Ordinals(), deck.Size)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNewSession_SeededDealsAreReproducible(t *testing.T) {
	a, err := NewSession(models.DefaultRules(), nil, WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, err)
	b, err := NewSession(models.DefaultRules(), nil, WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, err)
	assert.Equal(t, a.Board.Layout(), b.Board.Layout())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_DrawAndMoveBroadcast(t *testing.T) {
	s, mb, mr := setupTestSession(t, models.DefaultRules())

	res := s.Draw()
	require.Equal(t, pile.DrawDealt, res.Outcome)
	require.NotNil(t, res.Card)
	assert.Equal(t, "KD", res.Card.String())

	last := mb.getLastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventDraw, last.Type)
	assert.Equal(t, s.ID, last.GameID)

	mv, err := s.Move("column-0", "", "cell-0")
	require.NoError(t, err)
	assert.Equal(t, []string{"5S"}, codesOf(mv.Cards))
	assert.Equal(t, EventMove, mb.getLastEvent().Type)

	_, err = s.Move("column-0", "", "foundation-2")
	assert.ErrorIs(t, err, ErrIllegalMove)

	assert.Eventually(t, func() bool { return mr.count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Len(t, s.Actions(), 2)
}

func TestSession_MoveRejectsBadInput(t *testing.T) {
	s, _, _ := setupTestSession(t, models.DefaultRules())

	_, err := s.Move("tableau-1", "", "cell-0")
	assert.ErrorIs(t, err, ErrUnknownPile)
	_, err = s.Move("column-0", "ZZ", "cell-0")
	assert.ErrorIs(t, err, models.ErrInvalidOrdinal)
}

func TestSession_UndoBroadcastsState(t *testing.T) {
	s, mb, _ := setupTestSession(t, models.DefaultRules())

	assert.ErrorIs(t, s.Undo(), ErrNothingToUndo)
	s.Draw()
	require.NoError(t, s.Undo())

	last := mb.getLastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventUndo, last.Type)
	require.NotNil(t, last.State)
	assert.Equal(t, 32, last.State.StockSize)
	assert.Empty(t, last.State.Waste)
}

func TestSession_LimitReached(t *testing.T) {
	s, mb, _ := setupTestSession(t, models.Rules{DrawCount: 3, Difficulty: models.Hard})
	// hard draw-three: two passes of eleven draws each
	for {
		res := s.Draw()
		if res.Outcome == pile.DrawExhausted {
			break
		}
	}
	assert.Equal(t, EventLimitReached, mb.getLastEvent().Type)
	assert.Equal(t, 0, s.State().ThroughsRemaining)
	assert.Equal(t, "exhausted_locked", s.State().StockState)
}

func TestSession_ApplyDispatch(t *testing.T) {
	s, _, _ := setupTestSession(t, models.DefaultRules())

	out, err := s.Apply(models.GameAction{ActionType: models.ActionDraw})
	require.NoError(t, err)
	assert.IsType(t, DrawResult{}, out)

	out, err = s.Apply(models.GameAction{ActionType: models.ActionHint})
	require.NoError(t, err)
	assert.IsType(t, Hint{}, out)

	_, err = s.Apply(models.GameAction{ActionType: models.ActionUndo})
	require.NoError(t, err)

	_, err = s.Apply(models.GameAction{ActionType: "action_shuffle"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSession_WinCallsOnGameEnd(t *testing.T) {
	s, mb, _ := setupTestSession(t, models.DefaultRules())
	b := s.Board
	std := deck.Standard()
	b.stock.Load(nil)
	for _, c := range b.columns {
		c.Reset(nil)
	}
	for i := range b.foundations {
		b.foundations[i].Reset(std[i*13 : (i+1)*13])
	}
	kd, _ := b.foundations[3].Pop()
	qd, _ := b.foundations[3].Pop()
	b.columns[0].Reset([]models.Card{kd, qd})

	ended := 0
	s.OnGameEnd = func(*Session) { ended++ }

	moved := s.AutoPlay()
	require.Len(t, moved, 2)
	assert.Equal(t, 1, ended)
	assert.True(t, s.State().Won)
	assert.Contains(t, mb.types(), EventWon)
}

func TestSession_SaveAndRestore(t *testing.T) {
	s, _, _ := setupTestSession(t, models.DefaultRules())
	s.Draw()
	s.Draw()
	_, err := s.Move("column-0", "", "cell-0")
	require.NoError(t, err)
	s.Draw()
	require.NoError(t, s.Undo())

	saved := s.Save()
	assert.Equal(t, s.ID, saved.ID)
	assert.Len(t, saved.Moves, 5)

	restored, err := RestoreSession(saved)
	require.NoError(t, err)
	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, s.Board.Layout(), restored.Board.Layout())
	assert.Equal(t, s.State().Moves, restored.State().Moves)
	assert.Len(t, restored.Actions(), 5)
}

func TestRestoreSession_FallsBackToLayout(t *testing.T) {
	s, _, _ := setupTestSession(t, models.DefaultRules())
	_, err := s.Move("column-0", "", "cell-0")
	require.NoError(t, err)

	saved := s.Save()
	saved.Moves = append(saved.Moves, models.GameAction{ActionType: models.ActionMove, From: "cell-3", To: "column-1"})

	restored, err := RestoreSession(saved)
	require.NoError(t, err)
	assert.Equal(t, s.Board.Layout(), restored.Board.Layout())
	assert.False(t, restored.Board.CanUndo())

	saved.Layout = nil
	_, err = RestoreSession(saved)
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestRestoreSession_KeepsCellCount(t *testing.T) {
	s, err := NewSession(models.DefaultRules(), nil, WithRand(rand.New(rand.NewSource(1))), WithCells(6))
	require.NoError(t, err)
	_, err = s.Move("column-0", "", "cell-5")
	require.NoError(t, err)

	saved := s.Save()
	assert.Equal(t, 6, saved.Cells)

	restored, err := RestoreSession(saved)
	require.NoError(t, err)
	assert.Equal(t, 6, restored.Board.NumCells())
	assert.Equal(t, s.Board.Layout(), restored.Board.Layout())

	// a default cell option from the caller does not shrink the board
	restored, err = RestoreSession(saved, WithCells(DefaultCells))
	require.NoError(t, err)
	assert.Equal(t, 6, restored.Board.NumCells())

	// the layout fallback also needs the saved cell count
	saved.Moves = append(saved.Moves, models.GameAction{ActionType: models.ActionMove, From: "cell-4", To: "column-1"})
	restored, err = RestoreSession(saved)
	require.NoError(t, err)
	assert.Equal(t, s.Board.Layout(), restored.Board.Layout())
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	s, _, _ := setupTestSession(t, models.DefaultRules())
	store.AddSession(s)

	got, ok := store.GetSession(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []*Session{s}, store.Sessions())

	_, ok = store.GetSession(uuid.New())
	assert.False(t, ok)

	store.DeleteSession(s.ID)
	assert.Equal(t, 0, store.Len())
}

func TestSession_LastActive(t *testing.T) {
	s, _, _ := setupTestSession(t, models.DefaultRules())
	created := s.LastActive()
	assert.Equal(t, s.CreatedAt, created)

	time.Sleep(5 * time.Millisecond)
	_ = s.State()
	assert.Equal(t, created, s.LastActive(), "reading the board is not activity")

	s.Draw()
	assert.True(t, s.LastActive().After(created))
}

func TestSession_ConcurrentActionsAreSerialized(t *testing.T) {
	s, _, _ := setupTestSession(t, models.Rules{DrawCount: 1, Difficulty: models.Easy})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				s.Draw()
				_ = s.State()
			}
		}()
	}
	wg.Wait()

	st := s.State()
	assert.Equal(t, 0, st.StockSize)
	assert.Len(t, st.Waste, 32)
	assert.Equal(t, 32, st.Moves)
}
