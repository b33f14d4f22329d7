// internal/handlers/game_server.go
package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/auth"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/middleware"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/sirupsen/logrus"
)

// SnapshotStore keeps short-lived saves, normally Redis.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, saved game.SavedGame) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) (game.SavedGame, error)
}

// GameRepository is the durable store, normally Postgres.
type GameRepository interface {
	SaveGame(ctx context.Context, saved game.SavedGame) error
	LoadGame(ctx context.Context, id uuid.UUID) (game.SavedGame, error)
	RecordFinished(ctx context.Context, saved game.SavedGame) error
}

// GameServer holds the live sessions and the stores behind the HTTP and
// WebSocket routes. Snapshots, Repo and Recorder are optional.
type GameServer struct {
	Sessions  *game.SessionStore
	Signer    *auth.Signer
	Rules     models.Rules
	Snapshots SnapshotStore
	Repo      GameRepository
	Recorder  game.ActionRecorder

	logger logrus.FieldLogger

	hubsMu sync.Mutex
	hubs   map[uuid.UUID]*hub
}

func NewGameServer(signer *auth.Signer, rules models.Rules, logger logrus.FieldLogger) *GameServer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &GameServer{
		Sessions: game.NewSessionStore(),
		Signer:   signer,
		Rules:    rules,
		logger:   logger,
		hubs:     make(map[uuid.UUID]*hub),
	}
}

// Routes registers every endpoint on a new mux wrapped in request logging.
func (gs *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /game/create", gs.handleCreate)
	mux.HandleFunc("POST /game/load/{id}", gs.handleLoad)
	mux.HandleFunc("GET /game/ws/{id}", gs.GameWSHandler)
	mux.HandleFunc("GET /game/{id}", gs.handleState)
	// the literal load and ws routes above take precedence over {action}
	mux.HandleFunc("GET /game/{id}/{action}", gs.handleQuery)
	mux.HandleFunc("POST /game/{id}/{action}", gs.requireToken(gs.handleAction))
	return middleware.LogMiddleware(gs.logger)(mux)
}

// handleAction routes the token-protected game actions.
func (gs *GameServer) handleAction(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "move":
		gs.handleMove(w, r)
	case "draw":
		gs.handleDraw(w, r)
	case "undo":
		gs.handleUndo(w, r)
	case "autoplay":
		gs.handleAutoPlay(w, r)
	case "save":
		gs.handleSave(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (gs *GameServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "hint":
		gs.handleHint(w, r)
	default:
		http.NotFound(w, r)
	}
}

// newSessionOptions are the options every server-owned session gets.
func (gs *GameServer) newSessionOptions(extra ...game.Option) []game.Option {
	opts := []game.Option{game.WithLogger(gs.logger)}
	if gs.Recorder != nil {
		opts = append(opts, game.WithRecorder(gs.Recorder))
	}
	return append(opts, extra...)
}

// register wires broadcasting and end-of-game persistence, then stores the
// session.
func (gs *GameServer) register(s *game.Session) {
	id := s.ID
	s.Mu.Lock()
	s.BroadcastFn = func(ev game.GameEvent) { gs.broadcast(id, ev) }
	s.OnGameEnd = gs.onGameEnd
	s.Mu.Unlock()
	gs.Sessions.AddSession(s)
}

// broadcast sends ev to the game's connections, if any are open.
func (gs *GameServer) broadcast(id uuid.UUID, ev game.GameEvent) {
	gs.hubsMu.Lock()
	h := gs.hubs[id]
	gs.hubsMu.Unlock()
	if h != nil {
		h.broadcast(ev)
	}
}

// join adds a connection to the game's hub, creating the hub on first use.
func (gs *GameServer) join(id uuid.UUID, conn *websocket.Conn) (*hub, *client) {
	gs.hubsMu.Lock()
	defer gs.hubsMu.Unlock()
	h, ok := gs.hubs[id]
	if !ok {
		h = newHub(id, gs.logger)
		gs.hubs[id] = h
	}
	return h, h.add(conn)
}

// leave removes a connection and drops the hub once it is empty.
func (gs *GameServer) leave(h *hub, cl *client) {
	gs.hubsMu.Lock()
	defer gs.hubsMu.Unlock()
	h.remove(cl)
	if h.count() == 0 && gs.hubs[h.gameID] == h {
		delete(gs.hubs, h.gameID)
	}
}

// connections counts the open sockets on a game.
func (gs *GameServer) connections(id uuid.UUID) int {
	gs.hubsMu.Lock()
	defer gs.hubsMu.Unlock()
	if h, ok := gs.hubs[id]; ok {
		return h.count()
	}
	return 0
}

// onGameEnd runs with the session lock held, so persistence happens on its
// own goroutine once the lock is released. The finished game then leaves
// memory; open sockets keep their session until they close.
func (gs *GameServer) onGameEnd(s *game.Session) {
	go func() {
		if gs.Repo != nil {
			saved := s.Save()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := gs.Repo.RecordFinished(ctx, saved); err != nil {
				gs.logger.WithError(err).WithField("session", s.ID.String()).Warn("failed to record finished game")
			}
		}
		gs.Sessions.DeleteSession(s.ID)
	}()
}

// RunEviction checks for idle sessions every interval until ctx is done.
func (gs *GameServer) RunEviction(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gs.evictIdle(ctx, now, idle)
		}
	}
}

// evictIdle saves and drops every session with no action for idle and no open
// connection. It returns how many were dropped.
func (gs *GameServer) evictIdle(ctx context.Context, now time.Time, idle time.Duration) int {
	evicted := 0
	for _, s := range gs.Sessions.Sessions() {
		if now.Sub(s.LastActive()) < idle || gs.connections(s.ID) > 0 {
			continue
		}
		saved := s.Save()
		if !saved.Won {
			gs.persist(ctx, saved)
		}
		gs.Sessions.DeleteSession(s.ID)
		evicted++
		gs.logger.WithField("session", s.ID.String()).Info("evicted idle game")
	}
	return evicted
}

// persist writes saved to every configured store, logging failures.
func (gs *GameServer) persist(ctx context.Context, saved game.SavedGame) {
	logger := gs.logger.WithField("session", saved.ID.String())
	if gs.Snapshots != nil {
		if err := gs.Snapshots.SaveSnapshot(ctx, saved); err != nil {
			logger.WithError(err).Warn("failed to save snapshot")
		}
	}
	if gs.Repo != nil {
		if err := gs.Repo.SaveGame(ctx, saved); err != nil {
			logger.WithError(err).Warn("failed to save game")
		}
	}
}

// session resolves the {id} path value to a live session.
func (gs *GameServer) session(r *http.Request) (*game.Session, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, errBadGameID
	}
	s, ok := gs.Sessions.GetSession(id)
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	return s, nil
}

// requireToken rejects requests whose token was not issued for the session
// named in the path.
func (gs *GameServer) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, errBadGameID)
			return
		}
		if err := gs.Signer.Authorize(extractToken(r), id); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}
