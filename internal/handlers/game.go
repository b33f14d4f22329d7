// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
)

// maxCells bounds the free cells a client may ask for.
const maxCells = 8

var errSessionLive = errors.New("session is already live")

type createGameRequest struct {
	DrawCount  int    `json:"drawCount,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Deck       []int  `json:"deck,omitempty"`
	Cells      int    `json:"cells,omitempty"`
}

type gameResponse struct {
	ID         uuid.UUID       `json:"id"`
	Token      string          `json:"token"`
	Reshuffled bool            `json:"reshuffled,omitempty"`
	State      game.BoardState `json:"state"`
}

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Card string `json:"card,omitempty"`
}

// decodeBody reads JSON into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func (gs *GameServer) rulesFor(req createGameRequest) (models.Rules, error) {
	rules := gs.Rules
	if req.DrawCount != 0 {
		rules.DrawCount = req.DrawCount
	}
	if req.Difficulty != "" {
		d, err := models.ParseDifficulty(req.Difficulty)
		if err != nil {
			return rules, fmt.Errorf("%w: %v", errBadBody, err)
		}
		rules.Difficulty = d
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return rules, nil
}

// respondWithSession mints a token for s and writes it with the board state.
func (gs *GameServer) respondWithSession(w http.ResponseWriter, status int, s *game.Session) {
	token, err := gs.Signer.CreateToken(s.ID)
	if err != nil {
		gs.logger.WithError(err).Error("failed to sign session token")
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/game/" + s.ID.String(),
	})
	writeJSON(w, status, gameResponse{
		ID:         s.ID,
		Token:      token,
		Reshuffled: s.Reshuffled(),
		State:      s.State(),
	})
}

// handleCreate deals a new game. The body may override the server's rules,
// fix the deck order, or change the number of free cells.
func (gs *GameServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rules, err := gs.rulesFor(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Cells < 0 || req.Cells > maxCells {
		writeError(w, fmt.Errorf("%w: cells must be between 0 and %d", errBadBody, maxCells))
		return
	}

	var extra []game.Option
	if req.Cells > 0 {
		extra = append(extra, game.WithCells(req.Cells))
	}
	s, err := game.NewSession(rules, req.Deck, gs.newSessionOptions(extra...)...)
	if err != nil {
		writeError(w, err)
		return
	}
	gs.register(s)
	gs.logger.WithField("session", s.ID.String()).Info("game created")
	gs.respondWithSession(w, http.StatusCreated, s)
}

func (gs *GameServer) handleState(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (gs *GameServer) handleMove(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.Move(req.From, req.Card, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"move":  res,
		"state": s.State(),
	})
}

func (gs *GameServer) handleDraw(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := s.Draw()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": res.Outcome.String(),
		"draw":    res,
		"state":   s.State(),
	})
}

func (gs *GameServer) handleUndo(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Undo(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": s.State()})
}

func (gs *GameServer) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	moved := s.AutoPlay()
	if moved == nil {
		moved = []game.MoveResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moves": moved,
		"state": s.State(),
	})
}

// handleHint answers with {"hint": null} when nothing can be played.
func (gs *GameServer) handleHint(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var hint *game.Hint
	if h, ok := s.Hint(); ok {
		hint = &h
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hint": hint})
}

// handleSave writes the game to every configured store and returns the save
// itself so clients can keep a copy.
func (gs *GameServer) handleSave(w http.ResponseWriter, r *http.Request) {
	s, err := gs.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved := s.Save()
	stores := []string{}
	if gs.Snapshots != nil {
		if err := gs.Snapshots.SaveSnapshot(r.Context(), saved); err != nil {
			gs.logger.WithError(err).WithField("session", s.ID.String()).Error("snapshot save failed")
			writeError(w, err)
			return
		}
		stores = append(stores, "redis")
	}
	if gs.Repo != nil {
		if err := gs.Repo.SaveGame(r.Context(), saved); err != nil {
			gs.logger.WithError(err).WithField("session", s.ID.String()).Error("database save failed")
			writeError(w, err)
			return
		}
		stores = append(stores, "postgres")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"saved":  saved,
		"stores": stores,
	})
}

// handleLoad brings a saved game back from the snapshot cache or, failing
// that, the database.
func (gs *GameServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errBadGameID)
		return
	}
	if _, ok := gs.Sessions.GetSession(id); ok {
		writeError(w, fmt.Errorf("%w: %s", errSessionLive, id))
		return
	}

	saved, err := gs.loadSaved(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := game.RestoreSession(saved, gs.newSessionOptions()...)
	if err != nil {
		writeError(w, err)
		return
	}
	gs.register(s)
	gs.logger.WithField("session", s.ID.String()).Info("game loaded")
	gs.respondWithSession(w, http.StatusOK, s)
}

func (gs *GameServer) loadSaved(r *http.Request, id uuid.UUID) (game.SavedGame, error) {
	lastErr := fmt.Errorf("%w: %s", game.ErrSessionNotFound, id)
	if gs.Snapshots != nil {
		saved, err := gs.Snapshots.LoadSnapshot(r.Context(), id)
		if err == nil {
			return saved, nil
		}
		lastErr = err
	}
	if gs.Repo != nil {
		saved, err := gs.Repo.LoadGame(r.Context(), id)
		if err == nil {
			return saved, nil
		}
		lastErr = err
	}
	return game.SavedGame{}, lastErr
}
