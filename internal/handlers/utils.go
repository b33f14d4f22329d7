package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/fourrow/internal/auth"
	"github.com/jason-s-yu/fourrow/internal/cache"
	"github.com/jason-s-yu/fourrow/internal/database"
	"github.com/jason-s-yu/fourrow/internal/deck"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
)

const tokenCookie = "auth_token"

var (
	errBadGameID = errors.New("invalid game id")
	errBadBody   = errors.New("invalid request body")
)

// extractToken reads the session token from the Authorization header, the
// auth_token cookie or the token query parameter, in that order.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadGameID), errors.Is(err, errBadBody),
		errors.Is(err, game.ErrUnknownPile), errors.Is(err, models.ErrInvalidOrdinal),
		errors.Is(err, game.ErrUnknownAction), errors.Is(err, deck.ErrMalformedDeck):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrWrongSession):
		return http.StatusForbidden
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, cache.ErrSnapshotNotFound),
		errors.Is(err, database.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrIllegalMove), errors.Is(err, game.ErrNothingToUndo),
		errors.Is(err, errSessionLive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
