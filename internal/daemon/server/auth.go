package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ontrack-io/ontrack/internal/daemon/session"
	"github.com/ontrack-io/ontrack/internal/models"
)

type contextKey int

const sessionKey contextKey = iota

// sessionFrom returns the session attached by requireUser.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

func userID(r *http.Request) string {
	return sessionFrom(r.Context()).UserID
}

// requireUser rejects requests without a live session cookie.
func (a *api) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sess, ok := a.sessions.Lookup(cookie.Value)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	u, err := a.users.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, r, err, "User not found.")
		return
	}
	a.startSession(w, r, u)
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Username: u.Username})
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	u, err := a.users.Authenticate(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, r, err, "User not found.")
		return
	}
	a.startSession(w, r, u)
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Username: u.Username})
}

func (a *api) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		a.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "User not found.")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Username: u.Username})
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, userResponse{ID: sess.UserID, Username: sess.Username})
}

func (a *api) handleTest(w http.ResponseWriter, r *http.Request) {
	var origin *string
	if o := r.Header.Get("Origin"); o != "" {
		origin = &o
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Connection successful",
		"origin":  origin,
	})
}

func (a *api) startSession(w http.ResponseWriter, r *http.Request, u *models.User) {
	sess := a.sessions.Create(u.ID, u.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(a.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
