package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/posthub/auth"
	authcontext "github.com/nasermirzaei89/posthub/auth/context"
)

// authMiddleware resolves the session cookie to a user and stores the user as the
// request subject. Stale sessions are dropped and the request continues anonymously.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.getSessionString(r, sessionIDKey)
		if err != nil {
			next.ServeHTTP(w, r)

			return
		}

		session, err := h.authSvc.GetSession(r.Context(), sessionID)
		if err != nil {
			var (
				sessionNotFoundErr *auth.SessionNotFoundError
				sessionExpiredErr  *auth.SessionExpiredError
			)

			if !errors.As(err, &sessionNotFoundErr) && !errors.As(err, &sessionExpiredErr) {
				slog.ErrorContext(r.Context(), "failed to get session", "sessionId", sessionID, "error", err)
				http.Error(w, "failed to get session", http.StatusInternalServerError)

				return
			}

			h.dropSession(w, r)
			next.ServeHTTP(w, r)

			return
		}

		ctx := authcontext.WithSessionID(r.Context(), session.ID)

		user, err := h.authSvc.GetUser(ctx, session.UserID)
		if err != nil {
			var userNotFoundErr *auth.UserNotFoundError
			if !errors.As(err, &userNotFoundErr) {
				slog.ErrorContext(ctx, "failed to get user", "userId", session.UserID, "error", err)
				http.Error(w, "failed to get user", http.StatusInternalServerError)

				return
			}

			err = h.authSvc.Logout(ctx, session.ID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to logout orphan session", "sessionId", session.ID, "error", err)
			}

			h.dropSession(w, r)
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(authcontext.WithSubject(ctx, user.ID)))
	})
}

func (h *Handler) dropSession(w http.ResponseWriter, r *http.Request) {
	err := h.deleteSessionValue(w, r, sessionIDKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to delete session value", "key", sessionIDKey, "error", err)
	}
}

func isAuthenticated(r *http.Request) bool {
	return authcontext.GetSubject(r.Context()) != authcontext.Anonymous
}

// actor returns the identity core operations run as for this request.
func (h *Handler) actor(r *http.Request) (auth.Actor, error) {
	return h.authSvc.ActorFor(r.Context())
}

func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			http.Redirect(w, r, loginURL(r), http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}
