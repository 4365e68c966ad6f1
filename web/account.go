package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/posthub/auth"
	authcontext "github.com/nasermirzaei89/posthub/auth/context"
)

func (h *Handler) HandleRegisterPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "register-page.gohtml", map[string]any{"SiteTitle": "Register"})
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleRegister() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		if password != r.FormValue("password_confirm") {
			h.renderTemplateStatus(w, r, http.StatusBadRequest, "register-page.gohtml", map[string]any{
				"SiteTitle": "Register",
				"Error":     "Passwords do not match",
				"Username":  username,
			})

			return
		}

		_, err = h.authSvc.Register(r.Context(), username, password)
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError {
				h.handleError(w, r, "failed to register user", err)

				return
			}

			h.renderTemplateStatus(w, r, status, "register-page.gohtml", map[string]any{
				"SiteTitle": "Register",
				"Error":     errorMessage(err, status),
				"Username":  username,
			})

			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLoginPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "login-page.gohtml", map[string]any{
			"SiteTitle": "Login",
			"Next":      sanitizeReturnToPath(r.URL.Query().Get("next")),
		})
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogin() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")
		next := sanitizeReturnToPath(r.FormValue("next"))

		session, err := h.authSvc.Login(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				h.handleError(w, r, "failed to login user", err)

				return
			}

			h.renderTemplateStatus(w, r, http.StatusUnauthorized, "login-page.gohtml", map[string]any{
				"SiteTitle": "Login",
				"Error":     "Invalid username or password",
				"Username":  username,
				"Next":      next,
			})

			return
		}

		err = h.setSessionValue(w, r, sessionIDKey, session.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session id", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, next, http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogoutPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "logout-page.gohtml", map[string]any{"SiteTitle": "Logout"})
	})

	return h.AuthenticatedOnly(hf)
}

// HandleLogout ends the current session, or every session of the user when the
// form asks for "everywhere".
func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.FormValue("everywhere") == "true" {
			userID := authcontext.GetSubject(ctx)

			deleted, err := h.authSvc.LogoutEverywhere(ctx, userID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to logout everywhere", "userId", userID, "error", err)
				http.Error(w, "failed to logout", http.StatusInternalServerError)

				return
			}

			slog.InfoContext(ctx, "user logged out everywhere", "userId", userID, "sessions", deleted)
		} else if sessionID, ok := authcontext.SessionIDFromContext(ctx); ok {
			err := h.authSvc.Logout(ctx, sessionID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to logout", "sessionId", sessionID, "error", err)
				http.Error(w, "failed to logout", http.StatusInternalServerError)

				return
			}
		}

		err := h.deleteSessionValue(w, r, sessionIDKey)
		if err != nil {
			slog.ErrorContext(ctx, "failed to delete session value", "key", sessionIDKey, "error", err)
			http.Error(w, "failed to delete session value", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
