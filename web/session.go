package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionIDKey     = "sessionId"
	sessionCookieAge = 30 * 24 * 60 * 60
)

// NewCookieStore returns the session store with the cookie options this site needs.
// secure must be false when the site is served over plain HTTP, or browsers drop the
// cookie and nobody stays logged in.
func NewCookieStore(secure bool, keyPairs ...[]byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(keyPairs...)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionCookieAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return store
}

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key %q not found", err.Key)
}

func (h *Handler) getSessionString(r *http.Request, key string) (string, error) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	value, ok := session.Values[key].(string)
	if !ok || value == "" {
		return "", &SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

func (h *Handler) setSessionValue(w http.ResponseWriter, r *http.Request, key string, value any) error {
	// A cookie that no longer decodes is replaced rather than reported.
	session, _ := h.cookieStore.Get(r, h.sessionName)

	session.Values[key] = value

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (h *Handler) deleteSessionValue(w http.ResponseWriter, r *http.Request, key string) error {
	session, _ := h.cookieStore.Get(r, h.sessionName)

	delete(session.Values, key)

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
