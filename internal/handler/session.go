package handler

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	sessionHeader = "X-Cart-Session"
	sessionCookie = "kokoro_cart"

	// Carts have no expiry policy of their own; the cookie lifetime is the
	// practical bound, mirroring browser local storage.
	sessionCookieMaxAge = 365 * 24 * 60 * 60
)

// cartID resolves the cart slot for this request. An explicit header wins
// over the cookie; with neither present a new session is minted and the
// cookie set on the response.
func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
