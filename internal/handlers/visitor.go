package handlers

import (
	"net/http"
	"time"

	"matchlab/internal/matching"
)

const visitorCookie = "matchlab_visitor"

// visitorFromCookie returns the visitor named by a well-formed cookie.
func visitorFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(visitorCookie)
	if err != nil || !validVisitorID(cookie.Value) {
		return "", false
	}
	return cookie.Value, true
}

// visitorID returns the visitor from the cookie, issuing a new one when the
// cookie is missing or malformed.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := visitorFromCookie(r); ok {
		return id
	}
	id := matching.NewVisitorID()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
	return id
}

func validVisitorID(id string) bool {
	if len(id) != 16 {
		return false
	}
	for _, c := range id {
		if (c < 'a' || c > 'z') && (c < '2' || c > '7') {
			return false
		}
	}
	return true
}
