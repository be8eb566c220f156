package session

import (
	"net/http"
	"time"
)

// CookieName is the cookie that carries the opaque session credential. The
// gateway never parses the credential's contents; the identity authority is
// the sole source of truth for what it means.
const CookieName = "jwt"

// cookiePath must match between issue and clear, or the deletion silently
// no-ops in the browser.
const cookiePath = "/"

// CookieStore reads and writes the single session credential held by the
// browser. It is the only state this gateway owns.
type CookieStore struct {
	Secure bool
	TTL    time.Duration

	// NowFunc lets tests pin the expiry clock.
	NowFunc func() time.Time
}

// NewCookieStore returns a store issuing cookies with the given lifetime.
func NewCookieStore(secure bool, ttl time.Duration) CookieStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return CookieStore{Secure: secure, TTL: ttl}
}

// Token extracts the session credential from the request, if present.
func (s CookieStore) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Issue writes a fresh session credential to the response.
func (s CookieStore) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     cookiePath,
		Expires:  s.now().Add(s.TTL),
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   s.Secure,
	})
}

// Clear deletes the session credential. The path matches Issue exactly.
func (s CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     cookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   s.Secure,
	})
}

func (s CookieStore) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
