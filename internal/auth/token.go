package auth

import (
	"net/http"
	"strings"
)

const (
	CookieName = "pawmart_token"
	queryParam = "access_token"
)

// ExtractAccessToken looks in the Authorization header, then the session
// cookie, then the access_token query parameter. The query parameter exists
// for EventSource clients, which cannot set headers.
func ExtractAccessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.URL.Query().Get(queryParam)
}
