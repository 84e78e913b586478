package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Keys holds the API keys accepted by the status API. Admin keys also grant
// read access.
type Keys struct {
	Read  []string
	Admin []string
}

type role int

const (
	roleNone role = iota
	roleRead
	roleAdmin
)

// roleOf returns the strongest role the presented key grants.
func (k Keys) roleOf(key string) role {
	switch {
	case key == "":
		return roleNone
	case matchAny(key, k.Admin):
		return roleAdmin
	case matchAny(key, k.Read):
		return roleRead
	}
	return roleNone
}

func matchAny(key string, set []string) bool {
	found := false
	for _, k := range set {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			found = true
		}
	}
	return found
}

// presentedKey reads "Authorization: Bearer <key>" or "X-API-Key".
func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

func passThrough(next http.Handler) http.Handler { return next }

// RequireRead accepts read or admin keys. With no keys configured at all the
// read routes are open.
func RequireRead(keys Keys) func(http.Handler) http.Handler {
	if len(keys.Read) == 0 && len(keys.Admin) == 0 {
		return passThrough
	}
	return require(keys, roleRead)
}

// RequireAdmin accepts admin keys only: 401 without a key, 403 with a key
// that is not an admin key. With no admin keys configured the route is open.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	if len(keys.Admin) == 0 {
		return passThrough
	}
	return require(keys, roleAdmin)
}

func require(keys Keys, min role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			got := keys.roleOf(key)
			switch {
			case got >= min:
				next.ServeHTTP(w, r)
			case key != "" && min == roleAdmin:
				deny(w, http.StatusForbidden, "forbidden")
			default:
				deny(w, http.StatusUnauthorized, "unauthorized")
			}
		})
	}
}
