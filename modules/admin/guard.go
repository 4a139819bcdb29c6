package admin

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Guard authenticates requests with HTTP basic auth against the single
// operator credential.
type Guard struct {
	email        string
	passwordHash []byte
}

// NewGuard takes the operator email and a bcrypt hash of the password.
func NewGuard(email, passwordHash string) *Guard {
	return &Guard{email: email, passwordHash: []byte(passwordHash)}
}

// Middleware rejects requests that do not carry the operator credential.
// The email comparison is constant-time over fixed-length digests so
// neither length nor content leaks through timing; bcrypt comparison is
// constant-time by construction.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !g.authenticate(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="glomun admin"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) authenticate(user, pass string) bool {
	wantUser := sha256.Sum256([]byte(g.email))
	gotUser := sha256.Sum256([]byte(user))
	if subtle.ConstantTimeCompare(wantUser[:], gotUser[:]) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.passwordHash, []byte(pass)) == nil
}
