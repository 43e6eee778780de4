package api

import (
	"net/http"
	"strings"
)

// Authenticator resolves the calling user from a request. A false return
// means unauthenticated; handlers map it to a 401.
type Authenticator interface {
	Authenticate(r *http.Request) (string, bool)
}

// TokenAuthenticator maps static bearer tokens to user IDs. Tokens come from
// configuration as "token:user" pairs separated by commas.
type TokenAuthenticator struct {
	users map[string]string
}

func NewTokenAuthenticator(tokens string) *TokenAuthenticator {
	users := map[string]string{}
	for _, pair := range strings.Split(tokens, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		users[token] = user
	}
	return &TokenAuthenticator{users: users}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	user, ok := a.users[strings.TrimSpace(token)]
	return user, ok
}
