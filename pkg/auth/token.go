package auth

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Token is a bearer credential issued by the identity endpoint.
// A Token is never mutated after it has been stored.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in,omitempty"` // seconds, informational
	IssuedAt    time.Time `json:"issued_at"`
}

// UnmarshalJSON decodes a token response. expires_in is accepted as a
// number or a numeric string; anything else decodes as 0.
func (t *Token) UnmarshalJSON(data []byte) error {
	type plain Token
	aux := struct {
		*plain
		ExpiresIn json.RawMessage `json:"expires_in"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.ExpiresIn = parseSeconds(aux.ExpiresIn)
	return nil
}

func parseSeconds(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// Header renders the Authorization header value, "{type} {token}".
func (t *Token) Header() string {
	return t.TokenType + " " + t.AccessToken
}

// State describes whether a token is held.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// TokenStore holds the current token. Replacement is a single atomic
// pointer swap, so readers see either the old or the new token whole.
type TokenStore struct {
	p atomic.Pointer[Token]
}

// Load returns the current token, or nil.
func (s *TokenStore) Load() *Token {
	return s.p.Load()
}

// Swap installs t and returns the previous token.
func (s *TokenStore) Swap(t *Token) *Token {
	return s.p.Swap(t)
}
