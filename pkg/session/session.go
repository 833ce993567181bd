// Package session persists access tokens between CLI invocations.
//
// A Session is the token pair the identity endpoint issued for one set of
// credentials in one environment (sandbox or production). The CLI saves it
// from the client's token-change callback and presets it on the next run,
// so repeated commands do not each cost a token request.
//
// # Usage
//
//	store, err := session.NewCLIStore("", cfg.ClientID, cfg.SandboxMode)
//	sess, err := store.GetSession(ctx)
//	if sess != nil {
//	    opts = append(opts, atalogics.WithToken(sess.AccessToken, sess.TokenType))
//	}
//	client.OnAccessTokenChange(func(token, tokenType string, expiresIn int) {
//	    _ = store.SaveSession(ctx, session.New(token, tokenType, expiresIn))
//	})
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// DefaultTTL bounds sessions whose token did not advertise a lifetime.
const DefaultTTL = 24 * time.Hour

// Session stores an issued token pair.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}

// New creates a session for a freshly issued token. expiresIn is in
// seconds; zero or negative means DefaultTTL.
func New(accessToken, tokenType string, expiresIn int) *Session {
	ttl := time.Duration(expiresIn) * time.Second
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresIn:   expiresIn,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
}
