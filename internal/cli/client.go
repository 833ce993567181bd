package cli

import (
	"context"

	"github.com/matzehuels/atalogics/pkg/atalogics"
	v2 "github.com/matzehuels/atalogics/pkg/atalogics/v2"
	v3 "github.com/matzehuels/atalogics/pkg/atalogics/v3"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/session"
)

// =============================================================================
// Configuration
// =============================================================================

// readConfig reads the config file and environment and applies the global
// flags. The result is not validated.
func (c *CLI) readConfig(ctx context.Context) (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Read(ctx, path)
	if err != nil {
		return cfg, err
	}
	if c.sandbox {
		cfg.SandboxMode = true
	}
	if c.noCache {
		cfg.Cache.Type = config.CacheNone
	}
	// A stored token may have been revoked since it was saved.
	cfg.AutoRefresh = true
	return cfg, nil
}

// loadConfig is readConfig followed by validation.
func (c *CLI) loadConfig(ctx context.Context) (config.Config, error) {
	cfg, err := c.readConfig(ctx)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// =============================================================================
// Sessions
// =============================================================================

// sessions opens the token store for cfg's client and environment. It
// returns nil when sessions are disabled or the store cannot be opened.
func (c *CLI) sessions(cfg config.Config) *session.CLIStore {
	if c.noSession {
		return nil
	}
	store, err := session.NewCLIStore(c.sessionDir, cfg.ClientID, cfg.SandboxMode)
	if err != nil {
		c.Logger.Warn("session store unavailable", "err", err)
		return nil
	}
	return store
}

// =============================================================================
// Client Factory
// =============================================================================

// connect creates a client for the given API version. A stored token is
// reused when present; every token the client obtains is stored again.
func (c *CLI) connect(ctx context.Context, version int) (*atalogics.Client, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	opts := []atalogics.Option{atalogics.WithLogger(c.Logger)}
	store := c.sessions(cfg)
	restored := false
	if store != nil {
		sess, err := store.GetSession(ctx)
		switch {
		case err != nil:
			c.Logger.Warn("ignoring stored token", "err", err)
		case sess != nil:
			c.Logger.Debug("reusing stored token", "expires_at", sess.ExpiresAt)
			opts = append(opts, atalogics.WithToken(sess.AccessToken, sess.TokenType))
			restored = true
		}
	}

	client, err := atalogics.New(ctx, cfg, version, opts...)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return client, nil
	}

	save := func(token, tokenType string, expiresIn int) {
		if err := store.SaveSession(ctx, session.New(token, tokenType, expiresIn)); err != nil {
			c.Logger.Warn("failed to store token", "err", err)
		}
	}
	client.OnAccessTokenChange(save)
	if !restored {
		tok := client.Token()
		save(tok.AccessToken, tok.TokenType, tok.ExpiresIn)
	}
	return client, nil
}

func (c *CLI) v2Client(ctx context.Context) (*v2.Client, error) {
	client, err := c.connect(ctx, v2.Version)
	if err != nil {
		return nil, err
	}
	return &v2.Client{Client: client}, nil
}

func (c *CLI) v3Client(ctx context.Context) (*v3.Client, error) {
	client, err := c.connect(ctx, v3.Version)
	if err != nil {
		return nil, err
	}
	return &v3.Client{Client: client}, nil
}

// =============================================================================
// Response Output
// =============================================================================

// printResponse prints the status line and the indented body.
func (c *CLI) printResponse(resp *atalogics.Response) {
	if c.jsonOutput {
		printJSON(c.out, resp.Body)
		return
	}
	printStatus(c.out, resp.Code, resp.Cached)
	if len(resp.Body) > 0 {
		printJSON(c.out, resp.Body)
	}
}
