package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atalogics/pkg/observability"
)

// stats counts client events during one command run.
type stats struct {
	requests   atomic.Int64
	httpErrors atomic.Int64
	refreshes  atomic.Int64
	retries    atomic.Int64
	cacheHits  atomic.Int64
	cacheMiss  atomic.Int64
	cacheSets  atomic.Int64
}

var (
	_ observability.AuthHooks  = (*stats)(nil)
	_ observability.CacheHooks = (*stats)(nil)
	_ observability.HTTPHooks  = (*stats)(nil)
)

// register installs s as the global auth, cache and HTTP hooks.
func (s *stats) register() {
	observability.SetAuthHooks(s)
	observability.SetCacheHooks(s)
	observability.SetHTTPHooks(s)
}

// log writes a one-line summary at debug level.
func (s *stats) log(logger *log.Logger) {
	logger.Debug("client stats",
		"requests", s.requests.Load(),
		"http_errors", s.httpErrors.Load(),
		"token_refreshes", s.refreshes.Load(),
		"auth_retries", s.retries.Load(),
		"cache_hits", s.cacheHits.Load(),
		"cache_misses", s.cacheMiss.Load(),
		"cache_sets", s.cacheSets.Load(),
	)
}

func (s *stats) OnTokenRefresh(context.Context, time.Duration, error) { s.refreshes.Add(1) }
func (s *stats) OnAuthRetry(context.Context, string, string, int)    { s.retries.Add(1) }

func (s *stats) OnCacheHit(context.Context, string)      { s.cacheHits.Add(1) }
func (s *stats) OnCacheMiss(context.Context, string)     { s.cacheMiss.Add(1) }
func (s *stats) OnCacheSet(context.Context, string, int) { s.cacheSets.Add(1) }

func (s *stats) OnRequest(context.Context, string, string, string) { s.requests.Add(1) }
func (s *stats) OnResponse(context.Context, string, string, string, int, time.Duration) {
}
func (s *stats) OnError(context.Context, string, string, string, error) { s.httpErrors.Add(1) }
