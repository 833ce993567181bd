// Package pkg provides the libraries of the atalogics client for the
// ATALOGICS shipping API.
//
// # Overview
//
// A client authenticates with OAuth2 client credentials, sends requests to
// the versioned API (/api/v2, /api/v3) and keeps successful responses in a
// read-through cache. The pkg directory is organized into three areas:
//
//  1. [atalogics] - API clients (dispatcher, v2 and v3 endpoints)
//  2. [auth], [cache], [session] - Token lifecycle and storage backends
//  3. [config], [errors], [httputil], [observability] - Shared plumbing
//
// # Architecture
//
// The data flow of one API call:
//
//	v2/v3 endpoint (cache key, expiry predicate)
//	         ↓
//	    [atalogics] dispatcher: cache lookup
//	         ↓ miss or expired
//	    HTTP request with bearer token
//	         ↓ 401/403
//	    [auth] refresh, then one retry
//	         ↓ 2xx/3xx
//	    [cache] store [code, body] with TTL
//
// # Quick Start
//
// Check an address:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/atalogics/pkg/atalogics/v2"
//	    "github.com/matzehuels/atalogics/pkg/config"
//	)
//
//	cfg, _ := config.Load(ctx, config.DefaultPath())
//	client, _ := v2.New(ctx, cfg)
//	defer client.Close()
//
//	resp, _ := client.AddressCheck(ctx, v2.Address{
//	    Street: "Main St", Number: "5", PostalCode: "5020", City: "Salzburg",
//	})
//	fmt.Println(resp.Code, string(resp.Body))
//
// # Main Packages
//
// [atalogics] - The version-independent client: request dispatch with one
// token refresh and retry on 401/403, response classification, cache keys.
// The [atalogics/v2] and [atalogics/v3] subpackages add the endpoints.
//
// [auth] - Client-credentials token fetch and the atomically swapped token.
//
// [cache] - Cache stores (null, memory, file, Redis, MongoDB) and the
// namespaced layer that stores responses as [code, body] pairs.
//
// [session] - File-backed token persistence for the CLI.
//
// [config] - TOML and environment configuration.
//
// [errors] - Coded errors carrying the failed request and response.
//
// [httputil] - HTTP client construction and retry for transient failures.
//
// [observability] - Hooks for auth, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include MongoDB tests
//
// [atalogics]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/atalogics
// [atalogics/v2]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/atalogics/v2
// [atalogics/v3]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/atalogics/v3
// [auth]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/auth
// [cache]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/atalogics/pkg/observability
package pkg
