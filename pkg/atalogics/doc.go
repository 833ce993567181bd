// Package atalogics is the shared core of the ATALOGICS API clients.
//
// A [Client] owns the pieces every API version needs: the token
// [auth.Authenticator], a [Dispatcher] that sends requests, and a
// version-namespaced [cache.Layer]. The versioned clients in the v2 and v3
// subpackages embed *Client and add the endpoint methods.
//
// # Request flow
//
// [Dispatcher.Execute] performs one logical call:
//
//  1. With a cache key, look the response up. A hit whose expiry predicate
//     says it is still fresh is returned without network access.
//  2. Send the request with the current Authorization header.
//  3. On 401/403 with auto-refresh enabled, refresh the token once and send
//     once more. A second rejection is returned as an error.
//  4. Classify the status: 200, 201, 400 and 404 are responses, 500 is an
//     API error, anything else a generic error.
//  5. Store 2xx/3xx responses under the cache key.
//
// # Usage
//
//	cfg, err := config.Load(ctx, config.DefaultPath())
//	client, err := v3.New(ctx, cfg)
//	client.OnAccessTokenChange(func(token, tokenType string, expiresIn int) {
//	    // persist the token
//	})
//	resp, err := client.DeliveryAreas(ctx, "SALZBURG")
package atalogics
