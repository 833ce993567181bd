// Package httputil provides the HTTP plumbing shared by the atalogics clients.
//
// # Overview
//
//   - [Doer]: the one method the clients need from an HTTP transport
//   - [NewHTTPClient]: a standard client with the configured request timeout
//   - [Retry]: retry with exponential backoff for transport failures
//
// # Retry
//
// [Retry] only repeats errors wrapped in [RetryableError]. The API clients
// wrap connection-level failures of idempotent requests this way; HTTP
// status codes are never retried here, since status handling (including the
// single token refresh on 401/403) belongs to the dispatcher:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := doer.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
package httputil
