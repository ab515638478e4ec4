// Package httputil provides HTTP infrastructure for the community
// repository clients.
//
// # Overview
//
//   - [Client]: GET helper with response caching, default headers, and
//     conditional requests (If-None-Match) for the package index
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Client.Cached] and [Client.CachedText] store responses in a
// [cache.Cache] (file-backed under ~/.cache/vuru/ in the CLI) with a
// configurable TTL. Repeated lookups of the same index or template hit the
// cache instead of the network.
//
// # Retry
//
// [Retry] retries transient failures only: network errors, 5xx responses,
// and 429 rate limits are wrapped in [RetryableError] by the client; any
// other error returns immediately.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchIndex()
//	})
//
// Defaults: 3 attempts, 1 second base delay, doubling per attempt.
package httputil
