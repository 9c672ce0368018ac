// Package server provides HTTP routing, middleware, OAuth handling, and the export API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] is the stock middleware, logging method, path, status, and duration per request.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally, so route patterns
// may carry method prefixes and wildcards ("GET /export/{id}").
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Export API
//
// [ExportHandler] serves the export surface used by `spx serve`:
//
//	GET /health               → liveness probe plus the wired service's name
//	GET /playlists            → one raw page of the upstream playlist listing (offset, limit)
//	GET /export/{id}?format=  → one playlist encoded as json, csv, xls, or xlsx,
//	                            streamed as an attachment with its exact byte length
//
// Upstream failures map to 401 (missing or expired credentials), 404 (unknown
// playlist), or 502; unknown formats are rejected with 400 before any fetch.
//
// # Current Usage
//
// When the user runs `spx login`, a temporary HTTP server starts on localhost:3000,
// handles the OAuth callback, and shuts down after receiving the token.
// `spx serve` runs the export API as a long-lived server sharing the same router.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
