// Package auth provides authentication middleware for torstats-server.
//
// Middleware(mode, header, key) wraps an http.Handler and validates the API
// key from the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). When the key is incorrect or absent
// the middleware answers 401 without calling the wrapped handler.
package auth
