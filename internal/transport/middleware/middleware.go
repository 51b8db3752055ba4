// Package middleware holds the HTTP middleware of the ops server. Each
// constructor returns a Middleware that chi's Router.Use accepts directly.
package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler
