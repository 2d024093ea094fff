// Package telemetryserver implements the telemetry HTTP server (spec.md
// C8): a fixed router over a single TCP or Unix listener, adapted from the
// teacher's adapters/telemetryhttp/handlers.go.
package telemetryserver

import (
	"net/http"
	"net/url"
)

// HandlerFunc is this router's handler shape: an error return lets a
// handler report failure without reaching for panics or sentinel status
// writes; the router turns a returned error into a 500 with the error text
// (spec.md §4.8 "Handler errors become 500 with the error text").
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// FromHTTPHandler adapts a plain http.Handler (which can never report an
// error through this router's contract) into a HandlerFunc.
func FromHTTPHandler(h http.Handler) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	}
}

type routeKey struct {
	method string
	path   string
}

// Router is the fixed method->path->handler map of spec.md §4.8. First
// registration wins per (method, path): a later registration of the same
// key is silently ignored, so a misconfigured custom route can never shadow
// a built-in one registered first.
type Router struct {
	routes map[routeKey]HandlerFunc
}

// NewRouter builds an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[routeKey]HandlerFunc)}
}

// Register adds handler for method+path if no handler is registered there
// yet; it reports whether the registration took effect.
func (r *Router) Register(method, path string, handler HandlerFunc) bool {
	key := routeKey{method: method, path: path}
	if _, exists := r.routes[key]; exists {
		return false
	}
	r.routes[key] = handler
	return true
}

// ServeHTTP percent-decodes the request path, looks it up against
// method+path, and dispatches. Invalid percent-encoding is a 400; an
// unmatched route is a 404 with an empty body; a handler error is a 500
// whose body is the error text.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path, err := url.PathUnescape(req.URL.Path)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	handler, ok := r.routes[routeKey{method: req.Method, path: path}]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := handler(w, req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
