// Package view maps hash-history locations to the app's views.
//
// The table is static: three paths, three views, no guards and no lazy
// loading. A location that matches nothing resolves to the home view and
// is reported as a redirect so the shell can rewrite the address bar.
package view

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Names of the views the shell can render.
const (
	Home       = "Home"
	Writer     = "Writer"
	Playground = "Playground"
)

var ErrInvalidRoutes = errors.New("invalid route table")

// Route binds a path to a view name.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Match is the outcome of resolving a location.
type Match struct {
	Route
	Redirected bool `json:"redirected"`
}

// DefaultRoutes is the app's route table.
var DefaultRoutes = []Route{
	{Path: "/", Name: Home},
	{Path: "/writer", Name: Writer},
	{Path: "/playground", Name: Playground},
}

type Router struct {
	routes []Route
	byPath map[string]Route
	home   Route
}

// NewRouter validates the table: absolute, unique paths and a root route.
func NewRouter(routes []Route) (*Router, error) {
	r := &Router{byPath: make(map[string]Route, len(routes))}
	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("%w: path %q is not absolute", ErrInvalidRoutes, route.Path)
		}
		if route.Name == "" {
			return nil, fmt.Errorf("%w: path %q has no view", ErrInvalidRoutes, route.Path)
		}
		path := cleanPath(route.Path)
		if _, dup := r.byPath[path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidRoutes, path)
		}
		route.Path = path
		r.byPath[path] = route
		r.routes = append(r.routes, route)
	}
	home, ok := r.byPath["/"]
	if !ok {
		return nil, fmt.Errorf("%w: no route for /", ErrInvalidRoutes)
	}
	r.home = home
	return r, nil
}

// MustRouter is NewRouter for tables known to be valid.
func MustRouter(routes []Route) *Router {
	r, err := NewRouter(routes)
	if err != nil {
		panic(err)
	}
	return r
}

// Routes returns a copy of the table.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve matches a path exactly; unknown paths fall back to home.
func (r *Router) Resolve(path string) Match {
	if route, ok := r.byPath[cleanPath(path)]; ok {
		return Match{Route: route}
	}
	return Match{Route: r.home, Redirected: true}
}

// ResolveLocation parses a hash-history location and resolves its path.
func (r *Router) ResolveLocation(location string) Match {
	return r.Resolve(ParseLocation(location))
}

// ParseLocation extracts the route path from a location such as
// "http://host/#/writer?x=1", "#/writer" or "/writer".
func ParseLocation(location string) string {
	location = strings.TrimSpace(location)
	if i := strings.Index(location, "#"); i >= 0 {
		location = location[i+1:]
	} else if u, err := url.Parse(location); err == nil && (u.Scheme != "" || u.Host != "") {
		// A full URL without a fragment is the root of the app.
		return "/"
	}
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return cleanPath(location)
}

func cleanPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
