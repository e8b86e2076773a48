package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"#/":                                 "/",
		"#/writer":                           "/writer",
		"#/writer/":                          "/writer",
		"#/playground?seed=4":                "/playground",
		"http://localhost:8080/#/writer?x=1": "/writer",
		"http://localhost:8080/":             "/",
		"/writer":                            "/writer",
		"writer":                             "/writer",
		"#":                                  "/",
		"//":                                 "/",
	}
	for location, want := range cases {
		assert.Equal(t, want, ParseLocation(location), "location %q", location)
	}
}

func TestResolveDefaultRoutes(t *testing.T) {
	r := MustRouter(DefaultRoutes)

	assert.Equal(t, Match{Route: Route{Path: "/", Name: Home}}, r.ResolveLocation("#/"))
	assert.Equal(t, Match{Route: Route{Path: "/writer", Name: Writer}}, r.ResolveLocation("#/writer"))
	assert.Equal(t, Match{Route: Route{Path: "/playground", Name: Playground}}, r.ResolveLocation("#/playground"))
}

func TestResolveUnknownRedirectsHome(t *testing.T) {
	r := MustRouter(DefaultRoutes)

	m := r.ResolveLocation("#/settings")
	assert.True(t, m.Redirected)
	assert.Equal(t, Home, m.Name)
	assert.Equal(t, "/", m.Path)

	// Matching is exact; sub-paths are not views.
	assert.True(t, r.Resolve("/writer/12").Redirected)
}

func TestNewRouterValidates(t *testing.T) {
	_, err := NewRouter([]Route{{Path: "writer", Name: Writer}, {Path: "/", Name: Home}})
	assert.ErrorIs(t, err, ErrInvalidRoutes)

	_, err = NewRouter([]Route{{Path: "/", Name: Home}, {Path: "/writer/", Name: Writer}, {Path: "/writer", Name: Playground}})
	assert.ErrorIs(t, err, ErrInvalidRoutes)

	_, err = NewRouter([]Route{{Path: "/writer", Name: Writer}})
	assert.ErrorIs(t, err, ErrInvalidRoutes)

	_, err = NewRouter([]Route{{Path: "/", Name: ""}})
	assert.ErrorIs(t, err, ErrInvalidRoutes)

	assert.Panics(t, func() { MustRouter(nil) })
}

func TestRoutesReturnsCopy(t *testing.T) {
	r := MustRouter(DefaultRoutes)
	routes := r.Routes()
	require.Len(t, routes, 3)
	routes[0].Name = "Hacked"
	assert.Equal(t, Home, r.Resolve("/").Name)
}
