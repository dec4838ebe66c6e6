// Package geo wraps the external geocoding, address search and routing
// services. Every lookup is best-effort: providers are tried in order and an
// exhausted chain yields a Result with Found false, never an error.
package geo

import (
	"context"

	"github.com/hpungsan/internmap/internal/profile"
)

// Mode is a routing profile.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeWalking Mode = "walking"
)

// Modes are the routing profiles providers can compute. Bus time is entered
// by hand.
var Modes = []Mode{ModeDriving, ModeWalking}

// Result is the uniform outcome of a lookup.
type Result[T any] struct {
	Value T    `json:"value"`
	Found bool `json:"found"`
	// Provider names the provider that answered.
	Provider string `json:"provider,omitempty"`
}

// Candidate is one address search hit.
type Candidate struct {
	Label       string              `json:"label"`
	Address     profile.Address     `json:"address"`
	Coordinates profile.Coordinates `json:"coordinates"`
}

// Geocoder resolves a free-text address to a single point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) Result[profile.Coordinates]
}

// Searcher returns address candidates for a partial query.
type Searcher interface {
	Search(ctx context.Context, query string) Result[[]Candidate]
}

// Router estimates travel minutes between two points.
type Router interface {
	Route(ctx context.Context, from, to profile.Coordinates, mode Mode) Result[int]
}

// Provider is implemented by every external service adapter.
type Provider interface {
	Name() string
}

// GeocodeProvider is a single geocoding service.
type GeocodeProvider interface {
	Provider
	Geocode(ctx context.Context, address string) (profile.Coordinates, bool, error)
}

// SearchProvider is a single address search service.
type SearchProvider interface {
	Provider
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// RouteProvider is a single routing service. ok is false when the service
// found no route.
type RouteProvider interface {
	Provider
	Route(ctx context.Context, from, to profile.Coordinates, mode Mode) (minutes int, ok bool, err error)
}
