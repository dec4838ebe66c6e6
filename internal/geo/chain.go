package geo

import (
	"context"
	"io"
	"log/slog"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/profile"
)

// Capability labels used in logs and metrics.
const (
	capGeocode = "geocode"
	capSearch  = "search"
	capRoute   = "route"
)

// SearchLimit is the maximum number of candidates a search returns.
const SearchLimit = 5

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// firstFound calls each provider in order and returns the first found value.
// Provider errors are logged and counted, then the next provider is tried.
func firstFound[P Provider, T any](
	ctx context.Context,
	logger *slog.Logger,
	capability string,
	providers []P,
	call func(P) (T, bool, error),
) Result[T] {
	for _, p := range providers {
		if ctx.Err() != nil {
			break
		}
		v, ok, err := call(p)
		switch {
		case err != nil:
			providerRequestsTotal.WithLabelValues(p.Name(), capability, "error").Inc()
			logger.Warn("provider failed", "provider", p.Name(), "capability", capability, "error", err)
		case !ok:
			providerRequestsTotal.WithLabelValues(p.Name(), capability, "empty").Inc()
		default:
			providerRequestsTotal.WithLabelValues(p.Name(), capability, "found").Inc()
			return Result[T]{Value: v, Found: true, Provider: p.Name()}
		}
	}
	return Result[T]{}
}

// GeocodeChain tries geocoding providers in order.
type GeocodeChain struct {
	providers []GeocodeProvider
	logger    *slog.Logger
}

// NewGeocodeChain creates a chain. A nil logger discards output.
func NewGeocodeChain(logger *slog.Logger, providers ...GeocodeProvider) *GeocodeChain {
	if logger == nil {
		logger = discardLogger()
	}
	return &GeocodeChain{providers: providers, logger: logger}
}

func (c *GeocodeChain) Geocode(ctx context.Context, address string) Result[profile.Coordinates] {
	if address == "" {
		return Result[profile.Coordinates]{}
	}
	return firstFound(ctx, c.logger, capGeocode, c.providers,
		func(p GeocodeProvider) (profile.Coordinates, bool, error) {
			return p.Geocode(ctx, address)
		})
}

// SearchChain tries search providers in order, dropping candidates outside
// bounds. A provider whose candidates all fall outside is treated as empty.
type SearchChain struct {
	providers []SearchProvider
	bounds    *config.Bounds
	logger    *slog.Logger
}

// NewSearchChain creates a chain. A nil bounds keeps every candidate.
func NewSearchChain(logger *slog.Logger, bounds *config.Bounds, providers ...SearchProvider) *SearchChain {
	if logger == nil {
		logger = discardLogger()
	}
	return &SearchChain{providers: providers, bounds: bounds, logger: logger}
}

func (c *SearchChain) Search(ctx context.Context, query string) Result[[]Candidate] {
	return firstFound(ctx, c.logger, capSearch, c.providers,
		func(p SearchProvider) ([]Candidate, bool, error) {
			cands, err := p.Search(ctx, query, SearchLimit)
			if err != nil {
				return nil, false, err
			}
			cands = c.inBounds(cands)
			return cands, len(cands) > 0, nil
		})
}

func (c *SearchChain) inBounds(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, cand := range cands {
		if c.bounds != nil && !c.bounds.Contains(cand.Coordinates.Lat, cand.Coordinates.Lng) {
			continue
		}
		out = append(out, cand)
		if len(out) == SearchLimit {
			break
		}
	}
	return out
}

// RouteChain tries routing providers in order.
type RouteChain struct {
	providers []RouteProvider
	logger    *slog.Logger
}

// NewRouteChain creates a chain. A nil logger discards output.
func NewRouteChain(logger *slog.Logger, providers ...RouteProvider) *RouteChain {
	if logger == nil {
		logger = discardLogger()
	}
	return &RouteChain{providers: providers, logger: logger}
}

func (c *RouteChain) Route(ctx context.Context, from, to profile.Coordinates, mode Mode) Result[int] {
	return firstFound(ctx, c.logger, capRoute, c.providers,
		func(p RouteProvider) (int, bool, error) {
			minutes, ok, err := p.Route(ctx, from, to, mode)
			return minutes, ok && minutes > 0, err
		})
}
