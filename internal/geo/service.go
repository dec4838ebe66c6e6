package geo

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/profile"
)

// Service bundles the cached provider chains configured for a deployment.
type Service struct {
	Geocoder Geocoder
	Searcher Searcher
	Router   Router

	// Origin is the fixed point travel times are measured from.
	Origin profile.Coordinates
}

// New builds the provider chains from cfg. Providers whose URL is empty or
// "off" are skipped; OpenRouteService also needs an API key. client may be nil.
func New(cfg *config.Config, client *http.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.With("component", "geo")

	base := ProviderOptions{
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.GeoTimeoutMS) * time.Millisecond,
		Client:    client,
	}
	with := func(url string) ProviderOptions {
		o := base
		o.BaseURL = url
		return o
	}

	origin := config.DefaultConfig().Origin
	if cfg.Origin != nil {
		origin = cfg.Origin
	}

	enabled := func(url string) bool { return url != "" && url != "off" }

	var geocoders []GeocodeProvider
	var searchers []SearchProvider
	if enabled(cfg.NominatimURL) {
		n := NewNominatim(with(cfg.NominatimURL), cfg.MetroBounds)
		geocoders = append(geocoders, n)
		searchers = append(searchers, n)
	}
	if enabled(cfg.PhotonURL) {
		p := NewPhoton(with(cfg.PhotonURL), origin, cfg.MetroBounds)
		geocoders = append(geocoders, p)
		searchers = append(searchers, p)
	}

	var routers []RouteProvider
	if enabled(cfg.OSRMURL) {
		routers = append(routers, NewOSRM(with(cfg.OSRMURL)))
	}
	if enabled(cfg.ORSURL) && cfg.ORSAPIKey != "" {
		routers = append(routers, NewORS(with(cfg.ORSURL), cfg.ORSAPIKey))
	}

	return &Service{
		Geocoder: NewCachedGeocoder(NewGeocodeChain(logger, geocoders...), DefaultCacheSize, DefaultCacheTTL),
		Searcher: NewCachedSearcher(NewSearchChain(logger, cfg.MetroBounds, searchers...), DefaultCacheSize, SearchCacheTTL),
		Router:   NewCachedRouter(NewRouteChain(logger, routers...), DefaultCacheSize, DefaultCacheTTL),
		Origin:   profile.Coordinates{Lat: origin.Lat, Lng: origin.Lng},
	}
}

// NewSession starts a type-ahead search session.
func (s *Service) NewSession() *SearchSession {
	return NewSearchSession(s.Searcher)
}

// TravelTimesTo looks up travel times from the service origin to dest.
func (s *Service) TravelTimesTo(ctx context.Context, dest profile.Coordinates) profile.TravelTime {
	return TravelTimes(ctx, s.Router, s.Origin, dest)
}
