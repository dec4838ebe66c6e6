package geo

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/hpungsan/internmap/internal/profile"
)

// ORS computes route durations through OpenRouteService. It needs an API key
// and is the fallback for OSRM.
type ORS struct {
	http   *httpClient
	apiKey string
}

// NewORS creates an OpenRouteService provider.
func NewORS(opts ProviderOptions, apiKey string) *ORS {
	// The free plan allows 40 directions requests per minute.
	return &ORS{http: newHTTPClient("openrouteservice", opts, rate.Limit(40.0/60.0), 2), apiKey: apiKey}
}

func (o *ORS) Name() string { return "openrouteservice" }

var orsProfiles = map[Mode]string{
	ModeDriving: "driving-car",
	ModeWalking: "foot-walking",
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

func (o *ORS) Route(ctx context.Context, from, to profile.Coordinates, mode Mode) (int, bool, error) {
	prof, ok := orsProfiles[mode]
	if !ok {
		return 0, false, nil
	}
	q := url.Values{}
	q.Set("start", lngLat(from))
	q.Set("end", lngLat(to))
	header := http.Header{}
	header.Set("Authorization", o.apiKey)

	var resp orsResponse
	if err := o.http.getJSON(ctx, "/v2/directions/"+prof, q, header, &resp); err != nil {
		return 0, false, err
	}
	if len(resp.Features) == 0 {
		return 0, false, nil
	}
	minutes := toMinutes(resp.Features[0].Properties.Summary.Duration)
	return minutes, minutes > 0, nil
}
