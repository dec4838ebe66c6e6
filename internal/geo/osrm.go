package geo

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/hpungsan/internmap/internal/profile"
)

// OSRM computes route durations through an OSRM server.
type OSRM struct {
	http *httpClient
}

// NewOSRM creates an OSRM provider.
func NewOSRM(opts ProviderOptions) *OSRM {
	return &OSRM{http: newHTTPClient("osrm", opts, rate.Limit(5), 2)}
}

func (o *OSRM) Name() string { return "osrm" }

var osrmProfiles = map[Mode]string{
	ModeDriving: "driving",
	ModeWalking: "foot",
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (o *OSRM) Route(ctx context.Context, from, to profile.Coordinates, mode Mode) (int, bool, error) {
	prof, ok := osrmProfiles[mode]
	if !ok {
		return 0, false, nil
	}
	path := fmt.Sprintf("/route/v1/%s/%s;%s", prof, lngLat(from), lngLat(to))
	q := url.Values{}
	q.Set("overview", "false")

	var resp osrmResponse
	if err := o.http.getJSON(ctx, path, q, nil, &resp); err != nil {
		return 0, false, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return 0, false, nil
	}
	minutes := toMinutes(resp.Routes[0].Duration)
	return minutes, minutes > 0, nil
}

// lngLat formats c as "lng,lat", the order routing services expect.
func lngLat(c profile.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat)
}
