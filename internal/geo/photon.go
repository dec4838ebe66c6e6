package geo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/profile"
)

// Photon geocodes and searches through a Komoot Photon server. It is the
// fallback for Nominatim.
type Photon struct {
	http   *httpClient
	bias   *config.Point
	bounds *config.Bounds
}

// NewPhoton creates a Photon provider biased toward bias and limited to bounds
// when they are non-nil.
func NewPhoton(opts ProviderOptions, bias *config.Point, bounds *config.Bounds) *Photon {
	return &Photon{
		http:   newHTTPClient("photon", opts, rate.Limit(5), 2),
		bias:   bias,
		bounds: bounds,
	}
}

func (p *Photon) Name() string { return "photon" }

type photonResponse struct {
	Features []struct {
		Geometry struct {
			// Coordinates is [lon, lat].
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name        string `json:"name"`
			HouseNumber string `json:"housenumber"`
			Street      string `json:"street"`
			City        string `json:"city"`
			State       string `json:"state"`
			Postcode    string `json:"postcode"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *Photon) Geocode(ctx context.Context, address string) (profile.Coordinates, bool, error) {
	cands, err := p.Search(ctx, address, 1)
	if err != nil || len(cands) == 0 {
		return profile.Coordinates{}, false, err
	}
	return cands[0].Coordinates, true, nil
}

func (p *Photon) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("lang", "en")
	if p.bias != nil {
		q.Set("lat", strconv.FormatFloat(p.bias.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(p.bias.Lng, 'f', -1, 64))
	}
	if p.bounds != nil {
		b := p.bounds
		q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat))
	}

	var resp photonResponse
	if err := p.http.getJSON(ctx, "/api/", q, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		props := f.Properties
		street := strings.TrimSpace(props.HouseNumber + " " + props.Street)
		full := profile.ComposeAddress(street, props.City, props.State, props.Postcode)
		label := full
		if props.Name != "" && props.Name != street {
			label = props.Name + ", " + full
		}
		out = append(out, Candidate{
			Label: label,
			Address: profile.Address{
				Street:      street,
				City:        props.City,
				State:       props.State,
				Zip:         props.Postcode,
				FullAddress: full,
			},
			Coordinates: profile.Coordinates{
				Lat: f.Geometry.Coordinates[1],
				Lng: f.Geometry.Coordinates[0],
			},
		})
	}
	return out, nil
}
