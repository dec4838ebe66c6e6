package geo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/profile"
)

// Nominatim geocodes and searches through an OpenStreetMap Nominatim server.
// The public server allows one request per second.
type Nominatim struct {
	http   *httpClient
	bounds *config.Bounds
}

// NewNominatim creates a Nominatim provider. Results are restricted to bounds
// when it is non-nil.
func NewNominatim(opts ProviderOptions, bounds *config.Bounds) *Nominatim {
	return &Nominatim{
		http:   newHTTPClient("nominatim", opts, rate.Every(time.Second), 1),
		bounds: bounds,
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (profile.Coordinates, bool, error) {
	places, err := n.search(ctx, address, 1)
	if err != nil || len(places) == 0 {
		return profile.Coordinates{}, false, err
	}
	c, err := places[0].coordinates()
	if err != nil {
		return profile.Coordinates{}, false, err
	}
	return c, true, nil
}

func (n *Nominatim) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	places, err := n.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(places))
	for _, p := range places {
		c, err := p.coordinates()
		if err != nil {
			continue
		}
		street := strings.TrimSpace(p.Address.HouseNumber + " " + p.Address.Road)
		city := firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village)
		out = append(out, Candidate{
			Label: p.DisplayName,
			Address: profile.Address{
				Street:      street,
				City:        city,
				State:       p.Address.State,
				Zip:         p.Address.Postcode,
				FullAddress: profile.ComposeAddress(street, city, p.Address.State, p.Address.Postcode),
			},
			Coordinates: c,
		})
	}
	return out, nil
}

func (n *Nominatim) search(ctx context.Context, query string, limit int) ([]nominatimPlace, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	if n.bounds != nil {
		b := n.bounds
		q.Set("viewbox", fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MaxLat, b.MaxLng, b.MinLat))
		q.Set("bounded", "1")
	}

	var places []nominatimPlace
	if err := n.http.getJSON(ctx, "/search", q, nil, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (p nominatimPlace) coordinates() (profile.Coordinates, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return profile.Coordinates{}, fmt.Errorf("nominatim: bad lat %q", p.Lat)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return profile.Coordinates{}, fmt.Errorf("nominatim: bad lon %q", p.Lon)
	}
	return profile.Coordinates{Lat: lat, Lng: lng}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
