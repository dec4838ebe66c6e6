package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/profile"
)

var (
	bellevue = profile.Coordinates{Lat: 47.6101, Lng: -122.2015}
	redmond  = profile.Coordinates{Lat: 47.6740, Lng: -122.1215}
	metro    = &config.Bounds{MinLat: 47.30, MinLng: -122.50, MaxLat: 47.90, MaxLng: -121.90}
)

func testOptions(url string) ProviderOptions {
	return ProviderOptions{BaseURL: url, UserAgent: "internmap-test", Timeout: time.Second, Rate: rate.Inf}
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// fakeGeocoder is a scripted GeocodeProvider.
type fakeGeocoder struct {
	name  string
	point profile.Coordinates
	found bool
	err   error
	calls int
}

func (f *fakeGeocoder) Name() string { return f.name }

func (f *fakeGeocoder) Geocode(context.Context, string) (profile.Coordinates, bool, error) {
	f.calls++
	return f.point, f.found, f.err
}

// fakeRouter returns fixed minutes per mode.
type fakeRouter struct {
	minutes map[Mode]int
	calls   atomic.Int32
}

func (f *fakeRouter) Route(_ context.Context, _, _ profile.Coordinates, mode Mode) Result[int] {
	f.calls.Add(1)
	m, ok := f.minutes[mode]
	return Result[int]{Value: m, Found: ok, Provider: "fake"}
}

func TestGeocodeChain_FallsBackOnErrorAndEmpty(t *testing.T) {
	broken := &fakeGeocoder{name: "broken", err: errors.New("503")}
	empty := &fakeGeocoder{name: "empty"}
	good := &fakeGeocoder{name: "good", point: redmond, found: true}
	never := &fakeGeocoder{name: "never", found: true}

	r := NewGeocodeChain(nil, broken, empty, good, never).Geocode(context.Background(), "Redmond")

	assert.True(t, r.Found)
	assert.Equal(t, redmond, r.Value)
	assert.Equal(t, "good", r.Provider)
	assert.Equal(t, 0, never.calls)
}

func TestGeocodeChain_Exhausted(t *testing.T) {
	r := NewGeocodeChain(nil, &fakeGeocoder{name: "a", err: errors.New("down")}).Geocode(context.Background(), "x")
	assert.False(t, r.Found)
	assert.Empty(t, r.Provider)

	r = NewGeocodeChain(nil).Geocode(context.Background(), "x")
	assert.False(t, r.Found)
}

func TestNominatim_GeocodeAndSearch(t *testing.T) {
	var gotQuery, gotUA string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "1", r.URL.Query().Get("bounded"))
		w.Write([]byte(`[
			{"lat":"47.6740","lon":"-122.1215","display_name":"Redmond City Hall",
			 "address":{"house_number":"15670","road":"NE 85th St","city":"Redmond","state":"Washington","postcode":"98052"}},
			{"lat":"bogus","lon":"-122.0","display_name":"Broken"}
		]`))
	})
	n := NewNominatim(testOptions(srv.URL), metro)

	c, ok, err := n.Geocode(context.Background(), "15670 NE 85th St")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, redmond, c)
	assert.Equal(t, "15670 NE 85th St", gotQuery)
	assert.Equal(t, "internmap-test", gotUA)

	cands, err := n.Search(context.Background(), "redmond", 5)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Redmond City Hall", cands[0].Label)
	assert.Equal(t, "15670 NE 85th St, Redmond, Washington 98052", cands[0].Address.FullAddress)
}

func TestNominatim_HTTPErrorIsError(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	_, ok, err := NewNominatim(testOptions(srv.URL), nil).Geocode(context.Background(), "x")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "429")
}

func TestPhoton_Search(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		w.Write([]byte(`{"features":[
			{"geometry":{"coordinates":[-122.1215,47.6740]},
			 "properties":{"name":"City Hall","housenumber":"15670","street":"NE 85th St","city":"Redmond","state":"Washington","postcode":"98052"}},
			{"geometry":{"coordinates":[]},"properties":{"name":"No geometry"}}
		]}`))
	})
	p := NewPhoton(testOptions(srv.URL), &config.Point{Lat: 47.61, Lng: -122.20}, metro)

	cands, err := p.Search(context.Background(), "city hall", 5)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, redmond, cands[0].Coordinates)
	assert.Equal(t, "City Hall, 15670 NE 85th St, Redmond, Washington 98052", cands[0].Label)
}

func TestSearchChain_DropsOutOfBoundsAndFallsBack(t *testing.T) {
	far := serve(t, func(w http.ResponseWriter, r *http.Request) {
		// Portland only: entirely outside the metro bounds.
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-122.6765,45.5231]},"properties":{"name":"Portland"}}]}`))
	})
	near := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"47.6101","lon":"-122.2015","display_name":"Bellevue"},
			{"lat":"45.5231","lon":"-122.6765","display_name":"Portland"}]`))
	})
	chain := NewSearchChain(nil, metro,
		NewPhoton(testOptions(far.URL), nil, nil),
		NewNominatim(testOptions(near.URL), nil))

	r := chain.Search(context.Background(), "main st")
	require.True(t, r.Found)
	assert.Equal(t, "nominatim", r.Provider)
	require.Len(t, r.Value, 1)
	assert.Equal(t, "Bellevue", r.Value[0].Label)
}

func TestOSRM_Route(t *testing.T) {
	var path string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":754.2}]}`))
	})
	minutes, ok, err := NewOSRM(testOptions(srv.URL)).Route(context.Background(), bellevue, redmond, ModeWalking)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 13, minutes)
	assert.Equal(t, "/route/v1/foot/-122.201500,47.610100;-122.121500,47.674000", path)
}

func TestOSRM_NoRoute(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	})
	_, ok, err := NewOSRM(testOptions(srv.URL)).Route(context.Background(), bellevue, redmond, ModeDriving)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestORS_Route(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"features":[{"properties":{"summary":{"duration":20}}}]}`))
	})
	minutes, ok, err := NewORS(testOptions(srv.URL), "secret").Route(context.Background(), bellevue, redmond, ModeDriving)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, minutes, "short routes round up to one minute")
}

func TestRouteChain_FallsBackToORS(t *testing.T) {
	osrm := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	ors := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[{"properties":{"summary":{"duration":600}}}]}`))
	})
	chain := NewRouteChain(nil, NewOSRM(testOptions(osrm.URL)), NewORS(testOptions(ors.URL), "k"))

	r := chain.Route(context.Background(), bellevue, redmond, ModeDriving)
	assert.True(t, r.Found)
	assert.Equal(t, 10, r.Value)
	assert.Equal(t, "openrouteservice", r.Provider)
}

func TestProvider_Timeout(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	opts := testOptions(srv.URL)
	opts.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, ok, err := NewOSRM(opts).Route(context.Background(), bellevue, redmond, ModeDriving)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTravelTimes(t *testing.T) {
	router := &fakeRouter{minutes: map[Mode]int{ModeDriving: 12, ModeWalking: 55}}

	tt := TravelTimes(context.Background(), router, bellevue, redmond)
	assert.Equal(t, profile.TravelTime{Driving: 12, Walking: 55}, tt)
	assert.Equal(t, int32(2), router.calls.Load())
}

func TestTravelTimes_PartialFailure(t *testing.T) {
	router := &fakeRouter{minutes: map[Mode]int{ModeDriving: 12}}

	tt := TravelTimes(context.Background(), router, bellevue, redmond)
	assert.Equal(t, profile.TravelTime{Driving: 12}, tt)
}

func TestCachedGeocoder_CachesFoundOnly(t *testing.T) {
	inner := &fakeGeocoder{name: "g", point: redmond, found: true}
	cached := NewCachedGeocoder(NewGeocodeChain(nil, inner), 10, time.Minute)

	cached.Geocode(context.Background(), "Redmond City Hall")
	r := cached.Geocode(context.Background(), "  redmond   city hall ")
	assert.True(t, r.Found)
	assert.Equal(t, 1, inner.calls)

	miss := &fakeGeocoder{name: "m"}
	cachedMiss := NewCachedGeocoder(NewGeocodeChain(nil, miss), 10, time.Minute)
	cachedMiss.Geocode(context.Background(), "nowhere")
	cachedMiss.Geocode(context.Background(), "nowhere")
	assert.Equal(t, 2, miss.calls)
}

func TestCachedRouter(t *testing.T) {
	inner := &fakeRouter{minutes: map[Mode]int{ModeDriving: 7}}
	cached := NewCachedRouter(inner, 10, time.Minute)

	cached.Route(context.Background(), bellevue, redmond, ModeDriving)
	r := cached.Route(context.Background(), bellevue, redmond, ModeDriving)
	assert.Equal(t, 7, r.Value)
	assert.Equal(t, int32(1), inner.calls.Load())

	cached.Route(context.Background(), redmond, bellevue, ModeDriving)
	assert.Equal(t, int32(2), inner.calls.Load())
}

// blockingSearcher blocks each query until released or canceled.
type blockingSearcher struct {
	mu      sync.Mutex
	started chan string
	release map[string]chan struct{}
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{started: make(chan string, 4), release: map[string]chan struct{}{}}
}

func (b *blockingSearcher) gate(q string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.release[q]
	if !ok {
		ch = make(chan struct{})
		b.release[q] = ch
	}
	return ch
}

func (b *blockingSearcher) Search(ctx context.Context, q string) Result[[]Candidate] {
	gate := b.gate(q)
	b.started <- q
	select {
	case <-gate:
		return Result[[]Candidate]{Value: []Candidate{{Label: q}}, Found: true, Provider: "blocking"}
	case <-ctx.Done():
		return Result[[]Candidate]{}
	}
}

func TestSearchSession_ShortQuerySkipsProviders(t *testing.T) {
	b := newBlockingSearcher()
	s := NewSearchSession(b)

	res := s.Search(context.Background(), " ab ")
	assert.Empty(t, res.Candidates)
	assert.False(t, res.Stale)
	assert.Len(t, b.started, 0)
}

func TestSearchSession_NewerQuerySupersedes(t *testing.T) {
	b := newBlockingSearcher()
	s := NewSearchSession(b)

	older := make(chan SearchResult, 1)
	go func() { older <- s.Search(context.Background(), "main") }()
	require.Equal(t, "main", <-b.started)

	newer := make(chan SearchResult, 1)
	go func() { newer <- s.Search(context.Background(), "main st") }()
	require.Equal(t, "main st", <-b.started)

	old := <-older
	assert.True(t, old.Stale)
	assert.Empty(t, old.Candidates)

	close(b.gate("main st"))
	latest := <-newer
	assert.False(t, latest.Stale)
	require.Len(t, latest.Candidates, 1)
	assert.Equal(t, "main st", latest.Candidates[0].Label)
}

func TestService_WiresConfiguredProviders(t *testing.T) {
	nominatim := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"47.6740","lon":"-122.1215","display_name":"Redmond"}]`))
	})
	osrm := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":900}]}`))
	})
	cfg := config.DefaultConfig()
	cfg.NominatimURL = nominatim.URL
	cfg.PhotonURL = "off"
	cfg.OSRMURL = osrm.URL
	cfg.ORSAPIKey = ""

	svc := New(cfg, nil, nil)

	g := svc.Geocoder.Geocode(context.Background(), "Redmond")
	assert.True(t, g.Found)
	assert.Equal(t, "nominatim", g.Provider)

	tt := svc.TravelTimesTo(context.Background(), g.Value)
	assert.Equal(t, profile.TravelTime{Driving: 15, Walking: 15}, tt)
	assert.Equal(t, profile.Coordinates{Lat: 47.6101, Lng: -122.2015}, svc.Origin)
}
