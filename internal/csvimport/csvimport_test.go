package csvimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/profile"
)

var importNow = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

const header = "First Name,Last Name,Email,Company,Field,Is Remote,Street,City,State,Zip,Latitude,Longitude," +
	"Start Date,End Date,Question1,Question2,Question3,Rating,Rating Comment,Driving,Walking,Bus\n"

func parse(t *testing.T, doc string, opts Options) *Result {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return importNow }
	}
	res, err := Parse(context.Background(), strings.NewReader(doc), opts)
	require.NoError(t, err)
	return res
}

func TestParse_ScenarioC(t *testing.T) {
	doc := header +
		"Ana,Lopez,ana@example.com,Civic Code,Computer Science,yes,,,,,,,2024-06-01,2024-08-01,a,b,c,5,Great,,,\n" +
		"Ben,Ng,,Civic Code,Computer Science,yes,,,,,,,2024-06-01,2024-08-01,a,b,c,4,Good,,,\n" +
		"Cy,Park,cy@example.com,Bellevue Library,Education,no,1111 110th Ave NE,Bellevue,WA,98004,47.6186,-122.1916,2024-06-01,2024-08-01,a,b,c,3,Fine,4,15,9\n"

	res := parse(t, doc, Options{})

	require.Len(t, res.Profiles, 2)
	assert.Equal(t, []int{1, 3}, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, "is required", res.Errors[0].Fields["email"])
	assert.Equal(t, "row 2: email is required", res.Errors[0].Error())

	ana := res.Profiles[0]
	assert.True(t, ana.IsRemote)
	assert.Nil(t, ana.Address)
	assert.Equal(t, 5, ana.Rating)

	cy := res.Profiles[1]
	assert.False(t, cy.IsRemote)
	assert.Equal(t, "1111 110th Ave NE, Bellevue, WA 98004", cy.Address.FullAddress)
	assert.Equal(t, profile.Coordinates{Lat: 47.6186, Lng: -122.1916}, *cy.Coordinates)
	assert.Equal(t, profile.TravelTime{Driving: 4, Walking: 15, Bus: 9}, *cy.TravelTime)

	for _, p := range res.Profiles {
		assert.True(t, strings.HasPrefix(p.ID, profile.UserPrefix))
		assert.True(t, p.CreatedAt.Equal(importNow))
		assert.True(t, p.UpdatedAt.Equal(importNow))
	}
	assert.NotEqual(t, res.Profiles[0].ID, res.Profiles[1].ID)
}

func TestParse_TypeErrors(t *testing.T) {
	doc := header +
		"Ana,Lopez,ana@example.com,X,Other,no,1 Main,Kirkland,WA,98033,north,-122.2,2024-06-01,2024-08-01,a,b,c,five,ok,ten,,\n"

	res := parse(t, doc, Options{})

	require.Len(t, res.Errors, 1)
	f := res.Errors[0].Fields
	assert.Contains(t, f, "rating")
	assert.Contains(t, f, "coordinates")
	assert.Contains(t, f, "travelTime")
	assert.Empty(t, res.Profiles)
}

type stubGeocoder struct {
	found bool
	calls []string
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) geo.Result[profile.Coordinates] {
	s.calls = append(s.calls, address)
	if !s.found {
		return geo.Result[profile.Coordinates]{}
	}
	return geo.Result[profile.Coordinates]{Value: profile.Coordinates{Lat: 47.68, Lng: -122.20}, Found: true, Provider: "stub"}
}

func TestParse_GeocodesMissingCoordinates(t *testing.T) {
	doc := header +
		"Ana,Lopez,ana@example.com,X,Other,no,1 Main St,Kirkland,WA,98033,,,2024-06-01,2024-08-01,a,b,c,4,ok,,,\n"

	g := &stubGeocoder{found: true}
	res := parse(t, doc, Options{Geocoder: g})

	require.Empty(t, res.Errors)
	require.Len(t, res.Profiles, 1)
	assert.Equal(t, []string{"1 Main St, Kirkland, WA 98033"}, g.calls)
	assert.Equal(t, 47.68, res.Profiles[0].Coordinates.Lat)
}

func TestParse_GeocodeFailureIsRowError(t *testing.T) {
	doc := header +
		"Ana,Lopez,ana@example.com,X,Other,no,1 Main St,Kirkland,WA,98033,,,2024-06-01,2024-08-01,a,b,c,4,ok,,,\n"

	res := parse(t, doc, Options{Geocoder: &stubGeocoder{}})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Row)
	assert.Equal(t, "address could not be geocoded", res.Errors[0].Fields["coordinates"])
}

func TestParse_WithoutGeocoderPhysicalNeedsCoordinates(t *testing.T) {
	doc := header +
		"Ana,Lopez,ana@example.com,X,Other,no,1 Main St,Kirkland,WA,98033,,,2024-06-01,2024-08-01,a,b,c,4,ok,,,\n"

	res := parse(t, doc, Options{})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Fields, "coordinates")
}

func TestParse_HeaderAliasesAndUnknownColumns(t *testing.T) {
	doc := "\ufefffirst_name,SURNAME,e-mail address,employer,field of study,remote,notes,q1,q2,q3,start,end,rating,comment\n" +
		"Ana,Lopez,Ana@Example.com,Civic Code,Business,true,ignored,a,b,c,2024-06-01,2024-08-01,4,ok\n"

	res := parse(t, doc, Options{})

	require.Empty(t, res.Errors)
	require.Len(t, res.Profiles, 1)
	p := res.Profiles[0]
	assert.Equal(t, "Ana", p.FirstName)
	assert.Equal(t, "Lopez", p.LastName)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "Civic Code", p.Company)
	assert.True(t, p.IsRemote)
}

func TestParse_ShortRowsAreMissingValues(t *testing.T) {
	doc := header + "Ana,Lopez\n"

	res := parse(t, doc, Options{})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Fields, "email")
}

func TestParse_EmptyAndUnrecognized(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader(""), Options{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Parse(context.Background(), strings.NewReader("foo,bar\n1,2\n"), Options{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestParse_HeaderOnly(t *testing.T) {
	res := parse(t, header, Options{})
	assert.Empty(t, res.Profiles)
	assert.Empty(t, res.Errors)
}
