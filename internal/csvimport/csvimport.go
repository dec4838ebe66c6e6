// Package csvimport turns uploaded CSV rows into validated profiles. Invalid
// rows are reported individually and never stop valid rows from importing.
package csvimport

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/profile"
)

// RowError describes why one data row was rejected.
type RowError struct {
	// Row is the 1-based data row number; the header is not counted.
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

func (e RowError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(parts, "; "))
}

// Result is the outcome of Parse.
type Result struct {
	Profiles []profile.Profile `json:"profiles"`
	Errors   []RowError        `json:"errors"`
	// Rows[i] is the data row number Profiles[i] came from.
	Rows []int `json:"-"`
}

// Options configures Parse. Zero values select defaults.
type Options struct {
	// Geocoder fills coordinates for physical rows that have an address but
	// none of their own. Nil leaves such rows to fail validation.
	Geocoder geo.Geocoder
	Now      func() time.Time
}

// columns maps a normalized header to the canonical column name.
var columns = map[string]string{}

func init() {
	aliases := map[string][]string{
		"firstName":       {"firstname", "first"},
		"lastName":        {"lastname", "last", "surname"},
		"email":           {"email", "emailaddress"},
		"company":         {"company", "organization", "employer"},
		"field":           {"field", "fieldofstudy"},
		"supervisorName":  {"supervisorname", "supervisor", "contactname"},
		"supervisorEmail": {"supervisoremail", "contactemail"},
		"isRemote":        {"isremote", "remote"},
		"street":          {"street", "streetaddress"},
		"city":            {"city"},
		"state":           {"state"},
		"zip":             {"zip", "zipcode", "postalcode"},
		"fullAddress":     {"fulladdress", "address"},
		"lat":             {"lat", "latitude"},
		"lng":             {"lng", "lon", "long", "longitude"},
		"startDate":       {"startdate", "start"},
		"endDate":         {"enddate", "end"},
		"question1":       {"question1", "q1"},
		"question2":       {"question2", "q2"},
		"question3":       {"question3", "q3"},
		"question4":       {"question4", "q4"},
		"question5":       {"question5", "q5"},
		"question6":       {"question6", "q6"},
		"rating":          {"rating"},
		"ratingComment":   {"ratingcomment", "comment"},
		"driving":         {"driving", "drivingminutes", "drivingtime"},
		"walking":         {"walking", "walkingminutes", "walkingtime"},
		"bus":             {"bus", "busminutes", "bustime"},
	}
	for canonical, names := range aliases {
		for _, n := range names {
			columns[n] = canonical
		}
	}
}

// normalizeHeader lowercases h and drops spaces, underscores and hyphens.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// Parse reads a CSV document whose first row is a header. Unknown columns are
// ignored. It fails only when the document itself is unreadable or has no
// header.
func Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, errors.NewInvalidRequest("csv is empty")
	}
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("csv header: %v", err))
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if canonical, ok := columns[normalizeHeader(h)]; ok {
			if _, dup := index[canonical]; !dup {
				index[canonical] = i
			}
		}
	}
	if len(index) == 0 {
		return nil, errors.NewInvalidRequest("csv header has no recognized columns")
	}

	res := &Result{Profiles: []profile.Profile{}, Errors: []RowError{}}
	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Fields: map[string]string{"row": err.Error()}})
			continue
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p, problems := buildProfile(get)
		if len(problems) == 0 {
			p = profile.Normalize(p)
			if !p.IsRemote && p.Coordinates == nil && p.Address != nil && opts.Geocoder != nil {
				g := opts.Geocoder.Geocode(ctx, p.Address.FullAddress)
				if g.Found {
					c := g.Value
					p.Coordinates = &c
				} else {
					problems = map[string]string{"coordinates": "address could not be geocoded"}
				}
			}
		}
		if len(problems) == 0 {
			problems = errors.FieldErrors(profile.Validate(p))
		}
		if len(problems) > 0 {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Fields: problems})
			continue
		}

		ts := now().UTC()
		id, err := profile.NewID(ts)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		p.ID = id
		p.CreatedAt = ts
		p.UpdatedAt = ts
		res.Profiles = append(res.Profiles, p)
		res.Rows = append(res.Rows, rowNum)
	}
	return res, nil
}

// buildProfile maps one row onto a Profile, collecting type errors.
func buildProfile(get func(string) string) (profile.Profile, map[string]string) {
	problems := map[string]string{}
	p := profile.Profile{
		FirstName:       get("firstName"),
		LastName:        get("lastName"),
		Email:           get("email"),
		Company:         get("company"),
		Field:           get("field"),
		SupervisorName:  get("supervisorName"),
		SupervisorEmail: get("supervisorEmail"),
		IsRemote:        parseBool(get("isRemote")),
		StartDate:       get("startDate"),
		EndDate:         get("endDate"),
		Question1:       get("question1"),
		Question2:       get("question2"),
		Question3:       get("question3"),
		Question4:       get("question4"),
		Question5:       get("question5"),
		Question6:       get("question6"),
		RatingComment:   get("ratingComment"),
	}

	if s := get("rating"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			problems["rating"] = "must be a whole number"
		}
		p.Rating = n
	}

	addr := profile.Address{
		Street:      get("street"),
		City:        get("city"),
		State:       get("state"),
		Zip:         get("zip"),
		FullAddress: get("fullAddress"),
	}
	if addr != (profile.Address{}) {
		p.Address = &addr
	}

	latS, lngS := get("lat"), get("lng")
	if latS != "" || lngS != "" {
		lat, errLat := strconv.ParseFloat(latS, 64)
		lng, errLng := strconv.ParseFloat(lngS, 64)
		if errLat != nil || errLng != nil {
			problems["coordinates"] = "latitude and longitude must both be numbers"
		} else {
			p.Coordinates = &profile.Coordinates{Lat: lat, Lng: lng}
		}
	}

	var tt profile.TravelTime
	for col, dst := range map[string]*int{"driving": &tt.Driving, "walking": &tt.Walking, "bus": &tt.Bus} {
		s := get(col)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			problems["travelTime"] = col + " minutes must be a whole number"
			continue
		}
		*dst = n
	}
	if tt != (profile.TravelTime{}) {
		p.TravelTime = &tt
	}

	return p, problems
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "remote":
		return true
	}
	return false
}
