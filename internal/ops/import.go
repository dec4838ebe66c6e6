package ops

import (
	"context"
	"io"
	"strings"

	"github.com/hpungsan/internmap/internal/csvimport"
	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/profile"
)

// ImportInput contains parameters for the Import operation. Exactly one of
// Path and Reader is used; Reader wins when both are set.
type ImportInput struct {
	AccessCode string
	// Path is a .csv file directly inside an allowed import directory.
	Path   string
	Reader io.Reader
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int                  `json:"imported"`
	IDs      []string             `json:"ids"`
	Errors   []csvimport.RowError `json:"errors"`
}

// Import parses a CSV batch and commits every valid row. Invalid rows and
// rows the store rejects are reported by row number; they never stop the
// rest of the batch.
func (s *Session) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if err := s.checkAccess(input.AccessCode); err != nil {
		return nil, err
	}

	r := input.Reader
	if r == nil {
		path := strings.TrimSpace(input.Path)
		if err := ValidateImportPath(path, s.cfg); err != nil {
			return nil, err
		}
		f, err := openNoFollow(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}

	opts := csvimport.Options{Now: s.now}
	if s.geo != nil {
		opts.Geocoder = s.geo.Geocoder
	}
	parsed, err := csvimport.Parse(ctx, r, opts)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{
		IDs:    []string{},
		Errors: parsed.Errors,
	}
	if out.Errors == nil {
		out.Errors = []csvimport.RowError{}
	}

	for i, p := range parsed.Profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.fillTravelTimes(ctx, &p)
		s.writeMu.Lock()
		saved := s.store.Save(ctx, p)
		if saved {
			s.mu.Lock()
			p.Photos = nil
			s.upsert(p)
			s.mu.Unlock()
		}
		s.writeMu.Unlock()
		if !saved {
			out.Errors = append(out.Errors, csvimport.RowError{
				Row:    parsed.Rows[i],
				Fields: map[string]string{"row": "could not be saved"},
			})
			continue
		}
		out.IDs = append(out.IDs, p.ID)
	}
	out.Imported = len(out.IDs)

	s.logger.Info("csv imported", "imported", out.Imported, "rejected", len(out.Errors))
	return out, nil
}

// fillTravelTimes looks up driving and walking minutes for a physical record
// that carries none.
func (s *Session) fillTravelTimes(ctx context.Context, p *profile.Profile) {
	if s.geo == nil || p.IsRemote || p.Coordinates == nil || p.HasTravelTime() {
		return
	}
	tt := geo.TravelTimes(ctx, s.geo.Router, s.geo.Origin, *p.Coordinates)
	if tt.Known() {
		p.TravelTime = &tt
	}
}

// checkAccess compares code with the configured shared access code.
func (s *Session) checkAccess(code string) error {
	want := s.cfg.AccessCode
	if want == "" || subtleEqual(want, code) {
		return nil
	}
	return errors.NewForbidden("access code does not match")
}
