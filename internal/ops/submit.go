package ops

import (
	"context"
	"crypto/subtle"
	"maps"
	"slices"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
)

// SubmitInput contains parameters for the Submit operation.
type SubmitInput struct {
	// AccessCode must equal the configured shared code when one is set.
	AccessCode string
	Profile    profile.Profile
}

// SubmitOutput contains the result of the Submit operation.
type SubmitOutput struct {
	Profile profile.Profile `json:"profile"`
	// Warnings lists enrichment steps that could not complete.
	Warnings []string `json:"warnings,omitempty"`
}

// Submit adds one profile entered through the form. The record gets a fresh
// user-namespace id and timestamps; any id on the input is ignored. Physical
// records without coordinates are geocoded, and travel times are looked up
// for components the submitter left empty.
func (s *Session) Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error) {
	if err := s.checkAccess(input.AccessCode); err != nil {
		return nil, err
	}
	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}

	p := profile.Normalize(input.Profile)
	now := s.now().UTC()
	id, err := profile.NewID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	out := &SubmitOutput{}
	out.Warnings = s.enrich(ctx, &p)

	problems := map[string]string{}
	if err := profile.Validate(p); err != nil {
		fields := errors.FieldErrors(err)
		if fields == nil {
			return nil, err
		}
		maps.Copy(problems, fields)
	}
	if !p.IsRemote && p.TravelTime.Minutes("driving") <= 0 && p.TravelTime.Minutes("bus") <= 0 {
		if _, ok := problems["travelTime"]; !ok {
			problems["travelTime"] = "driving or bus minutes are required for in-person internships"
		}
	}
	if len(problems) > 0 {
		return nil, errors.NewValidation(problems)
	}

	s.writeMu.Lock()
	if !s.store.Save(ctx, p) {
		s.writeMu.Unlock()
		return nil, errors.NewStorage("profile could not be saved")
	}

	s.mu.Lock()
	photos := slices.Clone(p.Photos)
	p.Photos = nil
	s.upsert(p)
	if len(photos) > 0 {
		s.photos[p.ID] = photos
	}
	s.mu.Unlock()
	s.writeMu.Unlock()

	p.Photos = photos
	out.Profile = p
	s.logger.Info("profile submitted", "id", p.ID, "remote", p.IsRemote)
	return out, nil
}

// enrich fills coordinates and missing travel-time components of a physical
// record. Components the record already carries are kept.
func (s *Session) enrich(ctx context.Context, p *profile.Profile) []string {
	if p.IsRemote || s.geo == nil {
		return nil
	}
	var warnings []string

	if p.Coordinates == nil && p.Address != nil && p.Address.FullAddress != "" {
		res := s.geo.Geocoder.Geocode(ctx, p.Address.FullAddress)
		if !res.Found {
			warnings = append(warnings, "address could not be located")
			return warnings
		}
		c := res.Value
		p.Coordinates = &c
	}
	if p.Coordinates == nil {
		return warnings
	}
	if p.TravelTime != nil && p.TravelTime.Driving > 0 && p.TravelTime.Walking > 0 {
		return warnings
	}

	looked := s.geo.TravelTimesTo(ctx, *p.Coordinates)
	if !looked.Known() {
		warnings = append(warnings, "travel times could not be computed")
		return warnings
	}
	tt := profile.TravelTime{}
	if p.TravelTime != nil {
		tt = *p.TravelTime
	}
	if tt.Driving <= 0 {
		tt.Driving = looked.Driving
	}
	if tt.Walking <= 0 {
		tt.Walking = looked.Walking
	}
	p.TravelTime = &tt
	return warnings
}

func subtleEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
