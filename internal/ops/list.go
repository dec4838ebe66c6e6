package ops

import (
	"context"

	"github.com/hpungsan/internmap/internal/filter"
	"github.com/hpungsan/internmap/internal/profile"
)

// ListInput contains the raw filter selections of the List operation.
// Empty values select the defaults (all locations, all modes, 30 minutes).
type ListInput struct {
	LocationType string
	TravelMode   string
	MaxMinutes   string
	Fields       []string
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	filter.Result
	Filter filter.Options `json:"filter"`
	Total  int            `json:"total"`
}

// List filters the working copy into its map and list views.
func (s *Session) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	opts, err := filter.ParseOptions(input.LocationType, input.TravelMode, input.MaxMinutes, input.Fields)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}
	return s.Filter(opts), nil
}

// Filter applies already-parsed selections to the working copy.
func (s *Session) Filter(opts filter.Options) *ListOutput {
	all := s.Profiles()
	return &ListOutput{
		Result: filter.Apply(all, opts),
		Filter: opts,
		Total:  len(all),
	}
}

// Summaries reduces profiles to what list views show.
func Summaries(ps []profile.Profile) []Summary {
	out := make([]Summary, len(ps))
	for i, p := range ps {
		out[i] = Summary{
			ID:         p.ID,
			Name:       p.FullName(),
			Company:    p.Company,
			Field:      p.Field,
			IsRemote:   p.IsRemote,
			Rating:     p.Rating,
			TravelTime: p.TravelTime,
		}
		if p.Address != nil {
			out[i].Address = p.Address.FullAddress
		}
	}
	return out
}

// Summary is the list-view projection of a profile.
type Summary struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Company    string              `json:"company"`
	Field      string              `json:"field"`
	IsRemote   bool                `json:"isRemote"`
	Address    string              `json:"address,omitempty"`
	Rating     int                 `json:"rating,omitempty"`
	TravelTime *profile.TravelTime `json:"travelTime,omitempty"`
}
