// Package filter splits the profile set into the map and list views for the
// active filter selections.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
)

// LocationType selects physical records, remote records or both.
type LocationType string

const (
	LocationAll      LocationType = "all"
	LocationPhysical LocationType = "physical"
	LocationRemote   LocationType = "remote"
)

// TravelMode selects which travel-time component a threshold applies to.
type TravelMode string

const (
	TravelAll     TravelMode = "all"
	TravelDriving TravelMode = "driving"
	TravelWalking TravelMode = "walking"
	TravelBus     TravelMode = "bus"
)

// DefaultMaxMinutes is the threshold used when none is given.
const DefaultMaxMinutes = 30

// Options are the active filter selections.
type Options struct {
	LocationType LocationType `json:"locationType"`
	TravelMode   TravelMode   `json:"travelMode"`
	MaxMinutes   int          `json:"maxMinutes"`
	// Fields restricts results to these field tags. Empty means no restriction.
	Fields []string `json:"fields,omitempty"`
}

// Result holds the two display subsets, each in input order.
type Result struct {
	MapEligible  []profile.Profile `json:"mapEligible"`
	ListEligible []profile.Profile `json:"listEligible"`
}

// Apply partitions profiles by IsRemote and filters each side.
// Physical records are kept only when the selected travel component is known
// (greater than zero) and at most MaxMinutes. Remote records are never
// filtered by travel time.
func Apply(profiles []profile.Profile, opts Options) Result {
	fields := make(map[string]bool, len(opts.Fields))
	for _, f := range opts.Fields {
		fields[f] = true
	}

	res := Result{
		MapEligible:  []profile.Profile{},
		ListEligible: []profile.Profile{},
	}
	for _, p := range profiles {
		if len(fields) > 0 && !fields[p.Field] {
			continue
		}
		if p.IsRemote {
			if opts.LocationType != LocationPhysical {
				res.ListEligible = append(res.ListEligible, p)
			}
			continue
		}
		if opts.LocationType == LocationRemote {
			continue
		}
		if opts.TravelMode != "" && opts.TravelMode != TravelAll {
			m := p.TravelTime.Minutes(string(opts.TravelMode))
			if m <= 0 || m > opts.MaxMinutes {
				continue
			}
		}
		res.MapEligible = append(res.MapEligible, p)
	}
	return res
}

// ParseOptions builds Options from string inputs such as query parameters or
// CLI flags. Empty strings select defaults. fields may be comma-separated.
func ParseOptions(locationType, travelMode, maxMinutes string, fields []string) (Options, error) {
	opts := Options{
		LocationType: LocationAll,
		TravelMode:   TravelAll,
		MaxMinutes:   DefaultMaxMinutes,
	}

	switch lt := LocationType(strings.ToLower(strings.TrimSpace(locationType))); lt {
	case "":
	case LocationAll, LocationPhysical, LocationRemote:
		opts.LocationType = lt
	default:
		return Options{}, errors.NewInvalidRequest(fmt.Sprintf("unknown location type %q (want all, physical or remote)", locationType))
	}

	switch tm := TravelMode(strings.ToLower(strings.TrimSpace(travelMode))); tm {
	case "":
	case TravelAll, TravelDriving, TravelWalking, TravelBus:
		opts.TravelMode = tm
	default:
		return Options{}, errors.NewInvalidRequest(fmt.Sprintf("unknown travel mode %q (want all, driving, walking or bus)", travelMode))
	}

	if s := strings.TrimSpace(maxMinutes); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Options{}, errors.NewInvalidRequest(fmt.Sprintf("max minutes must be a positive integer, got %q", maxMinutes))
		}
		opts.MaxMinutes = n
	}

	for _, raw := range fields {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if !profile.IsField(f) {
				return Options{}, errors.NewInvalidRequest(fmt.Sprintf("unknown field %q", f))
			}
			opts.Fields = append(opts.Fields, f)
		}
	}
	return opts, nil
}
