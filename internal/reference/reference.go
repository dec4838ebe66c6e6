// Package reference holds the bundled sample profiles used to seed empty
// stores and to backfill fields that older records lack.
package reference

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hpungsan/internmap/internal/profile"
)

// AnchorID identifies the reference record that must always be present.
const AnchorID = "sample-anchor-kcls"

// AnchorCompany is the company name carried by the anchor record.
const AnchorCompany = "King County Library System"

// CoordinateTolerance is the per-axis distance, in degrees, under which two
// records with the same company name are treated as the same location.
const CoordinateTolerance = 0.01

//go:embed samples.json
var samplesJSON []byte

// Dataset is an immutable, ordered set of reference profiles.
type Dataset struct {
	profiles []profile.Profile
	byID     map[string]int
}

// Load parses the embedded sample profiles.
func Load() (*Dataset, error) {
	var ps []profile.Profile
	if err := json.Unmarshal(samplesJSON, &ps); err != nil {
		return nil, fmt.Errorf("parse reference samples: %w", err)
	}
	return New(ps)
}

// New builds a Dataset from ps. Every id must carry profile.ReferencePrefix
// and be unique.
func New(ps []profile.Profile) (*Dataset, error) {
	d := &Dataset{
		profiles: profile.CloneAll(ps),
		byID:     make(map[string]int, len(ps)),
	}
	for i, p := range d.profiles {
		if !profile.IsReference(p.ID) {
			return nil, fmt.Errorf("reference id %q lacks prefix %q", p.ID, profile.ReferencePrefix)
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate reference id %q", p.ID)
		}
		d.byID[p.ID] = i
	}
	return d, nil
}

// Profiles returns a copy of every reference profile in bundled order.
func (d *Dataset) Profiles() []profile.Profile {
	return profile.CloneAll(d.profiles)
}

// Len returns the number of reference profiles.
func (d *Dataset) Len() int {
	return len(d.profiles)
}

// ByID returns the reference profile with id.
func (d *Dataset) ByID(id string) (profile.Profile, bool) {
	i, ok := d.byID[id]
	if !ok {
		return profile.Profile{}, false
	}
	return d.profiles[i].Clone(), true
}

// Remote returns the remote reference profiles in bundled order.
func (d *Dataset) Remote() []profile.Profile {
	var out []profile.Profile
	for _, p := range d.profiles {
		if p.IsRemote {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Anchor returns the anchor record, found by AnchorID or else AnchorCompany.
func (d *Dataset) Anchor() (profile.Profile, bool) {
	if p, ok := d.ByID(AnchorID); ok {
		return p, true
	}
	for _, p := range d.profiles {
		if p.Company == AnchorCompany {
			return p.Clone(), true
		}
	}
	return profile.Profile{}, false
}

// Match finds the reference profile that p corresponds to. See Match.
func (d *Dataset) Match(p profile.Profile) (profile.Profile, bool) {
	return Match(p, d.profiles)
}

// Match finds the record in refs that p corresponds to.
//
// An exact id match wins. Otherwise the company names must be identical:
// a physical record matches the closest physical candidate whose coordinates
// are within CoordinateTolerance on both axes; a remote record matches only
// when exactly one remote candidate carries that company name.
func Match(p profile.Profile, refs []profile.Profile) (profile.Profile, bool) {
	if p.ID != "" {
		for _, r := range refs {
			if r.ID == p.ID {
				return r.Clone(), true
			}
		}
	}
	if p.Company == "" {
		return profile.Profile{}, false
	}

	if p.IsRemote {
		var found *profile.Profile
		for i := range refs {
			r := &refs[i]
			if !r.IsRemote || r.Company != p.Company {
				continue
			}
			if found != nil {
				return profile.Profile{}, false // ambiguous
			}
			found = r
		}
		if found == nil {
			return profile.Profile{}, false
		}
		return found.Clone(), true
	}

	if p.Coordinates == nil {
		return profile.Profile{}, false
	}
	best := -1
	bestDist := math.Inf(1)
	for i, r := range refs {
		if r.IsRemote || r.Company != p.Company || r.Coordinates == nil {
			continue
		}
		dLat := math.Abs(r.Coordinates.Lat - p.Coordinates.Lat)
		dLng := math.Abs(r.Coordinates.Lng - p.Coordinates.Lng)
		if dLat >= CoordinateTolerance || dLng >= CoordinateTolerance {
			continue
		}
		if dist := dLat*dLat + dLng*dLng; dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return profile.Profile{}, false
	}
	return refs[best].Clone(), true
}
