package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
	"github.com/hpungsan/internmap/internal/reference"
)

// seed stops the run when the store cannot be read; every later step would
// otherwise rewrite the store from an empty array.
func (e *Engine) seed(r *run) StepReport {
	res := e.store.SeedIfEmpty(r.ctx, e.refs.Profiles())
	work, err := e.store.Load(r.ctx)
	if err != nil {
		r.err = errors.NewStorage(fmt.Sprintf("profile store could not be read: %v", err))
		return StepReport{Name: StepSeed, Ran: true}
	}
	r.work = work

	sr := StepReport{Name: StepSeed, Ran: true, Persisted: !res.Failed, Changed: res.Backfilled}
	if res.Seeded {
		sr.Changed = e.refs.Len()
	}
	return sr
}

// dedupe keeps the first record of each id.
func (e *Engine) dedupe(r *run) StepReport {
	seen := make(map[string]bool, len(r.work))
	next := make([]profile.Profile, 0, len(r.work))
	for _, p := range r.work {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		next = append(next, p)
	}
	removed := len(r.work) - len(next)
	if removed == 0 {
		return StepReport{Name: StepDedupe}
	}

	sr := StepReport{Name: StepDedupe, Ran: true, Changed: removed}
	if sr.Persisted = e.store.WriteAll(r.ctx, next); sr.Persisted {
		r.work = next
	}
	return sr
}

// replaceReferenceSet drops every stored reference record and appends the
// current dataset verbatim. Reference records are versioned as a whole.
func (e *Engine) replaceReferenceSet(r *run) StepReport {
	if r.state.SampleDataV2 && r.state.FixedReferenceRecord {
		return StepReport{Name: StepReplaceRefs}
	}

	next := make([]profile.Profile, 0, len(r.work)+e.refs.Len())
	stripped := 0
	for _, p := range r.work {
		if p.IsReference() {
			stripped++
			continue
		}
		next = append(next, p)
	}
	next = append(next, e.refs.Profiles()...)

	sr := StepReport{Name: StepReplaceRefs, Ran: true, Persisted: true}
	if !sameProfiles(r.work, next) {
		sr.Changed = stripped + e.refs.Len()
		sr.Persisted = e.store.WriteAll(r.ctx, next)
	}
	if !sr.Persisted {
		return sr
	}

	r.work = next
	r.state.SampleDataV2 = true
	r.state.FixedReferenceRecord = true
	e.saveState(r)
	return sr
}

// ensureAnchor re-adds the anchor reference record if it went missing.
func (e *Engine) ensureAnchor(r *run) StepReport {
	anchor, ok := e.refs.Anchor()
	if !ok {
		return StepReport{Name: StepAnchor}
	}
	for _, p := range r.work {
		if p.ID == anchor.ID || (p.IsReference() && p.Company == anchor.Company) {
			return StepReport{Name: StepAnchor}
		}
	}

	sr := StepReport{Name: StepAnchor, Ran: true, Changed: 1}
	if sr.Persisted = e.store.Save(r.ctx, anchor); sr.Persisted {
		r.work = append(r.work, anchor)
	}
	return sr
}

// addRemoteSamples appends remote reference records that are not present.
func (e *Engine) addRemoteSamples(r *run) StepReport {
	if r.state.RemoteSamples {
		return StepReport{Name: StepRemote}
	}

	present := make(map[string]bool, len(r.work))
	for _, p := range r.work {
		present[p.ID] = true
	}

	sr := StepReport{Name: StepRemote, Ran: true, Persisted: true}
	for _, ref := range e.refs.Remote() {
		if present[ref.ID] {
			continue
		}
		if !e.store.Save(r.ctx, ref) {
			sr.Persisted = false
			continue
		}
		r.work = append(r.work, ref)
		sr.Changed++
	}
	if sr.Persisted {
		r.state.RemoteSamples = true
		e.saveState(r)
	}
	return sr
}

// backfillTravelTimes gives physical records without a usable travel time
// the matched reference's triple, replaced as a whole.
func (e *Engine) backfillTravelTimes(r *run) StepReport {
	needs := func(p profile.Profile) bool { return !p.IsRemote && !p.HasTravelTime() }
	return e.backfill(r, StepTravelTimes, &r.state.TravelTimes, needs,
		func(p *profile.Profile, ref profile.Profile, found bool) bool {
			if !found || !ref.HasTravelTime() {
				return false
			}
			tt := *ref.TravelTime
			p.TravelTime = &tt
			return true
		})
}

// backfillRatings copies a missing rating or rating comment from the match.
func (e *Engine) backfillRatings(r *run) StepReport {
	needs := func(p profile.Profile) bool { return p.Rating == 0 || p.RatingComment == "" }
	return e.backfill(r, StepRatings, &r.state.Ratings, needs,
		func(p *profile.Profile, ref profile.Profile, found bool) bool {
			if !found {
				return false
			}
			changed := false
			if p.Rating == 0 && ref.Rating != 0 {
				p.Rating = ref.Rating
				changed = true
			}
			if p.RatingComment == "" && ref.RatingComment != "" {
				p.RatingComment = ref.RatingComment
				changed = true
			}
			return changed
		})
}

// backfillNarratives fills missing required answers and dates from the match,
// then synthesizes whatever is still missing.
func (e *Engine) backfillNarratives(r *run) StepReport {
	now := e.now()
	return e.backfill(r, StepNarratives, &r.state.Narratives, lacksNarrative,
		func(p *profile.Profile, ref profile.Profile, found bool) bool {
			changed := false
			if found {
				changed = mergeNarrative(p, ref)
			}
			if Synthesize(p, now) {
				changed = true
			}
			return changed
		})
}

func lacksNarrative(p profile.Profile) bool {
	return p.Question1 == "" || p.Question2 == "" || p.Question3 == "" ||
		p.StartDate == "" || p.EndDate == ""
}

func mergeNarrative(p *profile.Profile, ref profile.Profile) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&p.Question1, ref.Question1)
	fill(&p.Question2, ref.Question2)
	fill(&p.Question3, ref.Question3)
	fill(&p.StartDate, ref.StartDate)
	fill(&p.EndDate, ref.EndDate)
	return changed
}

// backfill runs a field backfill step. It runs when flag is unset or any
// record still needs the field, matches each such record against the
// reference set, applies fill, and flushes the array once. The flag is set
// only after the write succeeded.
func (e *Engine) backfill(
	r *run,
	name string,
	flag *bool,
	needs func(profile.Profile) bool,
	fill func(p *profile.Profile, ref profile.Profile, found bool) bool,
) StepReport {
	pending := false
	for _, p := range r.work {
		if needs(p) {
			pending = true
			break
		}
	}
	if *flag && !pending {
		return StepReport{Name: name}
	}

	refs := e.refs.Profiles()
	next := profile.CloneAll(r.work)
	sr := StepReport{Name: name, Ran: true, Persisted: true}
	for i := range next {
		if !needs(next[i]) {
			continue
		}
		ref, found := reference.Match(next[i], refs)
		if fill(&next[i], ref, found) {
			sr.Changed++
		}
	}

	if sr.Changed > 0 {
		sr.Persisted = e.store.WriteAll(r.ctx, next)
	}
	if !sr.Persisted {
		return sr
	}
	r.work = next
	if !*flag {
		*flag = true
		e.saveState(r)
	}
	return sr
}

// cleanup deletes records whose first or last name contains a test marker.
func (e *Engine) cleanup(r *run) StepReport {
	sr := StepReport{Name: StepCleanup, Persisted: true}
	next := make([]profile.Profile, 0, len(r.work))
	for _, p := range r.work {
		if !e.isTestRecord(p) {
			next = append(next, p)
			continue
		}
		sr.Ran = true
		if !e.store.DeleteByID(r.ctx, p.ID) {
			sr.Persisted = false
			next = append(next, p)
			continue
		}
		sr.Changed++
		r.report.Removed = append(r.report.Removed, p.ID)
	}
	r.work = next
	return sr
}

func (e *Engine) isTestRecord(p profile.Profile) bool {
	first := profile.NormalizeKey(p.FirstName)
	last := profile.NormalizeKey(p.LastName)
	for _, m := range e.markers {
		m = profile.NormalizeKey(m)
		if m == "" {
			continue
		}
		if strings.Contains(first, m) || strings.Contains(last, m) {
			return true
		}
	}
	return false
}

// sameProfiles compares two arrays by their serialized form.
func sameProfiles(a, b []profile.Profile) bool {
	if len(a) != len(b) {
		return false
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
