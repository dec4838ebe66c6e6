// Package store persists the profile collection as one JSON array under a
// single durable key. Every failure degrades to "no data" or a false return
// and is reported only through the logger. Writes never proceed from a read
// that failed.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/internmap/internal/profile"
	"github.com/hpungsan/internmap/internal/reference"
)

// ProfilesKey is the durable key holding the serialized profile array.
const ProfilesKey = "internship_profiles"

// DefaultQuotaBytes mirrors the browser's local storage budget.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Options configures a Store. Zero values select defaults.
type Options struct {
	// QuotaBytes caps the serialized array size. Negative disables the cap.
	QuotaBytes int
	Now        func() time.Time
	Logger     *slog.Logger
}

// Store is the persistent record store.
type Store struct {
	backend Backend
	quota   int
	now     func() time.Time
	logger  *slog.Logger

	// mu makes each read-modify-write operation atomic.
	mu sync.Mutex
}

// New creates a Store over backend.
func New(backend Backend, opts Options) *Store {
	s := &Store{
		backend: backend,
		quota:   opts.QuotaBytes,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if s.quota == 0 {
		s.quota = DefaultQuotaBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "store")
	return s
}

// GetAll returns the stored array, or an empty slice when storage is absent,
// unreadable or corrupt.
func (s *Store) GetAll(ctx context.Context) []profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Load returns the stored array like GetAll, but reports a backend read
// failure instead of treating it as an empty store.
func (s *Store) Load(ctx context.Context) ([]profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// GetByID returns the first stored record with id.
func (s *Store) GetByID(ctx context.Context, id string) (profile.Profile, bool) {
	for _, p := range s.GetAll(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return profile.Profile{}, false
}

// Save upserts p by id. An existing record is replaced and its UpdatedAt set
// to now; a new record is appended with its own timestamps.
func (s *Store) Save(ctx context.Context, p profile.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return false
	}
	p = p.Clone()
	replaced := false
	for i := range all {
		if all[i].ID == p.ID {
			p.UpdatedAt = s.now().UTC()
			all[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, p)
	}
	return s.write(ctx, all)
}

// DeleteByID removes every record with id and writes the remainder back.
func (s *Store) DeleteByID(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return false
	}
	kept := all[:0]
	for _, p := range all {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return s.write(ctx, kept)
}

// Clear removes the entire stored collection.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, ProfilesKey); err != nil {
		s.logger.Warn("clear failed", "error", err)
	}
}

// WriteAll replaces the stored array with ps verbatim.
func (s *Store) WriteAll(ctx context.Context, ps []profile.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, ps)
}

// SeedResult reports what SeedIfEmpty did.
type SeedResult struct {
	Seeded     bool `json:"seeded"`
	Backfilled int  `json:"backfilled"`
	// Failed is set when the store rejected the write.
	Failed bool `json:"failed,omitempty"`
}

// SeedIfEmpty writes refs as the initial content of an empty store. An
// unreadable store is not empty: it reports Failed and writes nothing. A
// non-empty store instead has travel time, rating and rating comment copied
// from the matching reference record wherever the stored record lacks them.
func (s *Store) SeedIfEmpty(ctx context.Context, refs []profile.Profile) SeedResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return SeedResult{Failed: true}
	}
	if len(all) == 0 {
		if !s.write(ctx, refs) {
			return SeedResult{Failed: true}
		}
		return SeedResult{Seeded: true}
	}

	changed := 0
	for i := range all {
		ref, ok := reference.Match(all[i], refs)
		if !ok {
			continue
		}
		if backfillSeedFields(&all[i], ref) {
			changed++
		}
	}
	if changed == 0 {
		return SeedResult{}
	}
	if !s.write(ctx, all) {
		return SeedResult{Failed: true}
	}
	return SeedResult{Backfilled: changed}
}

// backfillSeedFields copies absent travel time, rating and rating comment.
func backfillSeedFields(p *profile.Profile, ref profile.Profile) bool {
	changed := false
	if !p.IsRemote && !p.HasTravelTime() && ref.HasTravelTime() {
		tt := *ref.TravelTime
		p.TravelTime = &tt
		changed = true
	}
	if p.Rating == 0 && ref.Rating != 0 {
		p.Rating = ref.Rating
		changed = true
	}
	if p.RatingComment == "" && ref.RatingComment != "" {
		p.RatingComment = ref.RatingComment
		changed = true
	}
	return changed
}

// read is load with backend errors folded into the empty array.
func (s *Store) read(ctx context.Context) []profile.Profile {
	ps, err := s.load(ctx)
	if err != nil {
		return []profile.Profile{}
	}
	return ps
}

// load decodes the stored array. Absent or corrupt data is the empty array;
// only a backend failure is returned as an error.
func (s *Store) load(ctx context.Context) ([]profile.Profile, error) {
	raw, ok, err := s.backend.Get(ctx, ProfilesKey)
	if err != nil {
		s.logger.Warn("read failed", "error", err)
		return nil, err
	}
	if !ok || raw == "" {
		return []profile.Profile{}, nil
	}
	var ps []profile.Profile
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		s.logger.Warn("stored profiles are corrupt", "error", err)
		return []profile.Profile{}, nil
	}
	if ps == nil {
		ps = []profile.Profile{}
	}
	return ps, nil
}

func (s *Store) write(ctx context.Context, ps []profile.Profile) bool {
	out := make([]profile.Profile, len(ps))
	for i, p := range ps {
		p.Photos = nil
		out[i] = p
	}
	data, err := json.Marshal(out)
	if err != nil {
		s.logger.Warn("encode failed", "error", err)
		return false
	}
	if s.quota > 0 && len(data) > s.quota {
		s.logger.Warn("write rejected", "error", fmt.Errorf("quota exceeded: %d > %d bytes", len(data), s.quota))
		return false
	}
	if err := s.backend.Set(ctx, ProfilesKey, string(data)); err != nil {
		s.logger.Warn("write failed", "error", err)
		return false
	}
	return true
}
