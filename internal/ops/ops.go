// Package ops implements the application operations shared by the CLI, the
// MCP server and the web server. A Session owns the in-memory working copy of
// the profile collection and keeps it convergent with the record store.
package ops

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hpungsan/internmap/internal/config"
	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/migrate"
	"github.com/hpungsan/internmap/internal/profile"
	"github.com/hpungsan/internmap/internal/reference"
	"github.com/hpungsan/internmap/internal/store"
)

// Deps are the collaborators of a Session. Geo may be nil, in which case
// submissions and imports are never enriched.
type Deps struct {
	Store  *store.Store
	States *migrate.StateStore
	Refs   *reference.Dataset
	Geo    *geo.Service
	Config *config.Config
	Now    func() time.Time
	Logger *slog.Logger
}

// Session is the running application: the working copy plus everything that
// reads or changes it.
type Session struct {
	store  *store.Store
	engine *migrate.Engine
	geo    *geo.Service
	cfg    *config.Config
	now    func() time.Time
	logger *slog.Logger

	// writeMu serializes migration runs with operations that change the store.
	writeMu sync.Mutex

	mu       sync.RWMutex
	profiles []profile.Profile
	// photos holds submitted photo data by profile id for this process only.
	photos map[string][]string
	booted bool
}

// NewSession creates a Session. Call Boot before serving reads.
func NewSession(d Deps) *Session {
	s := &Session{
		store:    d.Store,
		geo:      d.Geo,
		cfg:      d.Config,
		now:      d.Now,
		logger:   d.Logger,
		profiles: []profile.Profile{},
		photos:   make(map[string][]string),
	}
	if s.cfg == nil {
		s.cfg = config.DefaultConfig()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.engine = migrate.New(d.Store, d.States, d.Refs, migrate.Options{
		TestMarkers: s.cfg.TestMarkers,
		Now:         s.now,
		Logger:      s.logger,
	})
	s.logger = s.logger.With("component", "ops")
	return s
}

// New wires a Session over an initialized database and the bundled reference
// dataset.
func New(database *sql.DB, cfg *config.Config, geoSvc *geo.Service, logger *slog.Logger) (*Session, error) {
	refs, err := reference.Load()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	backend := store.NewSQLiteBackend(database)
	return NewSession(Deps{
		Store:  store.New(backend, store.Options{QuotaBytes: cfg.StoreQuotaBytes, Logger: logger}),
		States: migrate.NewStateStore(backend),
		Refs:   refs,
		Geo:    geoSvc,
		Config: cfg,
		Logger: logger,
	}), nil
}

// Boot runs the migration engine and loads the reconciled collection into the
// working copy. It fails when ctx is done or the store cannot be read.
func (s *Session) Boot(ctx context.Context) (*migrate.Report, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.boot(ctx)
}

// boot requires writeMu.
func (s *Session) boot(ctx context.Context) (*migrate.Report, error) {
	report, err := s.engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = profile.CloneAll(report.Profiles)
	s.booted = true
	s.logger.Info("session booted", "profiles", len(s.profiles), "migrated", report.State.Complete())
	return report, nil
}

// ensureBooted lazily boots a Session whose caller skipped Boot.
func (s *Session) ensureBooted(ctx context.Context) error {
	if s.isBooted() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.isBooted() {
		return nil
	}
	_, err := s.boot(ctx)
	return err
}

func (s *Session) isBooted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booted
}

// Profiles returns a copy of the working collection with in-memory photos
// attached.
func (s *Session) Profiles() []profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := profile.CloneAll(s.profiles)
	for i := range out {
		if photos, ok := s.photos[out[i].ID]; ok {
			out[i].Photos = slices.Clone(photos)
		}
	}
	return out
}

// upsert replaces or appends p in the working copy. Caller holds mu.
func (s *Session) upsert(p profile.Profile) {
	for i := range s.profiles {
		if s.profiles[i].ID == p.ID {
			s.profiles[i] = p
			return
		}
	}
	s.profiles = append(s.profiles, p)
}
