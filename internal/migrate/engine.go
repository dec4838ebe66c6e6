// Package migrate reconciles the stored profile collection with the bundled
// reference dataset and the current record schema at startup.
package migrate

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hpungsan/internmap/internal/profile"
	"github.com/hpungsan/internmap/internal/reference"
	"github.com/hpungsan/internmap/internal/store"
)

// Step names, in execution order.
const (
	StepSeed        = "seed"
	StepDedupe      = "dedupe"
	StepReplaceRefs = "replace_reference_set"
	StepAnchor      = "anchor_presence"
	StepRemote      = "remote_samples"
	StepTravelTimes = "travel_times"
	StepRatings     = "ratings"
	StepNarratives  = "narratives"
	StepCleanup     = "cleanup"
)

// DefaultTestMarkers are the name substrings that mark throwaway test records.
var DefaultTestMarkers = []string{"asdf"}

// StepReport describes one step of a run.
type StepReport struct {
	Name string `json:"name"`
	// Ran is false when the step's flag was set and the data needed nothing.
	Ran     bool `json:"ran"`
	Changed int  `json:"changed"`
	// Persisted is false when a write failed; the step's flag stays unset.
	Persisted bool `json:"persisted"`
}

// Report is the outcome of Engine.Run.
type Report struct {
	Steps   []StepReport `json:"steps"`
	Removed []string     `json:"removed,omitempty"`
	State   State        `json:"state"`
	Total   int          `json:"total"`

	// Profiles is the reconciled working array, already flushed to the store.
	Profiles []profile.Profile `json:"-"`
}

// Step returns the report for name.
func (r *Report) Step(name string) (StepReport, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepReport{}, false
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	TestMarkers []string
	Now         func() time.Time
	Logger      *slog.Logger
}

// Engine runs the ordered migration steps.
type Engine struct {
	store   *store.Store
	states  *StateStore
	refs    *reference.Dataset
	markers []string
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an Engine.
func New(st *store.Store, states *StateStore, refs *reference.Dataset, opts Options) *Engine {
	e := &Engine{
		store:   st,
		states:  states,
		refs:    refs,
		markers: opts.TestMarkers,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if e.markers == nil {
		e.markers = DefaultTestMarkers
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.logger = e.logger.With("component", "migrate")
	return e
}

// run carries the working array and state between steps.
type run struct {
	ctx    context.Context
	work   []profile.Profile
	state  State
	report *Report
	// err aborts the run after the current step.
	err error
}

// Run executes every step in order. Each step persists before the next one
// starts. Storage failures are logged and leave the affected flag unset so
// the step is retried on the next run. Run only fails when ctx is done or the
// stored array cannot be read, in which case nothing is written.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	state, err := e.states.Load(ctx)
	if err != nil {
		e.logger.Warn("migration state unreadable, re-checking every step", "error", err)
		state = State{}
	}

	r := &run{ctx: ctx, state: state, report: &Report{}}
	steps := []func(*run) StepReport{
		e.seed,
		e.dedupe,
		e.replaceReferenceSet,
		e.ensureAnchor,
		e.addRemoteSamples,
		e.backfillTravelTimes,
		e.backfillRatings,
		e.backfillNarratives,
		e.cleanup,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sr := step(r)
		r.report.Steps = append(r.report.Steps, sr)
		if r.err != nil {
			e.logger.Warn("migration stopped", "step", sr.Name, "error", r.err)
			return nil, r.err
		}
		if sr.Ran {
			e.logger.Debug("step finished", "step", sr.Name, "changed", sr.Changed, "persisted", sr.Persisted)
		}
	}

	if r.state.Complete() && r.state.Version != CurrentVersion {
		r.state.Version = CurrentVersion
		e.saveState(r)
	}

	r.report.State = r.state
	r.report.Total = len(r.work)
	r.report.Profiles = r.work
	return r.report, nil
}

// saveState persists the working state. A failure only means steps re-check
// their data next time.
func (e *Engine) saveState(r *run) {
	if err := e.states.Save(r.ctx, r.state); err != nil {
		e.logger.Warn("migration state not saved", "error", err)
	}
}
