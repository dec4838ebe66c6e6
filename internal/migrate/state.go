package migrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hpungsan/internmap/internal/store"
)

// StateKey is the durable key holding the migration State record.
const StateKey = "migration_state"

// CurrentVersion is written to State.Version once every flagged step has run.
const CurrentVersion = 1

// State records which one-time migration steps have completed.
// Each flag is only a hint: steps also re-check the data itself.
type State struct {
	Version              int  `json:"version"`
	SampleDataV2         bool `json:"sampleDataV2"`
	FixedReferenceRecord bool `json:"fixedReferenceRecord"`
	RemoteSamples        bool `json:"remoteSamples"`
	TravelTimes          bool `json:"travelTimes"`
	Ratings              bool `json:"ratings"`
	Narratives           bool `json:"narratives"`
}

// Complete reports whether every flag is set.
func (s State) Complete() bool {
	return s.SampleDataV2 && s.FixedReferenceRecord && s.RemoteSamples &&
		s.TravelTimes && s.Ratings && s.Narratives
}

// legacyFlags maps the scattered per-step keys of older installs, each holding
// the literal "true", onto State fields.
var legacyFlags = []struct {
	key string
	set func(*State)
}{
	{"sampleDataV2Migrated", func(s *State) { s.SampleDataV2 = true }},
	{"fixedReferenceRecordMigrated", func(s *State) { s.FixedReferenceRecord = true }},
	{"remoteSamplesAdded", func(s *State) { s.RemoteSamples = true }},
	{"travelTimesMigrated", func(s *State) { s.TravelTimes = true }},
	{"ratingsMigrated", func(s *State) { s.Ratings = true }},
	{"narrativesMigrated", func(s *State) { s.Narratives = true }},
}

// StateStore loads and saves State through a store.Backend.
type StateStore struct {
	backend store.Backend
}

// NewStateStore creates a StateStore over backend.
func NewStateStore(backend store.Backend) *StateStore {
	return &StateStore{backend: backend}
}

// Load returns the persisted State. When no State record exists, legacy flag
// keys are folded in. Unreadable state yields the zero State, which makes
// every step re-check its data.
func (s *StateStore) Load(ctx context.Context) (State, error) {
	raw, ok, err := s.backend.Get(ctx, StateKey)
	if err != nil {
		return State{}, err
	}
	if ok {
		var st State
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return State{}, fmt.Errorf("decode migration state: %w", err)
		}
		return st, nil
	}

	var st State
	for _, flag := range legacyFlags {
		v, ok, err := s.backend.Get(ctx, flag.key)
		if err != nil {
			return State{}, err
		}
		if ok && v == "true" {
			flag.set(&st)
		}
	}
	return st, nil
}

// Save persists st as a single record and removes any legacy flag keys.
func (s *StateStore) Save(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, StateKey, string(data)); err != nil {
		return err
	}
	for _, flag := range legacyFlags {
		if err := s.backend.Delete(ctx, flag.key); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes the persisted State so the next run re-evaluates every step.
func (s *StateStore) Reset(ctx context.Context) error {
	return s.backend.Delete(ctx, StateKey)
}
