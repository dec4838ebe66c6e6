package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a profile from the store and the working copy.
func (s *Session) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewNotFound(id)
	}
	if !s.store.DeleteByID(ctx, id) {
		return nil, errors.NewStorage("profile could not be deleted")
	}

	kept := s.profiles[:0]
	for _, p := range s.profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.profiles = kept
	delete(s.photos, id)

	s.logger.Info("profile deleted", "id", id)
	return &DeleteOutput{Deleted: true, ID: id}, nil
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared int `json:"cleared"`
}

// Clear removes the whole stored collection and empties the working copy.
// An empty store is reseeded with the reference set on the next boot.
func (s *Session) Clear(ctx context.Context) (*ClearOutput, error) {
	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.profiles)
	s.store.Clear(ctx)
	s.profiles = []profile.Profile{}
	s.photos = make(map[string][]string)
	s.booted = true

	s.logger.Info("profiles cleared", "count", n)
	return &ClearOutput{Cleared: n}, nil
}
