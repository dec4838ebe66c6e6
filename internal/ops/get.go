package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// Get returns one profile from the working copy.
func (s *Session) Get(ctx context.Context, input GetInput) (*profile.Profile, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := s.ensureBooted(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.Profiles() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.NewNotFound(id)
}
