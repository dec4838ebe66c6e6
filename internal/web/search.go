package web

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hpungsan/internmap/internal/geo"
)

const (
	// DefaultSearchSessions caps how many clients keep a type-ahead session.
	DefaultSearchSessions = 512

	// SearchSessionTTL drops idle sessions.
	SearchSessionTTL = 30 * time.Minute
)

// searchSessions hands each client its own geo.SearchSession so a newer
// keystroke supersedes only that client's older query.
type searchSessions struct {
	geo   *geo.Service
	mu    sync.Mutex
	cache *expirable.LRU[string, *geo.SearchSession]
}

func newSearchSessions(svc *geo.Service, size int, ttl time.Duration) *searchSessions {
	return &searchSessions{
		geo:   svc,
		cache: expirable.NewLRU[string, *geo.SearchSession](size, nil, ttl),
	}
}

// get returns the session for key, creating it on first use.
func (s *searchSessions) get(key string) *geo.SearchSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache.Get(key); ok {
		return sess
	}
	sess := s.geo.NewSession()
	s.cache.Add(key, sess)
	return sess
}
