package geo

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"
)

// MinQueryLength is the shortest query that reaches a provider.
const MinQueryLength = 3

// SearchResult is the outcome of SearchSession.Search.
type SearchResult struct {
	Query      string      `json:"query"`
	Candidates []Candidate `json:"candidates"`
	Provider   string      `json:"provider,omitempty"`
	// Stale is set when a newer query was issued while this one was in
	// flight. Its candidates are discarded.
	Stale bool `json:"stale,omitempty"`
}

// SearchSession serializes one client's type-ahead searches so that only the
// latest query's result is delivered. Starting a query cancels the previous
// in-flight query.
type SearchSession struct {
	searcher Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSearchSession creates a session over searcher.
func NewSearchSession(searcher Searcher) *SearchSession {
	return &SearchSession{searcher: searcher}
}

// Search runs query, superseding any earlier query of this session.
func (s *SearchSession) Search(ctx context.Context, query string) SearchResult {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.seq++
	mine := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if utf8.RuneCountInString(query) < MinQueryLength {
		s.mu.Unlock()
		return SearchResult{Query: query, Candidates: []Candidate{}}
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	res := s.searcher.Search(ctx, query)

	s.mu.Lock()
	stale := mine != s.seq
	if !stale {
		s.cancel = nil
	}
	s.mu.Unlock()

	if stale {
		return SearchResult{Query: query, Candidates: []Candidate{}, Stale: true}
	}
	out := SearchResult{Query: query, Candidates: res.Value, Provider: res.Provider}
	if out.Candidates == nil {
		out.Candidates = []Candidate{}
	}
	return out
}
