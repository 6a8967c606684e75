// Package eligibility resolves which sportsbooks may be used for a set of
// jurisdictions.
package eligibility

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable jurisdiction -> sportsbook mapping.
// Callers must not modify anything returned from it.
type Snapshot struct {
	version     uint64
	publishedAt time.Time
	books       map[string]map[string]struct{}
}

// Version increases with every publish
func (s *Snapshot) Version() uint64 { return s.version }

// PublishedAt is when the snapshot replaced its predecessor
func (s *Snapshot) PublishedAt() time.Time { return s.publishedAt }

// Jurisdictions lists every known jurisdiction code, sorted
func (s *Snapshot) Jurisdictions() []string {
	out := make([]string, 0, len(s.books))
	for j := range s.books {
		out = append(out, j)
	}
	sort.Strings(out)
	return out
}

// Bookmakers returns the sorted sportsbooks legal in jurisdiction
func (s *Snapshot) Bookmakers(jurisdiction string) ([]string, bool) {
	set, ok := s.books[normalize(jurisdiction)]
	if !ok {
		return nil, false
	}
	return sortedKeys(set), true
}

// JurisdictionsFor returns the sorted jurisdictions in which book is legal
func (s *Snapshot) JurisdictionsFor(book string) []string {
	book = normalize(book)
	var out []string
	for j, set := range s.books {
		if _, ok := set[book]; ok {
			out = append(out, j)
		}
	}
	sort.Strings(out)
	return out
}

// Registry owns the current Snapshot. Publish is the only writer; readers load
// the pointer and never observe a partially built mapping.
type Registry struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewRegistry creates a registry with an initial mapping
func NewRegistry(mapping map[string][]string) *Registry {
	r := &Registry{}
	r.Publish(mapping)
	return r
}

// Publish builds a new snapshot from mapping and swaps it in
func (r *Registry) Publish(mapping map[string][]string) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var version uint64 = 1
	if prev := r.current.Load(); prev != nil {
		version = prev.version + 1
	}

	books := make(map[string]map[string]struct{}, len(mapping))
	for j, list := range mapping {
		code := normalize(j)
		if code == "" {
			continue
		}
		set, ok := books[code]
		if !ok {
			set = make(map[string]struct{}, len(list))
			books[code] = set
		}
		for _, b := range list {
			if b = normalize(b); b != "" {
				set[b] = struct{}{}
			}
		}
	}

	snap := &Snapshot{version: version, publishedAt: time.Now(), books: books}
	r.current.Store(snap)
	return snap
}

// Snapshot returns the current mapping
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
