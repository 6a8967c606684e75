package eligibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/models"
)

// Filter answers "which sportsbooks are legal in all of these jurisdictions"
type Filter struct {
	registry *Registry
	cache    *TTLCache
	logger   *logrus.Entry
}

// NewFilter creates a filter over registry. cache may be nil to disable caching.
func NewFilter(registry *Registry, cache *TTLCache, logger *logrus.Logger) *Filter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Filter{
		registry: registry,
		cache:    cache,
		logger:   logger.WithField("component", "eligibility"),
	}
}

// EligibleBookmakers returns the sorted intersection of sportsbooks legal in
// every jurisdiction. An empty or unknown jurisdiction list is ErrInvalidInput;
// an empty intersection is returned as an empty slice.
func (f *Filter) EligibleBookmakers(jurisdictions []string) ([]string, error) {
	codes := dedupe(jurisdictions)
	if len(codes) == 0 {
		return nil, models.InvalidInputf("at least one jurisdiction is required")
	}

	snap := f.registry.Snapshot()
	key := fmt.Sprintf("v%d|%s", snap.Version(), strings.Join(codes, ","))
	if f.cache != nil {
		if v, ok := f.cache.Get(key); ok {
			return append([]string(nil), v.([]string)...), nil
		}
	}

	var eligible map[string]struct{}
	for _, code := range codes {
		set, ok := snap.books[code]
		if !ok {
			return nil, models.InvalidInputf("unknown jurisdiction %q", code)
		}
		if eligible == nil {
			eligible = make(map[string]struct{}, len(set))
			for b := range set {
				eligible[b] = struct{}{}
			}
			continue
		}
		for b := range eligible {
			if _, ok := set[b]; !ok {
				delete(eligible, b)
			}
		}
	}

	result := sortedKeys(eligible)
	f.logger.WithFields(logrus.Fields{
		"jurisdictions": codes,
		"eligible":      len(result),
		"version":       snap.Version(),
	}).Debug("Resolved eligible bookmakers")

	if f.cache != nil {
		f.cache.Set(key, append([]string(nil), result...))
	}
	return result, nil
}

// Snapshot exposes the registry's current mapping
func (f *Filter) Snapshot() *Snapshot {
	return f.registry.Snapshot()
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normalize(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
