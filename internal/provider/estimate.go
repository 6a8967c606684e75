package provider

import (
	"fmt"
	"sort"
	"strings"
)

// BookmakersPerRegion is how many bookmakers the API bills as one region
const BookmakersPerRegion = 10

// EndpointEstimate is the projected cost of one sport endpoint
type EndpointEstimate struct {
	Sport      string   `json:"sport"`
	Path       string   `json:"path"`
	Markets    []string `json:"markets"`
	Bookmakers int      `json:"bookmakers"`
	Requests   int      `json:"requests"`
	Credits    int      `json:"credits"`
}

// Estimate is the projected cost of a scan. It is computed from the filter and
// the eligibility mapping only.
type Estimate struct {
	Endpoints          []EndpointEstimate `json:"endpoints"`
	EligibleBookmakers []string           `json:"eligible_bookmakers"`
	TotalRequests      int                `json:"total_requests"`
	TotalCredits       int                `json:"total_credits"`
}

// Clone returns a copy that shares no slices with e
func (e Estimate) Clone() Estimate {
	out := e
	out.EligibleBookmakers = append([]string(nil), e.EligibleBookmakers...)
	out.Endpoints = make([]EndpointEstimate, len(e.Endpoints))
	for i, ep := range e.Endpoints {
		ep.Markets = append([]string(nil), ep.Markets...)
		out.Endpoints[i] = ep
	}
	return out
}

// EndpointPath returns the API path for a sport
func EndpointPath(sport string) string {
	return fmt.Sprintf("/v4/sports/%s/odds", sport)
}

// CreditsFor returns markets x ceil(bookmakers / BookmakersPerRegion)
func CreditsFor(markets, bookmakers int) int {
	if markets <= 0 || bookmakers <= 0 {
		return 0
	}
	regions := (bookmakers + BookmakersPerRegion - 1) / BookmakersPerRegion
	return markets * regions
}

// EstimateCost projects one request per sport endpoint. Inputs are normalised
// (trimmed, lower-cased, de-duplicated) so the same filter always yields the
// same estimate.
func EstimateCost(sports, markets, bookmakers []string) Estimate {
	sports = normalizeList(sports, false)
	markets = normalizeList(markets, true)
	books := normalizeList(bookmakers, true)

	est := Estimate{
		Endpoints:          make([]EndpointEstimate, 0, len(sports)),
		EligibleBookmakers: books,
	}
	for _, sport := range sports {
		credits := CreditsFor(len(markets), len(books))
		est.Endpoints = append(est.Endpoints, EndpointEstimate{
			Sport:      sport,
			Path:       EndpointPath(sport),
			Markets:    markets,
			Bookmakers: len(books),
			Requests:   1,
			Credits:    credits,
		})
		est.TotalRequests++
		est.TotalCredits += credits
	}
	return est
}

func normalizeList(in []string, sorted bool) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}
