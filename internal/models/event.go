package models

import (
	"fmt"
	"strings"
	"time"
)

// MarketKind is the type of betable proposition
type MarketKind string

const (
	MarketKindMoneyline MarketKind = "moneyline"
	MarketKindSpread    MarketKind = "spread"
	MarketKindTotal     MarketKind = "total"
)

// ParseMarketKind maps provider and config market keys onto a MarketKind
func ParseMarketKind(key string) (MarketKind, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "moneyline", "h2h", "ml":
		return MarketKindMoneyline, nil
	case "spread", "spreads":
		return MarketKindSpread, nil
	case "total", "totals":
		return MarketKindTotal, nil
	default:
		return "", InvalidInputf("unknown market %q", key)
	}
}

// Event is one sporting fixture with its markets
type Event struct {
	ID       string    `json:"id"`
	Sport    string    `json:"sport"`
	League   string    `json:"league"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	StartsAt time.Time `json:"starts_at"`
	Markets  []*Market `json:"markets"`
}

// NewEvent builds an event, rejecting missing identity fields
func NewEvent(id, sport, league, home, away string, startsAt time.Time) (*Event, error) {
	if id == "" {
		return nil, InvalidInputf("event id is required")
	}
	if sport == "" || league == "" {
		return nil, InvalidInputf("event %s: sport and league are required", id)
	}
	return &Event{
		ID:       id,
		Sport:    sport,
		League:   league,
		HomeTeam: home,
		AwayTeam: away,
		StartsAt: startsAt,
	}, nil
}

// IsLive reports whether the event has started at the given instant
func (e *Event) IsLive(now time.Time) bool {
	return !e.StartsAt.IsZero() && !now.Before(e.StartsAt)
}

// AddMarket attaches a market, replacing one with the same ID
func (e *Event) AddMarket(m *Market) {
	for i, existing := range e.Markets {
		if existing.ID == m.ID {
			e.Markets[i] = m
			return
		}
	}
	e.Markets = append(e.Markets, m)
}

// Quotes flattens all quotes across the event's markets
func (e *Event) Quotes() []Quote {
	var out []Quote
	for _, m := range e.Markets {
		out = append(out, m.Quotes...)
	}
	return out
}

// Market is one proposition on one event with a closed outcome set.
type Market struct {
	ID       string     `db:"id" json:"id"`
	EventID  string     `db:"event_id" json:"event_id"`
	Kind     MarketKind `db:"kind" json:"kind"`
	Line     *float64   `db:"line" json:"line,omitempty"`
	Outcomes []string   `db:"outcomes" json:"outcomes"`
	StartsAt time.Time  `db:"starts_at" json:"starts_at"`
	Quotes   []Quote    `db:"-" json:"quotes,omitempty"`
}

// NewMarket builds a market. The outcome set must have at least two unique entries
// and cannot change afterwards.
func NewMarket(eventID string, kind MarketKind, line *float64, outcomes []string, startsAt time.Time) (*Market, error) {
	if eventID == "" {
		return nil, InvalidInputf("market event id is required")
	}
	if len(outcomes) < 2 {
		return nil, InvalidInputf("market on %s needs at least 2 outcomes, got %d", eventID, len(outcomes))
	}
	seen := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == "" {
			return nil, InvalidInputf("market on %s has an empty outcome", eventID)
		}
		if _, dup := seen[o]; dup {
			return nil, InvalidInputf("market on %s has duplicate outcome %q", eventID, o)
		}
		seen[o] = struct{}{}
	}
	set := make([]string, len(outcomes))
	copy(set, outcomes)

	return &Market{
		ID:       MarketID(eventID, kind, line),
		EventID:  eventID,
		Kind:     kind,
		Line:     line,
		Outcomes: set,
		StartsAt: startsAt,
	}, nil
}

// MarketID derives the stable market identifier. Spread lines keep their sign
// (the home side's handicap) so -3.5 and +3.5 are distinct markets.
func MarketID(eventID string, kind MarketKind, line *float64) string {
	if line == nil {
		return fmt.Sprintf("%s:%s", eventID, kind)
	}
	return fmt.Sprintf("%s:%s:%g", eventID, kind, *line)
}

// HasOutcome reports whether id belongs to the market's outcome set
func (m *Market) HasOutcome(id string) bool {
	for _, o := range m.Outcomes {
		if o == id {
			return true
		}
	}
	return false
}

// AddQuote attaches a quote after checking it references this market
func (m *Market) AddQuote(q Quote) error {
	if q.MarketID != m.ID {
		return InvalidInputf("quote for market %s added to %s", q.MarketID, m.ID)
	}
	if !m.HasOutcome(q.OutcomeID) {
		return InvalidInputf("outcome %q not in market %s", q.OutcomeID, m.ID)
	}
	m.Quotes = append(m.Quotes, q)
	return nil
}
