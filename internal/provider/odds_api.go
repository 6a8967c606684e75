package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/models"
)

const (
	oddsAPIName = "odds_api"

	headerRequestsUsed      = "x-requests-used"
	headerRequestsRemaining = "x-requests-remaining"

	maxErrorBody = 512
)

// OddsAPIProvider implements OddsProvider against a v4 odds HTTP API
type OddsAPIProvider struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
	now        func() time.Time
}

// apiEvent mirrors one event in the odds response
type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key        string      `json:"key"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key        string       `json:"key"`
	LastUpdate time.Time    `json:"last_update"`
	Outcomes   []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

// NewOddsAPIProvider creates a live provider. An empty apiKey is a
// configuration error, never a reason to fall back to simulated data.
func NewOddsAPIProvider(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) (*OddsAPIProvider, error) {
	if apiKey == "" {
		return nil, models.ErrMissingProviderKey
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OddsAPIProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.WithField("component", "provider").WithField("provider", oddsAPIName),
		now:        time.Now,
	}, nil
}

// Name returns the provider name
func (p *OddsAPIProvider) Name() string { return oddsAPIName }

// Provenance returns live
func (p *OddsAPIProvider) Provenance() models.Provenance { return models.ProvenanceLive }

// FetchOdds retrieves one sport's odds. Credit usage comes from the
// x-requests-* response headers when present.
func (p *OddsAPIProvider) FetchOdds(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if req.Sport == "" {
		return nil, models.InvalidInputf("sport is required")
	}

	endpoint := p.baseURL + EndpointPath(req.Sport)
	q := url.Values{}
	q.Set("apiKey", p.apiKey)
	q.Set("oddsFormat", "decimal")
	q.Set("dateFormat", "iso")
	q.Set("markets", strings.Join(req.Markets, ","))
	if len(req.Bookmakers) > 0 {
		q.Set("bookmakers", strings.Join(req.Bookmakers, ","))
	}

	start := p.now()
	resp, err := p.httpClient.Get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, classifyTransportError(oddsAPIName, req.Sport, err)
	}
	defer resp.Body.Close()

	usage, reported := parseUsage(resp.Header)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, classifyStatus(oddsAPIName, req.Sport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewProviderError(oddsAPIName, req.Sport, ErrCodeInvalidData, "decode response", fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err))
	}

	events := p.normalize(payload, req, start)
	if !reported {
		usage = models.CreditUsage{Used: CreditsFor(len(req.Markets), len(req.Bookmakers))}
	}

	p.logger.WithFields(logrus.Fields{
		"sport":     req.Sport,
		"events":    len(events),
		"used":      usage.Used,
		"remaining": usage.Remaining,
		"reported":  usage.Reported,
		"duration":  p.now().Sub(start).String(),
	}).Debug("Fetched odds")

	return &FetchResult{Events: events, Usage: usage, Requests: 1}, nil
}

func parseUsage(h http.Header) (models.CreditUsage, bool) {
	usedRaw, remainingRaw := h.Get(headerRequestsUsed), h.Get(headerRequestsRemaining)
	if usedRaw == "" || remainingRaw == "" {
		return models.CreditUsage{}, false
	}
	used, err1 := strconv.ParseFloat(usedRaw, 64)
	remaining, err2 := strconv.ParseFloat(remainingRaw, 64)
	if err1 != nil || err2 != nil {
		return models.CreditUsage{}, false
	}
	return models.CreditUsage{Used: int(used), Remaining: int(remaining), Reported: true}, true
}

// normalize turns the wire payload into Event -> Market -> Quote. Each market's
// outcome set is collected across all bookmakers before any quote is attached.
func (p *OddsAPIProvider) normalize(payload []apiEvent, req FetchRequest, fetchedAt time.Time) []models.Event {
	allowed := make(map[string]struct{}, len(req.Bookmakers))
	for _, b := range req.Bookmakers {
		allowed[strings.ToLower(b)] = struct{}{}
	}

	events := make([]models.Event, 0, len(payload))
	for _, raw := range payload {
		league := raw.SportTitle
		if league == "" {
			league = raw.SportKey
		}
		sport := raw.SportKey
		if sport == "" {
			sport = req.Sport
		}
		event, err := models.NewEvent(raw.ID, sport, league, raw.HomeTeam, raw.AwayTeam, raw.CommenceTime)
		if err != nil {
			p.logger.WithError(err).Warn("Skipping malformed event")
			continue
		}
		live := event.IsLive(fetchedAt)
		if req.LiveOnly && !live {
			continue
		}

		type marketKey struct {
			kind models.MarketKind
			line string
		}
		outcomes := make(map[marketKey][]string)
		lines := make(map[marketKey]*float64)
		order := make([]marketKey, 0)

		for _, bm := range raw.Bookmakers {
			for _, m := range bm.Markets {
				kind, err := models.ParseMarketKind(m.Key)
				if err != nil {
					continue
				}
				line := marketLine(kind, raw.HomeTeam, m.Outcomes)
				key := marketKey{kind: kind, line: lineKey(line)}
				if _, seen := outcomes[key]; !seen {
					order = append(order, key)
					lines[key] = line
				}
				for _, o := range m.Outcomes {
					if !contains(outcomes[key], o.Name) {
						outcomes[key] = append(outcomes[key], o.Name)
					}
				}
			}
		}

		markets := make(map[marketKey]*models.Market, len(order))
		for _, key := range order {
			names := outcomes[key]
			sort.Strings(names)
			market, err := models.NewMarket(event.ID, key.kind, lines[key], names, event.StartsAt)
			if err != nil {
				p.logger.WithError(err).WithField("event_id", event.ID).Debug("Skipping market")
				continue
			}
			markets[key] = market
			event.AddMarket(market)
		}

		for _, bm := range raw.Bookmakers {
			book := strings.ToLower(bm.Key)
			if len(allowed) > 0 {
				if _, ok := allowed[book]; !ok {
					continue
				}
			}
			for _, m := range bm.Markets {
				kind, err := models.ParseMarketKind(m.Key)
				if err != nil {
					continue
				}
				market, ok := markets[marketKey{kind: kind, line: lineKey(marketLine(kind, raw.HomeTeam, m.Outcomes))}]
				if !ok {
					continue
				}
				captured := m.LastUpdate
				if captured.IsZero() {
					captured = bm.LastUpdate
				}
				if captured.IsZero() {
					captured = fetchedAt
				}
				for _, o := range m.Outcomes {
					if o.Price <= 1 {
						continue
					}
					err := market.AddQuote(models.Quote{
						ID:         uuid.New(),
						EventID:    event.ID,
						MarketID:   market.ID,
						Sportsbook: book,
						OutcomeID:  o.Name,
						Price:      o.Price,
						IsLive:     live,
						CapturedAt: captured,
						Provenance: models.ProvenanceLive,
					})
					if err != nil {
						p.logger.WithError(err).WithFields(logrus.Fields{
							"event_id":   event.ID,
							"sportsbook": book,
						}).Debug("Dropping quote")
					}
				}
			}
		}

		events = append(events, *event)
	}
	return events
}

// marketLine is the home side's spread or the total's point; nil for moneyline
func marketLine(kind models.MarketKind, home string, outcomes []apiOutcome) *float64 {
	switch kind {
	case models.MarketKindSpread:
		for _, o := range outcomes {
			if o.Name == home && o.Point != nil {
				v := *o.Point
				return &v
			}
		}
		for _, o := range outcomes {
			if o.Point != nil {
				v := -*o.Point
				return &v
			}
		}
	case models.MarketKindTotal:
		for _, o := range outcomes {
			if o.Point != nil {
				v := *o.Point
				return &v
			}
		}
	}
	return nil
}

func lineKey(line *float64) string {
	if line == nil {
		return ""
	}
	return strconv.FormatFloat(*line, 'g', -1, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
