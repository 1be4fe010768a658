// Package racing provides the client for the upstream racing data API:
// meetings, races, runner odds, and race results. The staking core never
// depends on this package; it is wiring for the service around it.
package racing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/puntguard/internal/metrics"
)

// Meeting represents a race meeting at a venue
type Meeting struct {
	ID    string `json:"id"`
	Venue string `json:"venue"`
	Date  string `json:"date"`
	Races []Race `json:"races"`
}

// Race represents a single race within a meeting
type Race struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meetingId"`
	Number     int       `json:"raceNumber"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"startTime"`
	Distance   int       `json:"distance"`
	TrackState string    `json:"trackCondition"`
	Runners    []Runner  `json:"runners"`
}

// Runner represents a runner entry with its current fixed odds
type Runner struct {
	Number    int     `json:"runnerNumber"`
	Name      string  `json:"runnerName"`
	Barrier   int     `json:"barrier"`
	Jockey    string  `json:"jockey"`
	WinOdds   float64 `json:"winOdds"`
	Scratched bool    `json:"scratched"`
}

// Result represents the outcome of a completed race
type Result struct {
	RaceID       string `json:"raceId"`
	Status       string `json:"status"`
	WinnerNumber int    `json:"winnerNumber"`
	WinnerName   string `json:"winnerName"`
	Abandoned    bool   `json:"abandoned"`
}

// rawRunner carries odds as strings; some feeds send "4.50", others numbers
type rawRunner struct {
	Number    int             `json:"runnerNumber"`
	Name      string          `json:"runnerName"`
	Barrier   int             `json:"barrier"`
	Jockey    string          `json:"jockey"`
	WinOdds   json.RawMessage `json:"winOdds"`
	Scratched bool            `json:"scratched"`
}

type rawRace struct {
	ID         string      `json:"id"`
	MeetingID  string      `json:"meetingId"`
	Number     int         `json:"raceNumber"`
	Name       string      `json:"name"`
	StartTime  time.Time   `json:"startTime"`
	Distance   int         `json:"distance"`
	TrackState string      `json:"trackCondition"`
	Runners    []rawRunner `json:"runners"`
}

// Client talks to the racing data API
type Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a racing data API client. Responses are cached for
// the given TTL to keep the dashboard-style polling off the upstream API.
func NewClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, cacheTTL time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache.New(cacheTTL, cacheTTL*2),
		logger:     logger,
	}
}

// FetchMeetings retrieves the meetings for a given date
func (c *Client) FetchMeetings(ctx context.Context, date time.Time) ([]Meeting, error) {
	cacheKey := "meetings:" + date.Format("2006-01-02")
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]Meeting), nil
	}

	url := fmt.Sprintf("%s/meetings?date=%s", c.baseURL, date.Format("2006-01-02"))

	var meetings []Meeting
	if err := c.getJSON(ctx, url, &meetings); err != nil {
		return nil, err
	}

	c.cache.SetDefault(cacheKey, meetings)
	return meetings, nil
}

// FetchRace retrieves a race with its runners and current odds
func (c *Client) FetchRace(ctx context.Context, raceID string) (*Race, error) {
	cacheKey := "race:" + raceID
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Race), nil
	}

	url := fmt.Sprintf("%s/races/%s", c.baseURL, raceID)

	var raw rawRace
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	race, err := normalizeRace(raw)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(cacheKey, race)
	return race, nil
}

// FetchResult retrieves the result of a race. Results are not cached;
// the settlement poller needs fresh state.
func (c *Client) FetchResult(ctx context.Context, raceID string) (*Result, error) {
	url := fmt.Sprintf("%s/races/%s/result", c.baseURL, raceID)

	var result Result
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.RecordRacingFetchDuration(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewAPIError(ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return NewAPIError(ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewAPIError(ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewAPIError(ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewAPIError(ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return NewAPIError(ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewAPIError(ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}

// normalizeRace converts raw API payloads into the canonical Race shape,
// parsing odds through decimal so "4.50" and 4.5 agree exactly.
func normalizeRace(raw rawRace) (*Race, error) {
	race := &Race{
		ID:         raw.ID,
		MeetingID:  raw.MeetingID,
		Number:     raw.Number,
		Name:       raw.Name,
		StartTime:  raw.StartTime,
		Distance:   raw.Distance,
		TrackState: raw.TrackState,
		Runners:    make([]Runner, 0, len(raw.Runners)),
	}

	for _, rr := range raw.Runners {
		odds, err := parseOdds(rr.WinOdds)
		if err != nil {
			return nil, NewAPIError(ErrCodeInvalidData, fmt.Sprintf("runner %d has invalid odds", rr.Number), err)
		}
		race.Runners = append(race.Runners, Runner{
			Number:    rr.Number,
			Name:      rr.Name,
			Barrier:   rr.Barrier,
			Jockey:    rr.Jockey,
			WinOdds:   odds,
			Scratched: rr.Scratched,
		})
	}

	return race, nil
}

// parseOdds accepts both quoted and bare decimal odds
func parseOdds(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		d, err := decimal.NewFromString(asString)
		if err != nil {
			return 0, err
		}
		f, _ := d.Float64()
		return f, nil
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err != nil {
		return 0, err
	}
	return asNumber, nil
}
