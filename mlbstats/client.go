package mlbstats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/reston-rays/xwoba-matchups/models"
)

const (
	requestTimeout = 10 * time.Second

	// hydrations attached to the schedule fetch so one call carries probable
	// pitchers, published lineups and venue identity.
	scheduleHydrate = "probablePitcher,lineups,team,venue"
)

// Client talks to the MLB Stats API and maps its loosely-shaped responses
// into the strongly typed boundary entities the pipeline consumes.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *logrus.Logger
	retryAttempts int
	breaker       *gobreaker.CircuitBreaker
}

// NewClient creates an MLB Stats API client with bounded retry and a circuit
// breaker around the upstream host.
func NewClient(baseURL string, retryAttempts int, logger *logrus.Logger) *Client {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mlb-stats-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger:        logger,
		retryAttempts: retryAttempts,
		breaker:       breaker,
	}
}

// GetSchedule returns all games with official dates in [startDate, endDate],
// both formatted YYYY-MM-DD, hydrated with probable pitchers and any
// published lineups.
func (c *Client) GetSchedule(ctx context.Context, startDate, endDate string) ([]models.ScheduledGame, error) {
	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)
	params.Set("hydrate", scheduleHydrate)

	var resp scheduleResponse
	if err := c.makeRequest(ctx, "/schedule", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch schedule %s..%s: %w", startDate, endDate, err)
	}

	var games []models.ScheduledGame
	for _, d := range resp.Dates {
		for i := range d.Games {
			games = append(games, mapScheduledGame(&d.Games[i]))
		}
	}

	c.logger.WithFields(logrus.Fields{
		"start_date": startDate,
		"end_date":   endDate,
		"games":      len(games),
	}).Debug("Fetched schedule")

	return games, nil
}

// GetBoxscoreLineup returns the published batting orders for both sides of a
// game. Either slice may be empty when a lineup is not yet posted.
func (c *Client) GetBoxscoreLineup(ctx context.Context, gamePk int64) (home, away []int64, err error) {
	var resp boxscoreResponse
	path := fmt.Sprintf("/game/%d/boxscore", gamePk)
	if err := c.makeRequest(ctx, path, nil, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch boxscore for game %d: %w", gamePk, err)
	}
	return resp.Teams.Home.BattingOrder, resp.Teams.Away.BattingOrder, nil
}

// GetActiveRoster returns a team's full active roster.
func (c *Client) GetActiveRoster(ctx context.Context, teamID int) ([]models.RosterEntry, error) {
	params := url.Values{}
	params.Set("rosterType", "active")

	var resp rosterResponse
	path := fmt.Sprintf("/teams/%d/roster", teamID)
	if err := c.makeRequest(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch roster for team %d: %w", teamID, err)
	}

	entries := make([]models.RosterEntry, 0, len(resp.Roster))
	for _, r := range resp.Roster {
		if r.Person.ID == 0 {
			continue
		}
		entries = append(entries, models.RosterEntry{
			PlayerID: r.Person.ID,
			FullName: r.Person.FullName,
			Position: r.Position.Abbreviation,
		})
	}
	return entries, nil
}

// makeRequest performs one API call with bounded retry and exponential
// backoff, behind the circuit breaker. All external calls funnel through
// here so retry behavior stays uniform.
func (c *Client) makeRequest(ctx context.Context, path string, params url.Values, target interface{}) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt < c.retryAttempts; attempt++ {
			if attempt > 0 {
				backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", "xwoba-matchups/1.0")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = err
				continue
			}

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				resp.Body.Close()
				lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
				// Client errors won't improve with retries.
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return nil, lastErr
				}
				continue
			}

			decodeErr := json.NewDecoder(resp.Body).Decode(target)
			resp.Body.Close()
			if decodeErr != nil {
				return nil, fmt.Errorf("failed to parse response: %w", decodeErr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed after %d attempts: %w", c.retryAttempts, lastErr)
	})
	return err
}
