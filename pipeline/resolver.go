package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/reston-rays/xwoba-matchups/models"
)

// ScheduleAPI is the slice of the MLB Stats client the resolver needs.
type ScheduleAPI interface {
	GetSchedule(ctx context.Context, startDate, endDate string) ([]models.ScheduledGame, error)
	GetBoxscoreLineup(ctx context.Context, gamePk int64) (home, away []int64, err error)
	GetActiveRoster(ctx context.Context, teamID int) ([]models.RosterEntry, error)
}

// ResolvedGame is a scheduled game with both batting sides resolved. The
// FromLineup flags record whether the batter list is a published batting
// order (lineup spots apply) or an active-roster fallback (they don't).
type ResolvedGame struct {
	Game models.ScheduledGame

	HomeBatters    []int64
	AwayBatters    []int64
	HomeFromLineup bool
	AwayFromLineup bool
}

// Resolver turns a date into resolved games: schedule, probable pitchers and
// a batter list per side. The schedule fetch is the only fatal failure; any
// per-game trouble degrades to the active-roster fallback and is logged.
type Resolver struct {
	api    ScheduleAPI
	logger *logrus.Logger
}

func NewResolver(api ScheduleAPI, logger *logrus.Logger) *Resolver {
	return &Resolver{api: api, logger: logger}
}

// ResolveDay fetches the schedule for one date and resolves each game's
// batting sides concurrently. Output order matches the schedule order.
func (r *Resolver) ResolveDay(ctx context.Context, date string) ([]ResolvedGame, error) {
	games, err := r.api.GetSchedule(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schedule for %s: %w", date, err)
	}

	resolved := make([]ResolvedGame, len(games))
	var wg sync.WaitGroup
	for i := range games {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved[i] = r.resolveGame(ctx, games[i])
		}(i)
	}
	wg.Wait()

	return resolved, nil
}

func (r *Resolver) resolveGame(ctx context.Context, game models.ScheduledGame) ResolvedGame {
	rg := ResolvedGame{Game: game}

	rg.HomeBatters, rg.AwayBatters = game.HomeLineup, game.AwayLineup
	rg.HomeFromLineup = len(rg.HomeBatters) > 0
	rg.AwayFromLineup = len(rg.AwayBatters) > 0

	// The hydrated schedule often carries lineups before the boxscore does,
	// but not always; try the boxscore for whichever side is still missing.
	if !rg.HomeFromLineup || !rg.AwayFromLineup {
		home, away, err := r.api.GetBoxscoreLineup(ctx, game.GamePk)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"game_pk": game.GamePk,
				"error":   err.Error(),
			}).Warn("Boxscore lineup fetch failed, will fall back to rosters")
		} else {
			if !rg.HomeFromLineup && len(home) > 0 {
				rg.HomeBatters = home
				rg.HomeFromLineup = true
			}
			if !rg.AwayFromLineup && len(away) > 0 {
				rg.AwayBatters = away
				rg.AwayFromLineup = true
			}
		}
	}

	if !rg.HomeFromLineup {
		rg.HomeBatters = r.rosterFallback(ctx, game.GamePk, game.HomeTeamID)
	}
	if !rg.AwayFromLineup {
		rg.AwayBatters = r.rosterFallback(ctx, game.GamePk, game.AwayTeamID)
	}

	return rg
}

// rosterFallback returns the full active roster as an unordered batter list,
// one candidate pair per roster member. Pitchers stay in; whether a pairing
// survives is decided downstream by the split data, not by position. Errors
// leave the side empty; the game still produces pairs for the other side.
func (r *Resolver) rosterFallback(ctx context.Context, gamePk int64, teamID int) []int64 {
	roster, err := r.api.GetActiveRoster(ctx, teamID)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"game_pk": gamePk,
			"team_id": teamID,
			"error":   err.Error(),
		}).Warn("Active roster fetch failed, side yields no batters")
		return nil
	}

	batters := make([]int64, 0, len(roster))
	for _, entry := range roster {
		batters = append(batters, entry.PlayerID)
	}
	return batters
}
