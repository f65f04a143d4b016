package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reston-rays/xwoba-matchups/models"
)

// PipelineStore is the slice of the persistence layer the engine drives.
type PipelineStore interface {
	GetSeasonSplits(ctx context.Context, playerIDs []int64, role string, season int) (map[models.SplitKey]*models.PlayerSplit, error)
	GetBios(ctx context.Context, playerIDs []int64) (map[int64]models.PlayerBio, error)
	UpsertGames(ctx context.Context, games []models.ScheduledGame) (int, error)
	UpsertMatchups(ctx context.Context, matchups []models.DailyMatchup) (int, error)
}

// SkippedPair records one pair the run dropped and why, for operator
// diagnosis.
type SkippedPair struct {
	GamePk    int64  `json:"game_pk"`
	BatterID  int64  `json:"batter_id"`
	PitcherID int64  `json:"pitcher_id"`
	Reason    string `json:"reason"`
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID          uuid.UUID     `json:"run_id"`
	Date           string        `json:"date"`
	Games          int           `json:"games"`
	PairsGenerated int           `json:"pairs_generated"`
	RowsWritten    int           `json:"rows_written"`
	Skipped        []SkippedPair `json:"skipped,omitempty"`
	Duration       string        `json:"duration"`
}

// Engine orchestrates a full matchup computation: resolve the day's games,
// generate pairs, resolve handedness, join splits, average, and upsert.
type Engine struct {
	resolver *Resolver
	api      ScheduleAPI
	store    PipelineStore
	logger   *logrus.Logger
}

func NewEngine(api ScheduleAPI, store PipelineStore, logger *logrus.Logger) *Engine {
	return &Engine{
		resolver: NewResolver(api, logger),
		api:      api,
		store:    store,
		logger:   logger,
	}
}

// RefreshSchedule fetches and upserts the schedule for a date range. Returns
// the number of games written.
func (e *Engine) RefreshSchedule(ctx context.Context, startDate, endDate string) (int, error) {
	games, err := e.api.GetSchedule(ctx, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh schedule: %w", err)
	}

	n, err := e.store.UpsertGames(ctx, games)
	if err != nil {
		return 0, fmt.Errorf("failed to store schedule: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"start_date": startDate,
		"end_date":   endDate,
		"games":      n,
	}).Info("Schedule refreshed")

	return n, nil
}

// ComputeMatchups runs the full pipeline for one date. The schedule fetch
// and the final batch write are the only fatal failures; everything per game
// or per pair degrades to a skip with a recorded reason.
func (e *Engine) ComputeMatchups(ctx context.Context, date string) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{RunID: uuid.New(), Date: date}

	log := e.logger.WithFields(logrus.Fields{"run_id": report.RunID, "date": date})
	log.Info("Starting matchup computation")

	resolved, err := e.resolver.ResolveDay(ctx, date)
	if err != nil {
		return nil, err
	}
	report.Games = len(resolved)

	games := make([]models.ScheduledGame, len(resolved))
	for i := range resolved {
		games[i] = resolved[i].Game
	}
	if _, err := e.store.UpsertGames(ctx, games); err != nil {
		return nil, fmt.Errorf("failed to store games for %s: %w", date, err)
	}

	pairs := GeneratePairs(resolved)
	report.PairsGenerated = len(pairs)

	matchups, skipped, err := e.buildMatchups(ctx, pairs)
	if err != nil {
		return nil, err
	}
	report.Skipped = skipped

	written, err := e.store.UpsertMatchups(ctx, matchups)
	if err != nil {
		return nil, fmt.Errorf("failed to write matchups for %s: %w", date, err)
	}
	report.RowsWritten = written
	report.Duration = time.Since(started).Round(time.Millisecond).String()

	log.WithFields(logrus.Fields{
		"games":        report.Games,
		"pairs":        report.PairsGenerated,
		"rows_written": report.RowsWritten,
		"skipped":      len(report.Skipped),
		"duration":     report.Duration,
	}).Info("Matchup computation finished")

	return report, nil
}

// buildMatchups resolves handedness and joins composite splits for every
// pair. Pairs with missing bios, missing split rows or incomplete metrics
// are dropped with a reason; only batch reads can fail the run.
func (e *Engine) buildMatchups(ctx context.Context, pairs []models.MatchupPair) ([]models.DailyMatchup, []SkippedPair, error) {
	if len(pairs) == 0 {
		return nil, nil, nil
	}

	batterIDs, pitcherIDs := collectIDs(pairs)

	bios, err := e.store.GetBios(ctx, append(append([]int64{}, batterIDs...), pitcherIDs...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load player bios: %w", err)
	}

	pitcherSplits, err := e.store.GetSeasonSplits(ctx, pitcherIDs, models.RolePitcher, models.CompositeSeason)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pitcher splits: %w", err)
	}
	batterSplits, err := e.store.GetSeasonSplits(ctx, batterIDs, models.RoleBatter, models.CompositeSeason)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load batter splits: %w", err)
	}

	var matchups []models.DailyMatchup
	var skipped []SkippedPair

	skip := func(pair models.MatchupPair, reason string) {
		skipped = append(skipped, SkippedPair{
			GamePk:    pair.GamePk,
			BatterID:  pair.BatterID,
			PitcherID: pair.PitcherID,
			Reason:    reason,
		})
		e.logger.WithFields(logrus.Fields{
			"game_pk":    pair.GamePk,
			"batter_id":  pair.BatterID,
			"pitcher_id": pair.PitcherID,
			"reason":     reason,
		}).Debug("Skipped pair")
	}

	for _, pair := range pairs {
		batterBio, ok := bios[pair.BatterID]
		if !ok {
			skip(pair, "no bio for batter")
			continue
		}
		pitcherBio, ok := bios[pair.PitcherID]
		if !ok {
			skip(pair, "no bio for pitcher")
			continue
		}
		pair.BatterName = batterBio.FullName

		batterHand, err := EffectiveSide(batterBio.Bats, pitcherBio.Throws)
		if err != nil {
			skip(pair, err.Error())
			continue
		}

		// The pitcher's split is versus the side the batter actually takes;
		// the batter's split is versus the pitcher's real throwing hand.
		pitcherSplit, ok := pitcherSplits[models.SplitKey{PlayerID: pair.PitcherID, VsHand: batterHand}]
		if !ok {
			skip(pair, fmt.Sprintf("no pitcher split vs %s", batterHand))
			continue
		}
		batterSplit, ok := batterSplits[models.SplitKey{PlayerID: pair.BatterID, VsHand: pitcherBio.Throws}]
		if !ok {
			skip(pair, fmt.Sprintf("no batter split vs %s", pitcherBio.Throws))
			continue
		}

		matchup, err := BuildMatchup(pair, batterHand, pitcherBio.Throws, pitcherSplit, batterSplit)
		if err != nil {
			skip(pair, err.Error())
			continue
		}
		matchups = append(matchups, matchup)
	}

	return matchups, skipped, nil
}

// collectIDs returns the deduplicated batter and pitcher id sets of a pair
// list, preserving first-seen order.
func collectIDs(pairs []models.MatchupPair) (batters, pitchers []int64) {
	seenB := make(map[int64]bool)
	seenP := make(map[int64]bool)
	for _, p := range pairs {
		if !seenB[p.BatterID] {
			seenB[p.BatterID] = true
			batters = append(batters, p.BatterID)
		}
		if !seenP[p.PitcherID] {
			seenP[p.PitcherID] = true
			pitchers = append(pitchers, p.PitcherID)
		}
	}
	return batters, pitchers
}
