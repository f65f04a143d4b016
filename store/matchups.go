package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reston-rays/xwoba-matchups/models"
)

const matchupColumns = `
	game_date, game_pk, batter_id, batter_name, batter_team_abbr, lineup_spot,
	pitcher_id, pitcher_name, pitcher_team_abbr, batter_hand, pitcher_hand,
	avg_xwoba, avg_launch_angle, avg_barrels_per_pa, avg_hard_hit_rate, avg_exit_velo,
	avg_hr_per_pa, avg_k_rate, avg_bb_rate, avg_iso, avg_whiff_rate`

// game_date is a DATE column but the model carries dates as YYYY-MM-DD
// strings, and pgx will not scan a date into a string destination, so it is
// cast to text on the way out.
const matchupSelect = `
	SELECT game_date::text, game_pk, batter_id, batter_name, batter_team_abbr, lineup_spot,
	       pitcher_id, pitcher_name, pitcher_team_abbr, batter_hand, pitcher_hand,
	       avg_xwoba, avg_launch_angle, avg_barrels_per_pa, avg_hard_hit_rate, avg_exit_velo,
	       avg_hr_per_pa, avg_k_rate, avg_bb_rate, avg_iso, avg_whiff_rate, updated_at
	FROM daily_matchups`

// UpsertMatchups writes all computed matchup rows for a run in one
// transaction, keyed by (game_date, game_pk, batter_id, pitcher_id).
// Re-running the pipeline for the same date overwrites prior values for the
// same keys; any failure rolls back the whole batch. Returns rows written.
func (s *Store) UpsertMatchups(ctx context.Context, matchups []models.DailyMatchup) (int, error) {
	if len(matchups) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO daily_matchups (` + matchupColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW())
		ON CONFLICT (game_date, game_pk, batter_id, pitcher_id) DO UPDATE SET
			batter_name = EXCLUDED.batter_name,
			batter_team_abbr = EXCLUDED.batter_team_abbr,
			lineup_spot = EXCLUDED.lineup_spot,
			pitcher_name = EXCLUDED.pitcher_name,
			pitcher_team_abbr = EXCLUDED.pitcher_team_abbr,
			batter_hand = EXCLUDED.batter_hand,
			pitcher_hand = EXCLUDED.pitcher_hand,
			avg_xwoba = EXCLUDED.avg_xwoba,
			avg_launch_angle = EXCLUDED.avg_launch_angle,
			avg_barrels_per_pa = EXCLUDED.avg_barrels_per_pa,
			avg_hard_hit_rate = EXCLUDED.avg_hard_hit_rate,
			avg_exit_velo = EXCLUDED.avg_exit_velo,
			avg_hr_per_pa = EXCLUDED.avg_hr_per_pa,
			avg_k_rate = EXCLUDED.avg_k_rate,
			avg_bb_rate = EXCLUDED.avg_bb_rate,
			avg_iso = EXCLUDED.avg_iso,
			avg_whiff_rate = EXCLUDED.avg_whiff_rate,
			updated_at = NOW()`

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin matchup upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range matchups {
		m := &matchups[i]
		batch.Queue(query,
			m.GameDate, m.GamePk, m.BatterID, m.BatterName, m.BatterTeamAbbr, m.LineupSpot,
			m.PitcherID, m.PitcherName, m.PitcherTeamAbbr, m.BatterHand, m.PitcherHand,
			m.AvgXWOBA, m.AvgLaunchAngle, m.AvgBarrelsPerPA, m.AvgHardHitRate, m.AvgExitVelo,
			m.AvgHRPerPA, m.AvgKRate, m.AvgBBRate, m.AvgISO, m.AvgWhiffRate,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range matchups {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to upsert matchup batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close matchup batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit matchup batch: %w", err)
	}

	return len(matchups), nil
}

// GetMatchupsByDate returns the per-game read view for a date: each game
// with venue and probable-pitcher context and its two matchup collections,
// display-sorted (lineup spot ascending nulls last, then xwOBA descending).
func (s *Store) GetMatchupsByDate(ctx context.Context, date string) ([]models.GameMatchups, error) {
	gamesQuery := `
		SELECT g.game_pk, g.game_time_utc, g.status,
		       g.home_team_abbr, g.away_team_abbr,
		       g.home_probable_name, g.away_probable_name,
		       hp.throws AS home_probable_hand, ap.throws AS away_probable_hand,
		       v.venue_id, v.name, v.city, v.roof_type, v.latitude, v.longitude
		FROM games g
		LEFT JOIN players hp ON g.home_probable_id = hp.player_id
		LEFT JOIN players ap ON g.away_probable_id = ap.player_id
		LEFT JOIN venues v ON g.venue_id = v.venue_id
		WHERE g.official_date = $1
		ORDER BY g.game_time_utc, g.game_pk`

	rows, err := s.db.Query(ctx, gamesQuery, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for %s: %w", date, err)
	}

	var games []models.GameMatchups
	index := make(map[int64]int)
	for rows.Next() {
		var gm models.GameMatchups
		var venueID *int
		var venueName, venueCity, venueRoof *string
		var lat, lon *float64

		err := rows.Scan(
			&gm.GamePk, &gm.GameTimeUTC, &gm.Status,
			&gm.HomeTeamAbbr, &gm.AwayTeamAbbr,
			&gm.HomeProbableName, &gm.AwayProbableName,
			&gm.HomeProbableHand, &gm.AwayProbableHand,
			&venueID, &venueName, &venueCity, &venueRoof, &lat, &lon,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}

		if venueID != nil {
			gm.Venue = &models.Venue{VenueID: *venueID, Latitude: lat, Longitude: lon}
			if venueName != nil {
				gm.Venue.Name = *venueName
			}
			if venueCity != nil {
				gm.Venue.City = *venueCity
			}
			if venueRoof != nil {
				gm.Venue.RoofType = *venueRoof
			}
		}

		gm.AwayMatchups = []models.DailyMatchup{}
		gm.HomeMatchups = []models.DailyMatchup{}
		index[gm.GamePk] = len(games)
		games = append(games, gm)
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return nil, fmt.Errorf("failed reading game rows: %w", rowsErr)
	}

	matchups, err := s.queryMatchups(ctx, matchupSelect+`
		WHERE game_date = $1`, date)
	if err != nil {
		return nil, err
	}

	for _, m := range matchups {
		i, ok := index[m.GamePk]
		if !ok {
			continue
		}
		if m.BatterTeamAbbr == games[i].HomeTeamAbbr {
			games[i].HomeMatchups = append(games[i].HomeMatchups, m)
		} else {
			games[i].AwayMatchups = append(games[i].AwayMatchups, m)
		}
	}

	for i := range games {
		models.SortMatchupsForDisplay(games[i].HomeMatchups)
		models.SortMatchupsForDisplay(games[i].AwayMatchups)
	}

	return games, nil
}

// GetTopMatchupsByDate returns the flattened top-N view across all games for
// a date, ordered by averaged xwOBA descending.
func (s *Store) GetTopMatchupsByDate(ctx context.Context, date string, limit int) ([]models.DailyMatchup, error) {
	return s.queryMatchups(ctx, matchupSelect+`
		WHERE game_date = $1
		ORDER BY avg_xwoba DESC
		LIMIT $2`, date, limit)
}

func (s *Store) queryMatchups(ctx context.Context, query string, args ...any) ([]models.DailyMatchup, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchups: %w", err)
	}
	defer rows.Close()

	var matchups []models.DailyMatchup
	for rows.Next() {
		var m models.DailyMatchup
		err := rows.Scan(
			&m.GameDate, &m.GamePk, &m.BatterID, &m.BatterName, &m.BatterTeamAbbr, &m.LineupSpot,
			&m.PitcherID, &m.PitcherName, &m.PitcherTeamAbbr, &m.BatterHand, &m.PitcherHand,
			&m.AvgXWOBA, &m.AvgLaunchAngle, &m.AvgBarrelsPerPA, &m.AvgHardHitRate, &m.AvgExitVelo,
			&m.AvgHRPerPA, &m.AvgKRate, &m.AvgBBRate, &m.AvgISO, &m.AvgWhiffRate,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup row: %w", err)
		}
		matchups = append(matchups, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading matchup rows: %w", err)
	}

	return matchups, nil
}
