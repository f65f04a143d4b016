package store

import (
	"context"
	"fmt"

	"github.com/reston-rays/xwoba-matchups/models"
)

// UpsertGames writes schedule rows keyed by game_pk. Refetches of the same
// game overwrite the prior row, so lineups and probable pitchers firm up in
// place without duplication. Returns the number of rows written.
func (s *Store) UpsertGames(ctx context.Context, games []models.ScheduledGame) (int, error) {
	query := `
		INSERT INTO games (
			game_pk, official_date, game_time_utc, status,
			home_team_id, away_team_id, home_team_name, away_team_name,
			home_team_abbr, away_team_abbr, venue_id,
			home_probable_id, away_probable_id, home_probable_name, away_probable_name,
			home_lineup, away_lineup, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW()
		)
		ON CONFLICT (game_pk) DO UPDATE SET
			official_date = EXCLUDED.official_date,
			game_time_utc = EXCLUDED.game_time_utc,
			status = EXCLUDED.status,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_team_name = EXCLUDED.home_team_name,
			away_team_name = EXCLUDED.away_team_name,
			home_team_abbr = EXCLUDED.home_team_abbr,
			away_team_abbr = EXCLUDED.away_team_abbr,
			venue_id = EXCLUDED.venue_id,
			home_probable_id = EXCLUDED.home_probable_id,
			away_probable_id = EXCLUDED.away_probable_id,
			home_probable_name = EXCLUDED.home_probable_name,
			away_probable_name = EXCLUDED.away_probable_name,
			home_lineup = EXCLUDED.home_lineup,
			away_lineup = EXCLUDED.away_lineup,
			updated_at = NOW()`

	written := 0
	for i := range games {
		g := &games[i]
		_, err := s.db.Exec(ctx, query,
			g.GamePk, g.OfficialDate, g.GameTimeUTC, g.Status,
			g.HomeTeamID, g.AwayTeamID, g.HomeTeamName, g.AwayTeamName,
			g.HomeTeamAbbr, g.AwayTeamAbbr, g.VenueID,
			g.HomeProbableID, g.AwayProbableID, g.HomeProbableName, g.AwayProbableName,
			g.HomeLineup, g.AwayLineup,
		)
		if err != nil {
			return written, fmt.Errorf("failed to upsert game %d: %w", g.GamePk, err)
		}
		written++
	}

	return written, nil
}
