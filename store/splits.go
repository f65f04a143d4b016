package store

import (
	"context"
	"fmt"

	"github.com/reston-rays/xwoba-matchups/models"
)

const splitColumns = `
	player_id, season, role, vs_handedness, pa, ab, hr,
	avg, obp, slg, woba, xwoba, iso, babip,
	barrels, barrels_per_pa, hard_hit_rate, avg_exit_velo, max_exit_velo, launch_angle,
	gb_rate, fb_rate, ld_rate, k_rate, bb_rate, whiff_rate, updated_at`

// GetSeasonSplits loads split rows for the given players, role and season,
// for both opponent handedness values, keyed by (player, vs_handedness).
// The id list is chunked so no single query exceeds the store's cardinality
// limit; all chunk results are concatenated.
func (s *Store) GetSeasonSplits(ctx context.Context, playerIDs []int64, role string, season int) (map[models.SplitKey]*models.PlayerSplit, error) {
	splits := make(map[models.SplitKey]*models.PlayerSplit)

	query := `
		SELECT` + splitColumns + `
		FROM player_splits
		WHERE player_id = ANY($1) AND role = $2 AND season = $3`

	for _, chunk := range chunkIDs(playerIDs, s.chunkSize) {
		rows, err := s.db.Query(ctx, query, chunk, role, season)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s splits: %w", role, err)
		}

		for rows.Next() {
			var sp models.PlayerSplit
			err := rows.Scan(
				&sp.PlayerID, &sp.Season, &sp.Role, &sp.VsHand, &sp.PA, &sp.AB, &sp.HR,
				&sp.AVG, &sp.OBP, &sp.SLG, &sp.WOBA, &sp.XWOBA, &sp.ISO, &sp.BABIP,
				&sp.Barrels, &sp.BarrelsPerPA, &sp.HardHitRate, &sp.AvgExitVelo, &sp.MaxExitVelo, &sp.LaunchAngle,
				&sp.GroundBallRate, &sp.FlyBallRate, &sp.LineDriveRate, &sp.KRate, &sp.BBRate, &sp.WhiffRate,
				&sp.UpdatedAt,
			)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan split row: %w", err)
			}
			splits[models.SplitKey{PlayerID: sp.PlayerID, VsHand: sp.VsHand}] = &sp
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return nil, fmt.Errorf("failed reading split rows: %w", rowsErr)
		}
	}

	return splits, nil
}
