package store

import (
	"context"
	"fmt"

	"github.com/reston-rays/xwoba-matchups/models"
)

// GetBios loads biographical reference rows (name, batting side, throwing
// hand) for the given players, keyed by player id. Ids absent from the
// players table are simply missing from the result; callers decide what a
// gap means. Queries are chunked like all batch reads.
func (s *Store) GetBios(ctx context.Context, playerIDs []int64) (map[int64]models.PlayerBio, error) {
	bios := make(map[int64]models.PlayerBio, len(playerIDs))

	query := `
		SELECT player_id, full_name, bats, throws, team_id
		FROM players
		WHERE player_id = ANY($1)`

	for _, chunk := range chunkIDs(playerIDs, s.chunkSize) {
		rows, err := s.db.Query(ctx, query, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to query player bios: %w", err)
		}

		for rows.Next() {
			var bio models.PlayerBio
			if err := rows.Scan(&bio.PlayerID, &bio.FullName, &bio.Bats, &bio.Throws, &bio.TeamID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan player bio: %w", err)
			}
			bios[bio.PlayerID] = bio
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return nil, fmt.Errorf("failed reading player bios: %w", rowsErr)
		}
	}

	return bios, nil
}
