package store

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reston-rays/xwoba-matchups/models"
)

var splitRowColumns = []string{
	"player_id", "season", "role", "vs_handedness", "pa", "ab", "hr",
	"avg", "obp", "slg", "woba", "xwoba", "iso", "babip",
	"barrels", "barrels_per_pa", "hard_hit_rate", "avg_exit_velo", "max_exit_velo", "launch_angle",
	"gb_rate", "fb_rate", "ld_rate", "k_rate", "bb_rate", "whiff_rate", "updated_at",
}

func newMockStore(t *testing.T, chunkSize int) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return mock, New(mock, chunkSize, logger)
}

// fp wraps a float64 so the mock row matches the model's nullable
// *float64 scan destinations.
func fp(v float64) *float64 { return &v }

func splitRow(playerID int64, vsHand string, xwoba float64) []any {
	return []any{
		playerID, 0, "batter", vsHand, 500, 450, 25,
		fp(0.280), fp(0.350), fp(0.480), fp(0.355), fp(xwoba), fp(0.200), fp(0.300),
		35, fp(0.070), fp(0.440), fp(90.5), fp(114.0), fp(13.5),
		fp(0.400), fp(0.380), fp(0.220), fp(0.210), fp(0.090), fp(0.250), time.Now(),
	}
}

// TestChunkIDs tests id-list chunking
func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		size   int
		chunks int
	}{
		{"empty", 0, 100, 0},
		{"under one chunk", 5, 100, 1},
		{"exactly one chunk", 100, 100, 1},
		{"one over", 101, 100, 2},
		{"many chunks", 250, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]int64, tt.count)
			for i := range ids {
				ids[i] = int64(i)
			}

			chunks := chunkIDs(ids, tt.size)
			assert.Len(t, chunks, tt.chunks)

			var total int
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), tt.size)
				total += len(c)
			}
			assert.Equal(t, tt.count, total)
		})
	}
}

// TestGetSeasonSplitsChunked tests that oversized id lists split into
// multiple queries whose results are concatenated
func TestGetSeasonSplitsChunked(t *testing.T) {
	mock, st := newMockStore(t, 2)

	mock.ExpectQuery("FROM player_splits").
		WithArgs([]int64{1, 2}, models.RoleBatter, models.CompositeSeason).
		WillReturnRows(pgxmock.NewRows(splitRowColumns).
			AddRow(splitRow(1, "L", 0.320)...).
			AddRow(splitRow(1, "R", 0.340)...).
			AddRow(splitRow(2, "R", 0.290)...))
	mock.ExpectQuery("FROM player_splits").
		WithArgs([]int64{3}, models.RoleBatter, models.CompositeSeason).
		WillReturnRows(pgxmock.NewRows(splitRowColumns).
			AddRow(splitRow(3, "L", 0.310)...))

	splits, err := st.GetSeasonSplits(context.Background(), []int64{1, 2, 3}, models.RoleBatter, models.CompositeSeason)
	require.NoError(t, err)
	require.Len(t, splits, 4)

	sp := splits[models.SplitKey{PlayerID: 1, VsHand: "R"}]
	require.NotNil(t, sp)
	require.NotNil(t, sp.XWOBA)
	assert.InDelta(t, 0.340, *sp.XWOBA, 1e-9)
	assert.Equal(t, 500, sp.PA)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetSeasonSplitsNullMetrics tests that database nulls survive as nil
// pointers
func TestGetSeasonSplitsNullMetrics(t *testing.T) {
	mock, st := newMockStore(t, 100)

	row := splitRow(7, "L", 0.0)
	row[11] = nil // xwoba
	row[19] = nil // launch_angle

	mock.ExpectQuery("FROM player_splits").
		WithArgs([]int64{7}, models.RolePitcher, models.CompositeSeason).
		WillReturnRows(pgxmock.NewRows(splitRowColumns).AddRow(row...))

	splits, err := st.GetSeasonSplits(context.Background(), []int64{7}, models.RolePitcher, models.CompositeSeason)
	require.NoError(t, err)

	sp := splits[models.SplitKey{PlayerID: 7, VsHand: "L"}]
	require.NotNil(t, sp)
	assert.Nil(t, sp.XWOBA)
	assert.Nil(t, sp.LaunchAngle)
	assert.NotNil(t, sp.HardHitRate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetBios tests the chunked bio read
func TestGetBios(t *testing.T) {
	mock, st := newMockStore(t, 100)

	teamID := 119
	mock.ExpectQuery("FROM players").
		WithArgs([]int64{660271, 543037}).
		WillReturnRows(pgxmock.NewRows([]string{"player_id", "full_name", "bats", "throws", "team_id"}).
			AddRow(int64(660271), "Shohei Ohtani", "L", "R", &teamID).
			AddRow(int64(543037), "Gerrit Cole", "R", "R", nil))

	bios, err := st.GetBios(context.Background(), []int64{660271, 543037})
	require.NoError(t, err)
	require.Len(t, bios, 2)

	assert.Equal(t, "Shohei Ohtani", bios[660271].FullName)
	assert.Equal(t, "L", bios[660271].Bats)
	assert.Equal(t, "R", bios[543037].Throws)
	assert.Nil(t, bios[543037].TeamID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpsertGames tests the per-game schedule upsert
func TestUpsertGames(t *testing.T) {
	mock, st := newMockStore(t, 100)

	games := []models.ScheduledGame{
		{GamePk: 745804, OfficialDate: "2025-05-12", HomeTeamID: 119, AwayTeamID: 147},
		{GamePk: 745805, OfficialDate: "2025-05-12", HomeTeamID: 110, AwayTeamID: 111},
	}

	mock.ExpectExec("INSERT INTO games").
		WithArgs(games[0].GamePk, games[0].OfficialDate, games[0].GameTimeUTC, games[0].Status,
			games[0].HomeTeamID, games[0].AwayTeamID, games[0].HomeTeamName, games[0].AwayTeamName,
			games[0].HomeTeamAbbr, games[0].AwayTeamAbbr, games[0].VenueID,
			games[0].HomeProbableID, games[0].AwayProbableID, games[0].HomeProbableName, games[0].AwayProbableName,
			games[0].HomeLineup, games[0].AwayLineup).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO games").
		WithArgs(games[1].GamePk, games[1].OfficialDate, games[1].GameTimeUTC, games[1].Status,
			games[1].HomeTeamID, games[1].AwayTeamID, games[1].HomeTeamName, games[1].AwayTeamName,
			games[1].HomeTeamAbbr, games[1].AwayTeamAbbr, games[1].VenueID,
			games[1].HomeProbableID, games[1].AwayProbableID, games[1].HomeProbableName, games[1].AwayProbableName,
			games[1].HomeLineup, games[1].AwayLineup).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := st.UpsertGames(context.Background(), games)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const upsertMatchupPattern = `ON CONFLICT \(game_date, game_pk, batter_id, pitcher_id\) DO UPDATE`

func sampleMatchup(batterID int64, spot int) models.DailyMatchup {
	return models.DailyMatchup{
		GameDate:        "2025-05-12",
		GamePk:          745804,
		BatterID:        batterID,
		BatterName:      "Some Batter",
		BatterTeamAbbr:  "LAD",
		LineupSpot:      &spot,
		PitcherID:       543037,
		PitcherName:     "Gerrit Cole",
		PitcherTeamAbbr: "NYY",
		BatterHand:      "L",
		PitcherHand:     "R",
		AvgXWOBA:        0.341,
		AvgLaunchAngle:  12.5,
		AvgBarrelsPerPA: 0.065,
		AvgHardHitRate:  0.420,
		AvgExitVelo:     90.1,
		AvgHRPerPA:      0.0375,
	}
}

func upsertArgs(m *models.DailyMatchup) []any {
	return []any{
		m.GameDate, m.GamePk, m.BatterID, m.BatterName, m.BatterTeamAbbr, m.LineupSpot,
		m.PitcherID, m.PitcherName, m.PitcherTeamAbbr, m.BatterHand, m.PitcherHand,
		m.AvgXWOBA, m.AvgLaunchAngle, m.AvgBarrelsPerPA, m.AvgHardHitRate, m.AvgExitVelo,
		m.AvgHRPerPA, m.AvgKRate, m.AvgBBRate, m.AvgISO, m.AvgWhiffRate,
	}
}

// TestUpsertMatchups tests that the batch write runs every row's keyed
// upsert inside one transaction
func TestUpsertMatchups(t *testing.T) {
	mock, st := newMockStore(t, 100)

	matchups := []models.DailyMatchup{sampleMatchup(660271, 3), sampleMatchup(592450, 4)}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	for i := range matchups {
		batch.ExpectExec(upsertMatchupPattern).
			WithArgs(upsertArgs(&matchups[i])...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()
	mock.ExpectRollback() // deferred rollback after commit is a no-op

	n, err := st.UpsertMatchups(context.Background(), matchups)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpsertMatchupsRollback tests that a mid-batch failure surfaces as a
// whole-batch error and rolls the transaction back
func TestUpsertMatchupsRollback(t *testing.T) {
	mock, st := newMockStore(t, 100)

	matchups := []models.DailyMatchup{sampleMatchup(660271, 3), sampleMatchup(592450, 4)}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec(upsertMatchupPattern).
		WithArgs(upsertArgs(&matchups[0])...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(upsertMatchupPattern).
		WithArgs(upsertArgs(&matchups[1])...).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	n, err := st.UpsertMatchups(context.Background(), matchups)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpsertMatchupsEmpty tests that an empty batch touches nothing
func TestUpsertMatchupsEmpty(t *testing.T) {
	mock, st := newMockStore(t, 100)

	n, err := st.UpsertMatchups(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var matchupRowColumns = []string{
	"game_date", "game_pk", "batter_id", "batter_name", "batter_team_abbr", "lineup_spot",
	"pitcher_id", "pitcher_name", "pitcher_team_abbr", "batter_hand", "pitcher_hand",
	"avg_xwoba", "avg_launch_angle", "avg_barrels_per_pa", "avg_hard_hit_rate", "avg_exit_velo",
	"avg_hr_per_pa", "avg_k_rate", "avg_bb_rate", "avg_iso", "avg_whiff_rate", "updated_at",
}

func matchupRow(batterID int64, xwoba float64) []any {
	spot := 1
	return []any{
		"2025-05-12", int64(745804), batterID, "Some Batter", "LAD", &spot,
		int64(543037), "Gerrit Cole", "NYY", "L", "R",
		xwoba, 12.5, 0.065, 0.420, 90.1,
		0.040, nil, nil, nil, nil, time.Now(),
	}
}

// TestGetTopMatchupsByDate tests the flattened top-N read
func TestGetTopMatchupsByDate(t *testing.T) {
	mock, st := newMockStore(t, 100)

	// The date must come back as text; a raw DATE will not scan into the
	// model's string field.
	mock.ExpectQuery("SELECT game_date::text").
		WithArgs("2025-05-12", 2).
		WillReturnRows(pgxmock.NewRows(matchupRowColumns).
			AddRow(matchupRow(660271, 0.405)...).
			AddRow(matchupRow(592450, 0.388)...))

	matchups, err := st.GetTopMatchupsByDate(context.Background(), "2025-05-12", 2)
	require.NoError(t, err)
	require.Len(t, matchups, 2)

	assert.Equal(t, int64(660271), matchups[0].BatterID)
	assert.InDelta(t, 0.405, matchups[0].AvgXWOBA, 1e-9)
	assert.Nil(t, matchups[0].AvgKRate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetMatchupsByDateGrouping tests that rows group under their game and
// split into home and away collections, display-sorted
func TestGetMatchupsByDateGrouping(t *testing.T) {
	mock, st := newMockStore(t, 100)

	gameTime := time.Date(2025, 5, 12, 23, 10, 0, 0, time.UTC)
	venueID := 22
	lat, lon := 34.07, -118.24
	homeName, awayName := "Home Ace", "Away Ace"
	homeHand, awayHand := "R", "L"
	venueName, venueCity, roof := "Dodger Stadium", "Los Angeles", "open"

	mock.ExpectQuery("FROM games").
		WithArgs("2025-05-12").
		WillReturnRows(pgxmock.NewRows([]string{
			"game_pk", "game_time_utc", "status",
			"home_team_abbr", "away_team_abbr",
			"home_probable_name", "away_probable_name",
			"home_probable_hand", "away_probable_hand",
			"venue_id", "name", "city", "roof_type", "latitude", "longitude",
		}).AddRow(
			int64(745804), gameTime, "Scheduled",
			"LAD", "NYY",
			&homeName, &awayName,
			&homeHand, &awayHand,
			&venueID, &venueName, &venueCity, &roof, &lat, &lon,
		))

	spot2, spot5 := 2, 5
	mock.ExpectQuery("SELECT game_date::text").
		WithArgs("2025-05-12").
		WillReturnRows(pgxmock.NewRows(matchupRowColumns).
			AddRow("2025-05-12", int64(745804), int64(1), "LAD Five", "LAD", &spot5,
				int64(200), "Away Ace", "NYY", "L", "L",
				0.330, 12.0, 0.06, 0.40, 89.0, 0.03, nil, nil, nil, nil, time.Now()).
			AddRow("2025-05-12", int64(745804), int64(2), "LAD Two", "LAD", &spot2,
				int64(200), "Away Ace", "NYY", "R", "L",
				0.350, 12.0, 0.06, 0.40, 89.0, 0.03, nil, nil, nil, nil, time.Now()).
			AddRow("2025-05-12", int64(745804), int64(3), "NYY Bench", "NYY", nil,
				int64(100), "Home Ace", "LAD", "L", "R",
				0.360, 12.0, 0.06, 0.40, 89.0, 0.03, nil, nil, nil, nil, time.Now()))

	games, err := st.GetMatchupsByDate(context.Background(), "2025-05-12")
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, int64(745804), g.GamePk)
	require.NotNil(t, g.Venue)
	assert.Equal(t, "Dodger Stadium", g.Venue.Name)
	require.NotNil(t, g.HomeProbableHand)
	assert.Equal(t, "R", *g.HomeProbableHand)

	require.Len(t, g.HomeMatchups, 2)
	require.Len(t, g.AwayMatchups, 1)
	// Home side sorted by lineup spot ascending.
	assert.Equal(t, int64(2), g.HomeMatchups[0].BatterID)
	assert.Equal(t, int64(1), g.HomeMatchups[1].BatterID)
	assert.Equal(t, int64(3), g.AwayMatchups[0].BatterID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
