package models

import (
	"sort"
	"time"
)

// MatchupPair is the in-memory pairing of one batter against the opposing
// probable pitcher for a game. Batter names are backfilled from biographical
// data after pair generation; lineup spot is nil when the batter came from
// the active-roster fallback rather than a published order.
type MatchupPair struct {
	GamePk   int64  `json:"game_pk"`
	GameDate string `json:"game_date"`

	BatterID       int64  `json:"batter_id"`
	BatterName     string `json:"batter_name"`
	BatterTeamAbbr string `json:"batter_team_abbr"`
	LineupSpot     *int   `json:"lineup_spot,omitempty"`

	PitcherID       int64  `json:"pitcher_id"`
	PitcherName     string `json:"pitcher_name"`
	PitcherTeamAbbr string `json:"pitcher_team_abbr"`
}

// DailyMatchup is the persisted batter-vs-pitcher computation for one date.
// Primary key: (game_date, game_pk, batter_id, pitcher_id) — the game_pk
// scoping disambiguates doubleheaders.
type DailyMatchup struct {
	GameDate string `json:"game_date" db:"game_date"`
	GamePk   int64  `json:"game_pk" db:"game_pk"`

	BatterID       int64  `json:"batter_id" db:"batter_id"`
	BatterName     string `json:"batter_name" db:"batter_name"`
	BatterTeamAbbr string `json:"batter_team_abbr" db:"batter_team_abbr"`
	LineupSpot     *int   `json:"lineup_spot,omitempty" db:"lineup_spot"`

	PitcherID       int64  `json:"pitcher_id" db:"pitcher_id"`
	PitcherName     string `json:"pitcher_name" db:"pitcher_name"`
	PitcherTeamAbbr string `json:"pitcher_team_abbr" db:"pitcher_team_abbr"`

	// BatterHand is the side the batter actually stands from against this
	// pitcher (switch hitters resolved); PitcherHand is the throwing hand.
	BatterHand  string `json:"batter_hand" db:"batter_hand"`
	PitcherHand string `json:"pitcher_hand" db:"pitcher_hand"`

	AvgXWOBA        float64 `json:"avg_xwoba" db:"avg_xwoba"`
	AvgLaunchAngle  float64 `json:"avg_launch_angle" db:"avg_launch_angle"`
	AvgBarrelsPerPA float64 `json:"avg_barrels_per_pa" db:"avg_barrels_per_pa"`
	AvgHardHitRate  float64 `json:"avg_hard_hit_rate" db:"avg_hard_hit_rate"`
	AvgExitVelo     float64 `json:"avg_exit_velo" db:"avg_exit_velo"`
	AvgHRPerPA      float64 `json:"avg_hr_per_pa" db:"avg_hr_per_pa"`

	AvgKRate     *float64 `json:"avg_k_rate,omitempty" db:"avg_k_rate"`
	AvgBBRate    *float64 `json:"avg_bb_rate,omitempty" db:"avg_bb_rate"`
	AvgISO       *float64 `json:"avg_iso,omitempty" db:"avg_iso"`
	AvgWhiffRate *float64 `json:"avg_whiff_rate,omitempty" db:"avg_whiff_rate"`

	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// GameMatchups is the per-game read view served to the dashboard: game
// context plus the two matchup collections, each already display-sorted.
type GameMatchups struct {
	GamePk      int64     `json:"game_pk"`
	GameTimeUTC time.Time `json:"game_time_utc"`
	Status      string    `json:"status"`

	HomeTeamAbbr string `json:"home_team_abbr"`
	AwayTeamAbbr string `json:"away_team_abbr"`

	Venue *Venue `json:"venue,omitempty"`

	HomeProbableName *string `json:"home_probable_name,omitempty"`
	HomeProbableHand *string `json:"home_probable_hand,omitempty"`
	AwayProbableName *string `json:"away_probable_name,omitempty"`
	AwayProbableHand *string `json:"away_probable_hand,omitempty"`

	// AwayMatchups are away batters vs the home probable pitcher;
	// HomeMatchups are home batters vs the away probable pitcher.
	AwayMatchups []DailyMatchup `json:"away_matchups"`
	HomeMatchups []DailyMatchup `json:"home_matchups"`
}

// SortMatchupsForDisplay orders matchups for the dashboard: lineup spot
// ascending with unpositioned entries last, ties broken by averaged xwOBA
// descending.
func SortMatchupsForDisplay(ms []DailyMatchup) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].LineupSpot, ms[j].LineupSpot
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return ms[i].AvgXWOBA > ms[j].AvgXWOBA
	})
}
