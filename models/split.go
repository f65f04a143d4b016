package models

import "time"

// Player roles for split rows.
const (
	RoleBatter  = "batter"
	RolePitcher = "pitcher"
)

// CompositeSeason is the sentinel season value for the recency-and-volume
// weighted multi-season composite.
const CompositeSeason = 0

// SplitKey identifies a loaded split row by player and opponent handedness.
type SplitKey struct {
	PlayerID int64
	VsHand   string
}

// PlayerSplit is one row of aggregated performance for a player against a
// given handedness of opponent. Rate and batted-ball metrics are pointers
// because the upstream ingestion leaves them null when the underlying sample
// is empty; the averaging engine treats any null as disqualifying.
type PlayerSplit struct {
	PlayerID int64  `json:"player_id" db:"player_id"`
	Season   int    `json:"season" db:"season"`
	Role     string `json:"role" db:"role"`
	VsHand   string `json:"vs_handedness" db:"vs_handedness"`

	PA int `json:"pa" db:"pa"`
	AB int `json:"ab" db:"ab"`
	HR int `json:"hr" db:"hr"`

	AVG   *float64 `json:"avg,omitempty" db:"avg"`
	OBP   *float64 `json:"obp,omitempty" db:"obp"`
	SLG   *float64 `json:"slg,omitempty" db:"slg"`
	WOBA  *float64 `json:"woba,omitempty" db:"woba"`
	XWOBA *float64 `json:"xwoba,omitempty" db:"xwoba"`
	ISO   *float64 `json:"iso,omitempty" db:"iso"`
	BABIP *float64 `json:"babip,omitempty" db:"babip"`

	Barrels      int      `json:"barrels" db:"barrels"`
	BarrelsPerPA *float64 `json:"barrels_per_pa,omitempty" db:"barrels_per_pa"`
	HardHitRate  *float64 `json:"hard_hit_rate,omitempty" db:"hard_hit_rate"`
	AvgExitVelo  *float64 `json:"avg_exit_velo,omitempty" db:"avg_exit_velo"`
	MaxExitVelo  *float64 `json:"max_exit_velo,omitempty" db:"max_exit_velo"`
	LaunchAngle  *float64 `json:"launch_angle,omitempty" db:"launch_angle"`

	GroundBallRate *float64 `json:"gb_rate,omitempty" db:"gb_rate"`
	FlyBallRate    *float64 `json:"fb_rate,omitempty" db:"fb_rate"`
	LineDriveRate  *float64 `json:"ld_rate,omitempty" db:"ld_rate"`

	KRate     *float64 `json:"k_rate,omitempty" db:"k_rate"`
	BBRate    *float64 `json:"bb_rate,omitempty" db:"bb_rate"`
	WhiffRate *float64 `json:"whiff_rate,omitempty" db:"whiff_rate"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
