package models

import "time"

// ScheduledGame is one game on the daily schedule, mapped from the hydrated
// MLB Stats API schedule response. Optional upstream fields (probable
// pitchers, published lineups, venue) stay nullable rather than defaulted.
type ScheduledGame struct {
	GamePk       int64     `json:"game_pk" db:"game_pk"`
	OfficialDate string    `json:"official_date" db:"official_date"`
	GameTimeUTC  time.Time `json:"game_time_utc" db:"game_time_utc"`
	Status       string    `json:"status" db:"status"`

	HomeTeamID   int    `json:"home_team_id" db:"home_team_id"`
	AwayTeamID   int    `json:"away_team_id" db:"away_team_id"`
	HomeTeamName string `json:"home_team_name" db:"home_team_name"`
	AwayTeamName string `json:"away_team_name" db:"away_team_name"`
	HomeTeamAbbr string `json:"home_team_abbr" db:"home_team_abbr"`
	AwayTeamAbbr string `json:"away_team_abbr" db:"away_team_abbr"`

	VenueID *int `json:"venue_id,omitempty" db:"venue_id"`

	HomeProbableID   *int64  `json:"home_probable_id,omitempty" db:"home_probable_id"`
	AwayProbableID   *int64  `json:"away_probable_id,omitempty" db:"away_probable_id"`
	HomeProbableName *string `json:"home_probable_name,omitempty" db:"home_probable_name"`
	AwayProbableName *string `json:"away_probable_name,omitempty" db:"away_probable_name"`

	// Published batting orders, in order. Empty means no lineup yet.
	HomeLineup []int64 `json:"home_lineup,omitempty" db:"home_lineup"`
	AwayLineup []int64 `json:"away_lineup,omitempty" db:"away_lineup"`
}

// Venue is reference data for a ballpark, populated externally.
type Venue struct {
	VenueID   int      `json:"venue_id" db:"venue_id"`
	Name      string   `json:"name" db:"name"`
	City      string   `json:"city" db:"city"`
	RoofType  string   `json:"roof_type" db:"roof_type"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
}

// RosterEntry is one player on a team's active roster.
type RosterEntry struct {
	PlayerID int64  `json:"player_id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
}

// PlayerBio is the biographical slice of the players reference table needed
// to resolve handedness and display names.
type PlayerBio struct {
	PlayerID int64  `json:"player_id" db:"player_id"`
	FullName string `json:"full_name" db:"full_name"`
	Bats     string `json:"bats" db:"bats"`     // L, R or S
	Throws   string `json:"throws" db:"throws"` // L or R
	TeamID   *int   `json:"team_id,omitempty" db:"team_id"`
}
