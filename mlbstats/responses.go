package mlbstats

import (
	"time"

	"github.com/reston-rays/xwoba-matchups/models"
)

// Wire shapes for the subset of the MLB Stats API this service reads. The
// upstream feed is optional-heavy, so everything that can be absent is a
// pointer or defaults to its zero value and the mapping below decides what
// survives into the typed model.

type scheduleResponse struct {
	Dates []struct {
		Date  string         `json:"date"`
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type scheduleGame struct {
	GamePk       int64  `json:"gamePk"`
	OfficialDate string `json:"officialDate"`
	GameDate     string `json:"gameDate"`
	Status       struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Venue struct {
		ID int `json:"id"`
	} `json:"venue"`
	Teams struct {
		Home scheduleSide `json:"home"`
		Away scheduleSide `json:"away"`
	} `json:"teams"`
	Lineups *struct {
		HomePlayers []lineupPlayer `json:"homePlayers"`
		AwayPlayers []lineupPlayer `json:"awayPlayers"`
	} `json:"lineups"`
}

type scheduleSide struct {
	Team struct {
		ID           int    `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	ProbablePitcher *struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	} `json:"probablePitcher"`
}

type lineupPlayer struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

type boxscoreResponse struct {
	Teams struct {
		Home struct {
			BattingOrder []int64 `json:"battingOrder"`
		} `json:"home"`
		Away struct {
			BattingOrder []int64 `json:"battingOrder"`
		} `json:"away"`
	} `json:"teams"`
}

type rosterResponse struct {
	Roster []struct {
		Person struct {
			ID       int64  `json:"id"`
			FullName string `json:"fullName"`
		} `json:"person"`
		Position struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"position"`
	} `json:"roster"`
}

// mapScheduledGame converts one upstream schedule entry into the typed model,
// keeping absent probable pitchers and lineups nil rather than defaulted.
func mapScheduledGame(g *scheduleGame) models.ScheduledGame {
	sg := models.ScheduledGame{
		GamePk:       g.GamePk,
		OfficialDate: g.OfficialDate,
		Status:       g.Status.DetailedState,
		HomeTeamID:   g.Teams.Home.Team.ID,
		AwayTeamID:   g.Teams.Away.Team.ID,
		HomeTeamName: g.Teams.Home.Team.Name,
		AwayTeamName: g.Teams.Away.Team.Name,
		HomeTeamAbbr: g.Teams.Home.Team.Abbreviation,
		AwayTeamAbbr: g.Teams.Away.Team.Abbreviation,
	}

	if t, err := time.Parse(time.RFC3339, g.GameDate); err == nil {
		sg.GameTimeUTC = t.UTC()
	}

	if g.Venue.ID != 0 {
		venueID := g.Venue.ID
		sg.VenueID = &venueID
	}

	if p := g.Teams.Home.ProbablePitcher; p != nil && p.ID != 0 {
		id, name := p.ID, p.FullName
		sg.HomeProbableID = &id
		sg.HomeProbableName = &name
	}
	if p := g.Teams.Away.ProbablePitcher; p != nil && p.ID != 0 {
		id, name := p.ID, p.FullName
		sg.AwayProbableID = &id
		sg.AwayProbableName = &name
	}

	if g.Lineups != nil {
		for _, lp := range g.Lineups.HomePlayers {
			sg.HomeLineup = append(sg.HomeLineup, lp.ID)
		}
		for _, lp := range g.Lineups.AwayPlayers {
			sg.AwayLineup = append(sg.AwayLineup, lp.ID)
		}
	}

	return sg
}
