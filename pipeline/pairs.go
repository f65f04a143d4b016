package pipeline

import "github.com/reston-rays/xwoba-matchups/models"

// GeneratePairs crosses each resolved game's batters with the opposing
// probable pitcher: home batters vs the away probable, away batters vs the
// home probable. A side with no probable pitcher yields no pairs. Lineup
// spots are 1-indexed and set only when the batter list came from a
// published order. Pure and deterministic for a fixed input.
func GeneratePairs(games []ResolvedGame) []models.MatchupPair {
	var pairs []models.MatchupPair
	for i := range games {
		g := &games[i]

		if g.Game.AwayProbableID != nil {
			pairs = append(pairs, sidePairs(g.Game, g.HomeBatters, g.HomeFromLineup,
				g.Game.HomeTeamAbbr, *g.Game.AwayProbableID, g.Game.AwayProbableName, g.Game.AwayTeamAbbr)...)
		}
		if g.Game.HomeProbableID != nil {
			pairs = append(pairs, sidePairs(g.Game, g.AwayBatters, g.AwayFromLineup,
				g.Game.AwayTeamAbbr, *g.Game.HomeProbableID, g.Game.HomeProbableName, g.Game.HomeTeamAbbr)...)
		}
	}
	return pairs
}

func sidePairs(game models.ScheduledGame, batters []int64, fromLineup bool,
	batterTeamAbbr string, pitcherID int64, pitcherName *string, pitcherTeamAbbr string) []models.MatchupPair {

	name := ""
	if pitcherName != nil {
		name = *pitcherName
	}

	pairs := make([]models.MatchupPair, 0, len(batters))
	for i, batterID := range batters {
		pair := models.MatchupPair{
			GamePk:          game.GamePk,
			GameDate:        game.OfficialDate,
			BatterID:        batterID,
			BatterTeamAbbr:  batterTeamAbbr,
			PitcherID:       pitcherID,
			PitcherName:     name,
			PitcherTeamAbbr: pitcherTeamAbbr,
		}
		if fromLineup {
			spot := i + 1
			pair.LineupSpot = &spot
		}
		pairs = append(pairs, pair)
	}
	return pairs
}
