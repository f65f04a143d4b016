package pipeline

import (
	"fmt"

	"github.com/reston-rays/xwoba-matchups/models"
)

// BuildMatchup averages a pitcher split against a batter split into one
// persisted matchup row. Both split rows must carry every core metric:
// any nil disqualifies the pair with an error naming the missing field.
// HR rate is recomputed fresh from raw counts rather than averaged from
// stored rates, so both sides must also carry a positive PA.
func BuildMatchup(pair models.MatchupPair, batterHand, pitcherHand string,
	pitcherSplit, batterSplit *models.PlayerSplit) (models.DailyMatchup, error) {

	var m models.DailyMatchup

	type coreMetric struct {
		name    string
		pitcher *float64
		batter  *float64
		dest    *float64
	}
	core := []coreMetric{
		{"xwoba", pitcherSplit.XWOBA, batterSplit.XWOBA, &m.AvgXWOBA},
		{"launch_angle", pitcherSplit.LaunchAngle, batterSplit.LaunchAngle, &m.AvgLaunchAngle},
		{"barrels_per_pa", pitcherSplit.BarrelsPerPA, batterSplit.BarrelsPerPA, &m.AvgBarrelsPerPA},
		{"hard_hit_rate", pitcherSplit.HardHitRate, batterSplit.HardHitRate, &m.AvgHardHitRate},
		{"avg_exit_velo", pitcherSplit.AvgExitVelo, batterSplit.AvgExitVelo, &m.AvgExitVelo},
	}
	for _, c := range core {
		if c.pitcher == nil {
			return m, fmt.Errorf("pitcher %d split missing %s", pair.PitcherID, c.name)
		}
		if c.batter == nil {
			return m, fmt.Errorf("batter %d split missing %s", pair.BatterID, c.name)
		}
		*c.dest = (*c.pitcher + *c.batter) / 2
	}

	if pitcherSplit.PA <= 0 {
		return m, fmt.Errorf("pitcher %d split has no plate appearances", pair.PitcherID)
	}
	if batterSplit.PA <= 0 {
		return m, fmt.Errorf("batter %d split has no plate appearances", pair.BatterID)
	}
	pitcherHR := float64(pitcherSplit.HR) / float64(pitcherSplit.PA)
	batterHR := float64(batterSplit.HR) / float64(batterSplit.PA)
	m.AvgHRPerPA = (pitcherHR + batterHR) / 2

	m.AvgKRate = avgOptional(pitcherSplit.KRate, batterSplit.KRate)
	m.AvgBBRate = avgOptional(pitcherSplit.BBRate, batterSplit.BBRate)
	m.AvgISO = avgOptional(pitcherSplit.ISO, batterSplit.ISO)
	m.AvgWhiffRate = avgOptional(pitcherSplit.WhiffRate, batterSplit.WhiffRate)

	m.GameDate = pair.GameDate
	m.GamePk = pair.GamePk
	m.BatterID = pair.BatterID
	m.BatterName = pair.BatterName
	m.BatterTeamAbbr = pair.BatterTeamAbbr
	m.LineupSpot = pair.LineupSpot
	m.PitcherID = pair.PitcherID
	m.PitcherName = pair.PitcherName
	m.PitcherTeamAbbr = pair.PitcherTeamAbbr
	m.BatterHand = batterHand
	m.PitcherHand = pitcherHand

	return m, nil
}

// avgOptional averages two optional rates, or returns nil when either side
// lacks the value. Unlike the core metrics a missing secondary rate never
// disqualifies the pair.
func avgOptional(p, b *float64) *float64 {
	if p == nil || b == nil {
		return nil
	}
	v := (*p + *b) / 2
	return &v
}
