package pipeline

import "fmt"

// EffectiveSide returns the side a batter stands from against a pitcher of
// the given throwing hand. A switch hitter takes the plate side opposite the
// pitcher's arm, so "S" vs a righty resolves to "L" and vs a lefty to "R".
func EffectiveSide(bats, pitcherThrows string) (string, error) {
	switch pitcherThrows {
	case "L", "R":
	default:
		return "", fmt.Errorf("invalid pitcher throwing hand %q", pitcherThrows)
	}

	switch bats {
	case "L", "R":
		return bats, nil
	case "S":
		if pitcherThrows == "R" {
			return "L", nil
		}
		return "R", nil
	default:
		return "", fmt.Errorf("invalid batter side %q", bats)
	}
}
