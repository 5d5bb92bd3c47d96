// Package rating implements the ELO-style rating updates applied when a game
// concludes, and the named tiers derived from a rating.
package rating

import "math"

const (
	// KFactor bounds the rating movement of a single decisive game
	KFactor = 32

	// Floor is the lowest rating a loss can produce
	Floor = 100

	// drawPull is the fraction of the gap to the pair's average closed by a draw
	drawPull = 0.1
)

// Expected returns the probability that a player rated r beats one rated opponent
func Expected(r, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-r)/400))
}

// WinLoss returns the new ratings after winner beats loser
func WinLoss(winner, loser int) (newWinner, newLoser int) {
	expectedWinner := Expected(winner, loser)
	expectedLoser := 1 - expectedWinner

	newWinner = int(math.Round(float64(winner) + KFactor*(1-expectedWinner)))
	newLoser = int(math.Round(float64(loser) + KFactor*(0-expectedLoser)))
	return newWinner, max(Floor, newLoser)
}

// Draw moves both ratings a tenth of the way toward their average
func Draw(a, b int) (newA, newB int) {
	avg := float64(a+b) / 2
	newA = int(math.Round(float64(a) + (avg-float64(a))*drawPull))
	newB = int(math.Round(float64(b) + (avg-float64(b))*drawPull))
	return newA, newB
}

// Tier is a named rating band
type Tier struct {
	Name string
	Min  int
}

// tiers is ordered from highest to lowest
var tiers = []Tier{
	{Name: "Legend", Min: 2000},
	{Name: "Grandmaster", Min: 1800},
	{Name: "Master", Min: 1600},
	{Name: "Diamond", Min: 1400},
	{Name: "Platinum", Min: 1200},
	{Name: "Gold", Min: 1000},
	{Name: "Silver", Min: 800},
	{Name: "Bronze", Min: 0},
}

// TierFor returns the band containing rating
func TierFor(rating int) Tier {
	for _, t := range tiers {
		if rating >= t.Min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
