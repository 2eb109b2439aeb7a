package output

import "time"

// BudgetScore computes a 0-100 score for a tick against a frame budget.
// A tick within budget scores 100; every 10% over budget costs 10 points.
func BudgetScore(tick, budget time.Duration) int {
	if budget <= 0 || tick <= budget {
		return 100
	}
	over := float64(tick-budget) / float64(budget)
	score := 100 - int(over*100)
	if score < 0 {
		score = 0
	}
	return score
}

// ScoreLabel returns a human-readable label for a budget score.
func ScoreLabel(score int) string {
	if score >= 80 {
		return "Smooth"
	}
	if score >= 50 {
		return "Stuttering"
	}
	return "Over budget"
}

// FPS returns ticks per second for a tick duration, or 0.
func FPS(tick time.Duration) float64 {
	if tick <= 0 {
		return 0
	}
	return float64(time.Second) / float64(tick)
}
