package gate

import "math"

// ManipulationRisk classifies how easily a source can be gamed.
type ManipulationRisk string

const (
	RiskLow    ManipulationRisk = "low"
	RiskMedium ManipulationRisk = "medium"
	RiskHigh   ManipulationRisk = "high"
)

// DefaultTimelinessHorizonMin is used when the caller supplies no
// positive horizon: a signal is considered fully stale after two hours.
const DefaultTimelinessHorizonMin = 120.0

// ActionabilityScore rewards concrete action types far more heavily than
// marginal clarity: each action type is worth 20 points while clarity is
// capped at 40 points, so clarity alone can never carry a signal.
func ActionabilityScore(actionTypeCount, clarityScore float64) float64 {
	count := math.Floor(math.Max(0, sanitize(actionTypeCount)))
	return clampPct(20*count + clamp(clarityScore, 0, 40))
}

// TimelinessScore decays linearly from 100 at zero delay to 0 once the
// delay reaches the horizon.
func TimelinessScore(delayMinutes, horizonMinutes float64) float64 {
	horizon := sanitize(horizonMinutes)
	if horizon <= 0 {
		horizon = DefaultTimelinessHorizonMin
	}
	delay := math.Max(0, sanitize(delayMinutes))
	return clampPct((horizon - delay) / horizon * 100)
}

// ReliabilityScore starts from the source's base reliability, subtracts
// its failure rate, and shifts ±20 for low/high manipulation risk.
func ReliabilityScore(sourceReliability, failureRatePct float64, risk ManipulationRisk) float64 {
	adjustment := 0.0
	switch risk {
	case RiskLow:
		adjustment = 20
	case RiskHigh:
		adjustment = -20
	}
	return clampPct(sanitize(sourceReliability) - math.Max(0, sanitize(failureRatePct)) + adjustment)
}

// RelevanceScore combines pair keyword match with a flat bonus when the
// signal's timeframe lines up with the requested one.
func RelevanceScore(pairKeywordMatchPct float64, timeframeAligned bool) float64 {
	score := sanitize(pairKeywordMatchPct)
	if timeframeAligned {
		score += 20
	}
	return clampPct(score)
}

// HelpfulnessScore estimates how much a signal has historically improved
// outcomes. Only positive backtest lift and pnl lift contribute; negative
// lift is floored to zero rather than penalized, because penalization
// already happens through the minimum-helpfulness threshold.
func HelpfulnessScore(backtestWinRateLiftPct, feedbackPositivePct, applyRatePct, pnlLiftPct float64) float64 {
	score := math.Max(0, sanitize(backtestWinRateLiftPct))*10 +
		clampPct(feedbackPositivePct)*0.5 +
		clampPct(applyRatePct)*0.1 +
		math.Max(0, sanitize(pnlLiftPct))*4
	return clampPct(score)
}

// sanitize maps non-finite values to 0 so NaN can never leak past a
// calculator boundary.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	v = sanitize(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampPct(v float64) float64 {
	return clamp(v, 0, 100)
}

// round2 rounds to two decimals, the precision every reported score uses.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
