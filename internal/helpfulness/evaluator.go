// Package helpfulness turns backtest before/after comparisons and user
// feedback into the quality gate's helpfulness sub-score, and reports
// whether a policy change met its target impact.
package helpfulness

import (
	"math"

	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
)

// BacktestSummary compares a baseline run against a run with the policy
// change under evaluation applied.
type BacktestSummary struct {
	BaselineWinRatePct     float64 `json:"baseline_win_rate_pct"`
	PolicyWinRatePct       float64 `json:"policy_win_rate_pct"`
	BaselineSharpe         float64 `json:"baseline_sharpe"`
	PolicySharpe           float64 `json:"policy_sharpe"`
	BaselineMaxDrawdownPct float64 `json:"baseline_max_drawdown_pct"`
	PolicyMaxDrawdownPct   float64 `json:"policy_max_drawdown_pct"`
	SampleSize             int     `json:"sample_size"`
}

// BacktestImpact is the computed lift of a policy change, with reasons
// for every target the change fell short of.
type BacktestImpact struct {
	WinRateLiftPct          float64  `json:"win_rate_lift_pct"`
	SharpeLift              float64  `json:"sharpe_lift"`
	MaxDrawdownReductionPct float64  `json:"max_drawdown_reduction_pct"`
	MeetsTarget             bool     `json:"meets_target"`
	Reasons                 []string `json:"reasons"`
}

// Feedback aggregates user votes on the signals this policy surfaced.
type Feedback struct {
	PositivePct  float64 `json:"positive_pct"`
	ApplyRatePct float64 `json:"apply_rate_pct"`
}

// Result bundles the derived helpfulness score with its inputs.
type Result struct {
	Score       float64        `json:"score"`
	Impact      BacktestImpact `json:"impact"`
	Feedback    Feedback       `json:"feedback"`
	MeetsTarget bool           `json:"meets_target"`
}

// Evaluator computes helpfulness against the live backtest targets.
type Evaluator struct {
	policy *policy.Store
}

// NewEvaluator creates an evaluator bound to a policy store.
func NewEvaluator(store *policy.Store) *Evaluator {
	return &Evaluator{policy: store}
}

// EvaluateBacktestImpact computes win-rate, Sharpe, and drawdown lifts
// and checks each against its configured target. All values are rounded
// to two decimals.
func (e *Evaluator) EvaluateBacktestImpact(summary BacktestSummary) BacktestImpact {
	targets := e.policy.Get().Backtest

	impact := BacktestImpact{
		WinRateLiftPct:          round2(summary.PolicyWinRatePct - summary.BaselineWinRatePct),
		SharpeLift:              round2(summary.PolicySharpe - summary.BaselineSharpe),
		MaxDrawdownReductionPct: round2(summary.BaselineMaxDrawdownPct - summary.PolicyMaxDrawdownPct),
		Reasons:                 []string{},
	}

	if impact.WinRateLiftPct < targets.MinWinRateLiftPct {
		impact.Reasons = append(impact.Reasons, "win_rate_lift_below_target")
	}
	if impact.SharpeLift < targets.MinSharpeLift {
		impact.Reasons = append(impact.Reasons, "sharpe_lift_below_target")
	}
	if impact.MaxDrawdownReductionPct < targets.MinDrawdownReductionPct {
		impact.Reasons = append(impact.Reasons, "drawdown_reduction_below_target")
	}
	if summary.SampleSize < targets.MinSampleSize {
		impact.Reasons = append(impact.Reasons, "sample_size_low")
	}
	impact.MeetsTarget = len(impact.Reasons) == 0

	return impact
}

// EvaluateHelpfulness derives a helpfulness score from backtest impact
// and user feedback. Drawdown reduction stands in for pnl lift,
// discounted by 3 since drawdown avoided is not profit earned.
func (e *Evaluator) EvaluateHelpfulness(summary BacktestSummary, feedback Feedback) Result {
	impact := e.EvaluateBacktestImpact(summary)
	score := gate.HelpfulnessScore(
		impact.WinRateLiftPct,
		feedback.PositivePct,
		feedback.ApplyRatePct,
		impact.MaxDrawdownReductionPct/3,
	)
	return Result{
		Score:       score,
		Impact:      impact,
		Feedback:    feedback,
		MeetsTarget: impact.MeetsTarget,
	}
}

// EstimateNpsPositiveRate converts raw vote counts into a positive-vote
// percentage, returning 0 when the total is not a positive finite number.
func (e *Evaluator) EstimateNpsPositiveRate(positiveVotes, totalVotes float64) float64 {
	if totalVotes <= 0 || math.IsNaN(totalVotes) || math.IsInf(totalVotes, 0) {
		return 0
	}
	return clampPct(math.Max(0, positiveVotes) / totalVotes * 100)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
