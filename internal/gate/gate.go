// Package gate grades incoming market evidence for actionability,
// timeliness, reliability, relevance, and helpfulness, and decides
// whether the evidence is shown in full, shown as low-impact, or hidden.
package gate

import (
	"github.com/rs/zerolog/log"

	"github.com/eunjuhyun88/maxidoge-intel/internal/audit"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
	"github.com/eunjuhyun88/maxidoge-intel/internal/telemetry"
)

// Visibility is the tier a scored evidence item is rendered at.
type Visibility string

const (
	VisibilityFull      Visibility = "full"
	VisibilityLowImpact Visibility = "low_impact"
	VisibilityHidden    Visibility = "hidden"
)

// Scores holds the five quality sub-scores, each a percentage in [0,100].
type Scores struct {
	Actionability float64 `json:"actionability"`
	Timeliness    float64 `json:"timeliness"`
	Reliability   float64 `json:"reliability"`
	Relevance     float64 `json:"relevance"`
	Helpfulness   float64 `json:"helpfulness"`
}

// ScoreInput is the caller-facing evaluation input. Helpfulness is
// optional: callers that do not yet compute it leave it nil and the gate
// substitutes the policy's minimum-helpfulness threshold, a deliberately
// lenient default so such callers are not hard-hidden unfairly.
type ScoreInput struct {
	Actionability float64  `json:"actionability"`
	Timeliness    float64  `json:"timeliness"`
	Reliability   float64  `json:"reliability"`
	Relevance     float64  `json:"relevance"`
	Helpfulness   *float64 `json:"helpfulness,omitempty"`
}

// FeatureInput feeds the five calculators for callers that have raw
// features rather than precomputed sub-scores.
type FeatureInput struct {
	ActionTypeCount float64 `json:"action_type_count"`
	ClarityScore    float64 `json:"clarity_score"`

	DelayMinutes   float64 `json:"delay_minutes"`
	HorizonMinutes float64 `json:"horizon_minutes"` // <=0 means the 120-minute default

	SourceReliability float64          `json:"source_reliability"`
	FailureRatePct    float64          `json:"failure_rate_pct"`
	ManipulationRisk  ManipulationRisk `json:"manipulation_risk"`

	PairKeywordMatchPct float64 `json:"pair_keyword_match_pct"`
	TimeframeAligned    bool    `json:"timeframe_aligned"`

	BacktestWinRateLiftPct float64 `json:"backtest_win_rate_lift_pct"`
	FeedbackPositivePct    float64 `json:"feedback_positive_pct"`
	ApplyRatePct           float64 `json:"apply_rate_pct"`
	PnlLiftPct             float64 `json:"pnl_lift_pct"`
}

// Result is one gate evaluation. It is immutable after construction.
type Result struct {
	Scores        Scores     `json:"scores"`
	WeightedScore float64    `json:"weighted_score"`
	Pass          bool       `json:"pass"`
	Visibility    Visibility `json:"visibility"`
	Blockers      []string   `json:"blockers"`
}

// QualityGate scores evidence against the live policy thresholds. Any
// non-clean-pass evaluation is recorded to the audit log.
type QualityGate struct {
	policy   *policy.Store
	auditLog *audit.Log
	metrics  *telemetry.Metrics
}

// NewQualityGate creates a gate. The audit log and metrics may be nil
// when the caller does not need them.
func NewQualityGate(store *policy.Store, auditLog *audit.Log, metrics *telemetry.Metrics) *QualityGate {
	return &QualityGate{policy: store, auditLog: auditLog, metrics: metrics}
}

// Evaluate grades one evidence item and decides its visibility tier.
//
// Precedence: the hard helpfulness floor hides the item no matter how
// strong the other sub-scores are; otherwise a blocker-free item passes
// in full if its weighted score clears the pass threshold, drops to
// low-impact if it does not, and any minimum-threshold blocker hides it.
func (g *QualityGate) Evaluate(input ScoreInput, source string) Result {
	p := g.policy.Get()
	qg := p.QualityGate

	helpfulness := qg.MinHelpfulness
	if input.Helpfulness != nil {
		helpfulness = *input.Helpfulness
	}

	scores := Scores{
		Actionability: clampPct(input.Actionability),
		Timeliness:    clampPct(input.Timeliness),
		Reliability:   clampPct(input.Reliability),
		Relevance:     clampPct(input.Relevance),
		Helpfulness:   clampPct(helpfulness),
	}

	w := qg.Weights
	weighted := round2(scores.Actionability*w.Actionability +
		scores.Timeliness*w.Timeliness +
		scores.Reliability*w.Reliability +
		scores.Relevance*w.Relevance +
		scores.Helpfulness*w.Helpfulness)

	blockers := []string{}
	for _, check := range []struct {
		name  string
		score float64
		min   float64
	}{
		{"actionability", scores.Actionability, qg.MinActionability},
		{"timeliness", scores.Timeliness, qg.MinTimeliness},
		{"reliability", scores.Reliability, qg.MinReliability},
		{"relevance", scores.Relevance, qg.MinRelevance},
		{"helpfulness", scores.Helpfulness, qg.MinHelpfulness},
	} {
		if check.score < check.min {
			blockers = append(blockers, check.name+"_low")
		}
	}

	pass := false
	visibility := VisibilityHidden
	switch {
	case scores.Helpfulness < qg.HardHideHelpfulnessBelow:
		// Hard floor, independent of everything else: a signal that has
		// proven unhelpful stays suppressed however strong it looks.
		blockers = append(blockers, "helpfulness_hard_hide")
	case len(blockers) == 0 && weighted >= qg.PassThreshold:
		pass = true
		visibility = VisibilityFull
	case len(blockers) == 0:
		visibility = VisibilityLowImpact
		blockers = append(blockers, "weighted_score_low")
	}

	result := Result{
		Scores:        scores,
		WeightedScore: weighted,
		Pass:          pass,
		Visibility:    visibility,
		Blockers:      blockers,
	}

	if !pass {
		g.recordFailure(result, source)
	}
	g.metrics.ObserveGate(string(visibility), blockers)

	return result
}

// EvaluateFromFeatures runs the five calculators over raw features and
// evaluates the resulting sub-scores.
func (g *QualityGate) EvaluateFromFeatures(features FeatureInput, source string) Result {
	helpfulness := HelpfulnessScore(
		features.BacktestWinRateLiftPct,
		features.FeedbackPositivePct,
		features.ApplyRatePct,
		features.PnlLiftPct,
	)
	return g.Evaluate(ScoreInput{
		Actionability: ActionabilityScore(features.ActionTypeCount, features.ClarityScore),
		Timeliness:    TimelinessScore(features.DelayMinutes, features.HorizonMinutes),
		Reliability:   ReliabilityScore(features.SourceReliability, features.FailureRatePct, features.ManipulationRisk),
		Relevance:     RelevanceScore(features.PairKeywordMatchPct, features.TimeframeAligned),
		Helpfulness:   &helpfulness,
	}, source)
}

func (g *QualityGate) recordFailure(result Result, source string) {
	log.Debug().
		Str("source", source).
		Str("visibility", string(result.Visibility)).
		Float64("weighted_score", result.WeightedScore).
		Strs("blockers", result.Blockers).
		Msg("evidence did not clear quality gate")

	if g.auditLog == nil {
		return
	}
	g.auditLog.Record(source, string(result.Visibility), result.WeightedScore, result.Blockers, map[string]float64{
		"actionability": result.Scores.Actionability,
		"timeliness":    result.Scores.Timeliness,
		"reliability":   result.Scores.Reliability,
		"relevance":     result.Scores.Relevance,
		"helpfulness":   result.Scores.Helpfulness,
	})
	g.metrics.SetAuditDepth(g.auditLog.Len())
}
