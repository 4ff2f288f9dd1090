package policy

import "math"

// QualityWeights holds the relative weight of each quality gate sub-score.
// Weights are normalized to sum to 1.0 before use.
type QualityWeights struct {
	Actionability float64 `yaml:"actionability" json:"actionability"`
	Timeliness    float64 `yaml:"timeliness" json:"timeliness"`
	Reliability   float64 `yaml:"reliability" json:"reliability"`
	Relevance     float64 `yaml:"relevance" json:"relevance"`
	Helpfulness   float64 `yaml:"helpfulness" json:"helpfulness"`
}

// QualityGateThresholds parameterizes the evidence quality gate.
type QualityGateThresholds struct {
	MinActionability         float64        `yaml:"min_actionability" json:"min_actionability"`
	MinTimeliness            float64        `yaml:"min_timeliness" json:"min_timeliness"`
	MinReliability           float64        `yaml:"min_reliability" json:"min_reliability"`
	MinRelevance             float64        `yaml:"min_relevance" json:"min_relevance"`
	MinHelpfulness           float64        `yaml:"min_helpfulness" json:"min_helpfulness"`
	Weights                  QualityWeights `yaml:"weights" json:"weights"`
	PassThreshold            float64        `yaml:"pass_threshold" json:"pass_threshold"`
	HardHideHelpfulnessBelow float64        `yaml:"hard_hide_helpfulness_below" json:"hard_hide_helpfulness_below"`
}

// ConflictThresholds controls conflict dampening when long and short
// evidence are nearly balanced.
type ConflictThresholds struct {
	EdgeBandPct   float64 `yaml:"edge_band_pct" json:"edge_band_pct"`     // relative edge below which dampening kicks in
	PenaltyFactor float64 `yaml:"penalty_factor" json:"penalty_factor"`   // multiplier applied to both directional scores
	WaitPrior     float64 `yaml:"wait_prior" json:"wait_prior"`           // extra wait mass (×100) added on conflict
}

// NoTradeThresholds are hard gates that force a wait outcome regardless
// of directional scores.
type NoTradeThresholds struct {
	MinCoveragePct        float64 `yaml:"min_coverage_pct" json:"min_coverage_pct"`
	MinBacktestWinRatePct float64 `yaml:"min_backtest_win_rate_pct" json:"min_backtest_win_rate_pct"`
	MaxVolatilityIndex    float64 `yaml:"max_volatility_index" json:"max_volatility_index"`
	MinEdgePctToTrade     float64 `yaml:"min_edge_pct_to_trade" json:"min_edge_pct_to_trade"`
}

// BacktestTargets are the minimum lifts a policy change must show in a
// backtest before it counts as meeting target.
type BacktestTargets struct {
	MinWinRateLiftPct         float64 `yaml:"min_win_rate_lift_pct" json:"min_win_rate_lift_pct"`
	MinSharpeLift             float64 `yaml:"min_sharpe_lift" json:"min_sharpe_lift"`
	MinDrawdownReductionPct   float64 `yaml:"min_drawdown_reduction_pct" json:"min_drawdown_reduction_pct"`
	MinSampleSize             int     `yaml:"min_sample_size" json:"min_sample_size"`
}

// Thresholds is the full decision policy: quality gate parameters,
// per-domain fusion weights and staleness limits, conflict dampening and
// no-trade gates. A version string travels with every decision output so
// results can be attributed to the policy that produced them.
type Thresholds struct {
	QualityGate QualityGateThresholds `yaml:"quality_gate" json:"quality_gate"`

	// DomainWeights maps evidence domain -> fusion weight. A domain with a
	// missing or non-positive weight contributes nothing.
	DomainWeights map[string]float64 `yaml:"domain_weights" json:"domain_weights"`

	// MaxSignalAgeSec maps evidence domain -> max usable signal age in
	// seconds. Evidence older than this decays to zero contribution.
	MaxSignalAgeSec map[string]float64 `yaml:"max_signal_age_sec" json:"max_signal_age_sec"`

	// UncertaintyWaitFactor scales how much of each domain's uncertainty
	// (1 - confidence) flows into the wait score. Tuned constant, not
	// derived; calibrate against backtest data before trusting it.
	UncertaintyWaitFactor float64 `yaml:"uncertainty_wait_factor" json:"uncertainty_wait_factor"`

	Conflict ConflictThresholds `yaml:"conflict" json:"conflict"`
	NoTrade  NoTradeThresholds  `yaml:"no_trade" json:"no_trade"`
	Backtest BacktestTargets    `yaml:"backtest" json:"backtest"`

	PolicyVersion string `yaml:"policy_version" json:"policy_version"`
}

// DefaultThresholds returns the compiled-in policy. Callers get a fresh
// copy each call; mutating the result does not affect other callers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		QualityGate: QualityGateThresholds{
			MinActionability: 20.0,
			MinTimeliness:    30.0,
			MinReliability:   40.0,
			MinRelevance:     30.0,
			MinHelpfulness:   35.0,
			Weights: QualityWeights{
				Actionability: 0.25,
				Timeliness:    0.15,
				Reliability:   0.25,
				Relevance:     0.15,
				Helpfulness:   0.20,
			},
			PassThreshold:            60.0,
			HardHideHelpfulnessBelow: 20.0,
		},
		DomainWeights: map[string]float64{
			"headlines":   0.20,
			"events":      0.15,
			"flow":        0.20,
			"derivatives": 0.20,
			"trending":    0.10,
			"positions":   0.15,
		},
		MaxSignalAgeSec: map[string]float64{
			"headlines":   3600,
			"events":      21600,
			"flow":        1800,
			"derivatives": 3600,
			"trending":    3600,
			"positions":   86400,
		},
		UncertaintyWaitFactor: 30.0,
		Conflict: ConflictThresholds{
			EdgeBandPct:   15.0,
			PenaltyFactor: 0.5,
			WaitPrior:     0.2,
		},
		NoTrade: NoTradeThresholds{
			MinCoveragePct:        25.0,
			MinBacktestWinRatePct: 45.0,
			MaxVolatilityIndex:    75.0,
			MinEdgePctToTrade:     10.0,
		},
		Backtest: BacktestTargets{
			MinWinRateLiftPct:       2.0,
			MinSharpeLift:           0.1,
			MinDrawdownReductionPct: 1.0,
			MinSampleSize:           200,
		},
		PolicyVersion: "intel-policy-v1",
	}
}

// fallbackWeights is substituted when a caller configures quality weights
// whose sum is non-positive or non-finite.
var fallbackWeights = QualityWeights{
	Actionability: 0.25,
	Timeliness:    0.15,
	Reliability:   0.25,
	Relevance:     0.15,
	Helpfulness:   0.20,
}

// NormalizeWeights rescales the five quality weights so they sum to 1.0.
// A non-finite or non-positive sum falls back to the fixed distribution,
// so the weighted quality score is always a true percentage.
func NormalizeWeights(w QualityWeights) QualityWeights {
	sum := w.Actionability + w.Timeliness + w.Reliability + w.Relevance + w.Helpfulness
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return fallbackWeights
	}
	return QualityWeights{
		Actionability: w.Actionability / sum,
		Timeliness:    w.Timeliness / sum,
		Reliability:   w.Reliability / sum,
		Relevance:     w.Relevance / sum,
		Helpfulness:   w.Helpfulness / sum,
	}
}

// clone returns a deep copy, duplicating the domain maps so callers can
// never alias shared state.
func (t Thresholds) clone() Thresholds {
	out := t
	out.DomainWeights = make(map[string]float64, len(t.DomainWeights))
	for k, v := range t.DomainWeights {
		out.DomainWeights[k] = v
	}
	out.MaxSignalAgeSec = make(map[string]float64, len(t.MaxSignalAgeSec))
	for k, v := range t.MaxSignalAgeSec {
		out.MaxSignalAgeSec[k] = v
	}
	return out
}
