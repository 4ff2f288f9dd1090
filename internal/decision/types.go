package decision

import "github.com/eunjuhyun88/maxidoge-intel/internal/gate"

// Domain is a fixed category of evidence source.
type Domain string

const (
	DomainHeadlines   Domain = "headlines"
	DomainEvents      Domain = "events"
	DomainFlow        Domain = "flow"
	DomainDerivatives Domain = "derivatives"
	DomainTrending    Domain = "trending"
	DomainPositions   Domain = "positions"
)

// Domains lists every known evidence domain.
var Domains = []Domain{
	DomainHeadlines,
	DomainEvents,
	DomainFlow,
	DomainDerivatives,
	DomainTrending,
	DomainPositions,
}

// Bias is a directional call on the market.
type Bias string

const (
	BiasLong  Bias = "long"
	BiasShort Bias = "short"
	BiasWait  Bias = "wait"
)

// Evidence is one domain's directional opinion for a decision cycle. It
// is a pure input value; the engine never retains it.
type Evidence struct {
	Domain       Domain  `json:"domain"`
	Bias         Bias    `json:"bias"`
	BiasStrength float64 `json:"bias_strength"` // 0-100
	Confidence   float64 `json:"confidence"`    // 0-100
	FreshnessSec float64 `json:"freshness_sec"` // age of the underlying signal
	Reason       string  `json:"reason"`

	// QualityScore and HelpfulnessScore override the gate outputs when
	// set; when nil they fall back to the gate result, then to policy
	// defaults.
	QualityScore     *float64     `json:"quality_score,omitempty"`
	HelpfulnessScore *float64     `json:"helpfulness_score,omitempty"`
	Gate             *gate.Result `json:"gate,omitempty"`
}

// Context carries whatever live telemetry the request-serving layer has
// on hand. Nil fields mean "not known this cycle".
type Context struct {
	CoveragePct        *float64 `json:"coverage_pct,omitempty"`
	BacktestWinRatePct *float64 `json:"backtest_win_rate_pct,omitempty"`
	VolatilityIndex    *float64 `json:"volatility_index,omitempty"`
}

// DomainScore is one evidence item's contribution snapshot. Hidden
// evidence still produces a row (with zero contributions) so auditors
// can see what was excluded and why.
type DomainScore struct {
	Domain           Domain  `json:"domain"`
	WeightedLong     float64 `json:"weighted_long"`
	WeightedShort    float64 `json:"weighted_short"`
	WeightedWait     float64 `json:"weighted_wait"`
	QualityScore     float64 `json:"quality_score"`
	HelpfulnessScore float64 `json:"helpfulness_score"`
	Reason           string  `json:"reason"`
}

// Output is one fused trading decision with its auditable breakdown.
type Output struct {
	Bias             Bias          `json:"bias"`
	Confidence       float64       `json:"confidence"` // 0-100
	ShouldTrade      bool          `json:"should_trade"`
	QualityGateScore float64       `json:"quality_gate_score"`
	LongScore        float64       `json:"long_score"`
	ShortScore       float64       `json:"short_score"`
	WaitScore        float64       `json:"wait_score"`
	NetEdge          float64       `json:"net_edge"`
	EdgePct          float64       `json:"edge_pct"`
	CoveragePct      float64       `json:"coverage_pct"`
	Reasons          []string      `json:"reasons"`
	Blockers         []string      `json:"blockers"`
	PolicyVersion    string        `json:"policy_version"`
	Breakdown        []DomainScore `json:"breakdown"`
}
