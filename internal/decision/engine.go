// Package decision fuses gated evidence from multiple domains into a
// single trading bias with a calibrated confidence and an auditable
// per-domain breakdown.
package decision

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
	"github.com/eunjuhyun88/maxidoge-intel/internal/telemetry"
)

const edgeEpsilon = 1e-9

// Engine computes fusion decisions against the live policy. It holds no
// per-decision state; identical inputs under an unchanged policy produce
// identical outputs.
type Engine struct {
	policy  *policy.Store
	metrics *telemetry.Metrics
}

// NewEngine creates a fusion engine. Metrics may be nil.
func NewEngine(store *policy.Store, metrics *telemetry.Metrics) *Engine {
	return &Engine{policy: store, metrics: metrics}
}

// ComputeDecision fuses all evidence for one market/timeframe into one
// decision. It never fails: malformed numerics are clamped or defaulted,
// and every condition that withholds conviction surfaces as a named
// blocker rather than an error.
func (e *Engine) ComputeDecision(evidence []Evidence, ctx Context) Output {
	start := time.Now()
	p := e.policy.Get()

	out := e.compute(evidence, ctx, p)

	log.Debug().
		Str("bias", string(out.Bias)).
		Float64("confidence", out.Confidence).
		Float64("net_edge", out.NetEdge).
		Int("evidence", len(evidence)).
		Strs("blockers", out.Blockers).
		Msg("fusion decision computed")
	e.metrics.ObserveDecision(string(out.Bias), out.Blockers, time.Since(start).Seconds())

	return out
}

func (e *Engine) compute(evidence []Evidence, ctx Context, p policy.Thresholds) Output {
	// Nothing to decide on is an explicit state, distinct from a
	// computed wait: full confidence, single blocker, zeroed scores.
	if len(evidence) == 0 {
		return Output{
			Bias:          BiasWait,
			Confidence:    100,
			ShouldTrade:   false,
			Reasons:       []string{},
			Blockers:      []string{"no_evidence"},
			PolicyVersion: p.PolicyVersion,
			Breakdown:     []DomainScore{},
		}
	}

	var (
		longScore, shortScore, waitScore float64
		breakdown                        []DomainScore
		blockers                         []string
		helpSum, qualitySum              float64
		scoredCount                      int
		covered                          = map[Domain]bool{}
	)

	for _, ev := range evidence {
		weight := p.DomainWeights[string(ev.Domain)]
		if !(weight > 0) {
			continue
		}

		freshness := freshnessFactor(ev.FreshnessSec, p.MaxSignalAgeSec[string(ev.Domain)])
		quality, helpful := resolveScores(ev, p)

		if ev.Gate != nil && ev.Gate.Visibility == gate.VisibilityHidden {
			// Hidden evidence never influences scoring; it only leaves a
			// blocker trail and a zero-contribution breakdown row.
			blockers = append(blockers, string(ev.Domain)+"_hidden_by_gate")
			breakdown = append(breakdown, DomainScore{
				Domain:           ev.Domain,
				QualityScore:     round2(quality),
				HelpfulnessScore: round2(helpful),
				Reason:           ev.Reason,
			})
			continue
		}

		strength := clampPct(ev.BiasStrength)
		confidence := clampPct(ev.Confidence)

		base := (strength / 100) * (confidence / 100) * freshness *
			(quality / 100) * (helpful / 100) * weight * 100

		// A slice of every domain's uncertainty always flows to wait,
		// regardless of which way the evidence points.
		uncertainty := weight * (1 - confidence/100) * p.UncertaintyWaitFactor

		row := DomainScore{
			Domain:           ev.Domain,
			WeightedWait:     uncertainty,
			QualityScore:     round2(quality),
			HelpfulnessScore: round2(helpful),
			Reason:           ev.Reason,
		}

		waitScore += uncertainty
		switch ev.Bias {
		case BiasLong:
			longScore += base
			row.WeightedLong = base
		case BiasShort:
			shortScore += base
			row.WeightedShort = base
		default:
			waitScore += base
			row.WeightedWait += base
		}
		breakdown = append(breakdown, row)

		helpSum += helpful
		qualitySum += quality
		scoredCount++
		if quality > 0 {
			covered[ev.Domain] = true
		}
	}

	// Directional conviction is discounted when the evidence pool has
	// historically proven unhelpful; wait is left untouched so low
	// helpfulness is not double-counted against caution.
	meanHelpfulness := p.QualityGate.MinHelpfulness
	qualityGateScore := 0.0
	if scoredCount > 0 {
		meanHelpfulness = helpSum / float64(scoredCount)
		qualityGateScore = qualitySum / float64(scoredCount)
	}
	longScore *= meanHelpfulness / 100
	shortScore *= meanHelpfulness / 100

	// Conflict dampening: a razor-thin lead between opposing camps must
	// not produce a confident directional call.
	if longScore > 0 && shortScore > 0 {
		edge := relativeEdgePct(longScore, shortScore)
		if edge < p.Conflict.EdgeBandPct {
			longScore *= p.Conflict.PenaltyFactor
			shortScore *= p.Conflict.PenaltyFactor
			waitScore += p.Conflict.WaitPrior * 100
			blockers = append(blockers, "conflict_penalty_applied")
		}
	}

	netEdge := longScore - shortScore
	edgePct := relativeEdgePct(longScore, shortScore)

	coverage := inferCoverage(ctx, covered, p)

	// No-trade gates run independently of the weighted scores and cannot
	// be compensated by strength elsewhere.
	if coverage < p.NoTrade.MinCoveragePct {
		blockers = append(blockers, "coverage_low")
	}
	backtestWinRate := 100.0
	if ctx.BacktestWinRatePct != nil {
		backtestWinRate = clampPct(*ctx.BacktestWinRatePct)
	}
	if backtestWinRate < p.NoTrade.MinBacktestWinRatePct {
		blockers = append(blockers, "backtest_win_rate_low")
	}
	if ctx.VolatilityIndex != nil && sanitize(*ctx.VolatilityIndex) > p.NoTrade.MaxVolatilityIndex {
		blockers = append(blockers, "volatility_too_high")
	}
	if edgePct < p.NoTrade.MinEdgePctToTrade {
		blockers = append(blockers, "edge_below_threshold")
	}

	probs := softmax([]float64{longScore, shortScore, waitScore})

	bias := BiasWait
	if !forcesWait(blockers) {
		if longScore >= shortScore && longScore >= waitScore {
			bias = BiasLong
		} else if shortScore >= waitScore {
			bias = BiasShort
		}
	}

	if bias == BiasWait {
		// Reporting floor so a forced wait never shows a near-zero wait
		// score next to large directional scores.
		waitScore = math.Max(waitScore, 100*p.Conflict.WaitPrior)
	}

	confidence := probs[2]
	switch bias {
	case BiasLong:
		confidence = probs[0]
	case BiasShort:
		confidence = probs[1]
	}

	return Output{
		Bias:             bias,
		Confidence:       round2(clampPct(confidence * 100)),
		ShouldTrade:      bias != BiasWait,
		QualityGateScore: round2(qualityGateScore),
		LongScore:        round2(longScore),
		ShortScore:       round2(shortScore),
		WaitScore:        round2(waitScore),
		NetEdge:          round2(netEdge),
		EdgePct:          round2(edgePct),
		CoveragePct:      round2(coverage),
		Reasons:          topReasons(breakdown, 3),
		Blockers:         dedupe(blockers),
		PolicyVersion:    p.PolicyVersion,
		Breakdown:        roundBreakdown(breakdown),
	}
}

// freshnessFactor is a linear time decay in [0,1]: 1 at age zero, 0 at
// or beyond the domain's max age.
func freshnessFactor(ageSec, maxAgeSec float64) float64 {
	if maxAgeSec <= 0 || math.IsNaN(maxAgeSec) || math.IsInf(maxAgeSec, 0) {
		return 0
	}
	age := math.Max(0, sanitize(ageSec))
	if age >= maxAgeSec {
		return 0
	}
	return 1 - age/maxAgeSec
}

// resolveScores picks the evidence's quality and helpfulness: explicit
// override first, then the gate result, then the policy defaults.
func resolveScores(ev Evidence, p policy.Thresholds) (quality, helpful float64) {
	quality = p.QualityGate.PassThreshold
	helpful = p.QualityGate.MinHelpfulness
	if ev.Gate != nil {
		quality = ev.Gate.WeightedScore
		helpful = ev.Gate.Scores.Helpfulness
	}
	if ev.QualityScore != nil {
		quality = *ev.QualityScore
	}
	if ev.HelpfulnessScore != nil {
		helpful = *ev.HelpfulnessScore
	}
	return clampPct(quality), clampPct(helpful)
}

func relativeEdgePct(long, short float64) float64 {
	return math.Abs(long-short) / math.Max(math.Max(long, short), edgeEpsilon) * 100
}

// inferCoverage uses the caller-supplied coverage when it is a valid
// non-negative value, and otherwise infers it from the share of
// configured domain weight that produced usable evidence.
func inferCoverage(ctx Context, covered map[Domain]bool, p policy.Thresholds) float64 {
	if ctx.CoveragePct != nil {
		if v := *ctx.CoveragePct; v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return clampPct(v)
		}
	}

	total := 0.0
	coveredWeight := 0.0
	for domain, weight := range p.DomainWeights {
		if !(weight > 0) {
			continue
		}
		total += weight
		if covered[Domain(domain)] {
			coveredWeight += weight
		}
	}
	if total <= 0 {
		return 0
	}
	return clampPct(coveredWeight / total * 100)
}

// forcesWait reports whether any blocker forbids a directional call.
func forcesWait(blockers []string) bool {
	for _, b := range blockers {
		switch b {
		case "coverage_low", "backtest_win_rate_low", "volatility_too_high", "edge_below_threshold":
			return true
		}
		if strings.HasSuffix(b, "_hidden_by_gate") {
			return true
		}
	}
	return false
}

// topReasons returns up to n distinct reason strings, strongest
// contribution first.
func topReasons(breakdown []DomainScore, n int) []string {
	rows := make([]DomainScore, len(breakdown))
	copy(rows, breakdown)
	sort.SliceStable(rows, func(i, j int) bool {
		return math.Max(rows[i].WeightedLong, rows[i].WeightedShort) >
			math.Max(rows[j].WeightedLong, rows[j].WeightedShort)
	})

	reasons := []string{}
	seen := map[string]bool{}
	for _, row := range rows {
		if row.Reason == "" || seen[row.Reason] {
			continue
		}
		seen[row.Reason] = true
		reasons = append(reasons, row.Reason)
		if len(reasons) == n {
			break
		}
	}
	return reasons
}

func roundBreakdown(breakdown []DomainScore) []DomainScore {
	if breakdown == nil {
		return []DomainScore{}
	}
	out := make([]DomainScore, len(breakdown))
	for i, row := range breakdown {
		row.WeightedLong = round2(row.WeightedLong)
		row.WeightedShort = round2(row.WeightedShort)
		row.WeightedWait = round2(row.WeightedWait)
		out[i] = row
	}
	return out
}

func dedupe(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clampPct(v float64) float64 {
	v = sanitize(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(sanitize(v)*100) / 100
}
