package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
)

func newTestEngine(t *testing.T) (*Engine, *policy.Store) {
	t.Helper()
	store := policy.NewStore()
	return NewEngine(store, nil), store
}

func fptr(v float64) *float64 { return &v }

func TestComputeDecision_NoEvidence(t *testing.T) {
	engine, _ := newTestEngine(t)

	out := engine.ComputeDecision(nil, Context{})

	assert.Equal(t, BiasWait, out.Bias)
	assert.Equal(t, 100.0, out.Confidence)
	assert.False(t, out.ShouldTrade)
	assert.Equal(t, []string{"no_evidence"}, out.Blockers)
	assert.Empty(t, out.Breakdown)
	assert.Zero(t, out.LongScore)
	assert.Zero(t, out.ShortScore)
	assert.Zero(t, out.WaitScore)
	assert.Equal(t, "intel-policy-v1", out.PolicyVersion)
}

func TestComputeDecision_EndToEndHeadlinesLong(t *testing.T) {
	engine, store := newTestEngine(t)
	store.Patch(policy.Patch{
		DomainWeights:   map[string]float64{"headlines": 0.3},
		MaxSignalAgeSec: map[string]float64{"headlines": 7200},
	})

	out := engine.ComputeDecision([]Evidence{{
		Domain:           DomainHeadlines,
		Bias:             BiasLong,
		BiasStrength:     80,
		Confidence:       70,
		FreshnessSec:     60,
		Reason:           "bullish headline cluster",
		QualityScore:     fptr(90),
		HelpfulnessScore: fptr(85),
	}}, Context{})

	assert.Equal(t, BiasLong, out.Bias)
	assert.True(t, out.ShouldTrade)
	assert.Empty(t, out.Blockers)

	require.Len(t, out.Breakdown, 1)
	row := out.Breakdown[0]
	assert.Equal(t, DomainHeadlines, row.Domain)
	assert.Greater(t, row.WeightedLong, 0.0)
	assert.Zero(t, row.WeightedShort)
	assert.Greater(t, out.LongScore, out.WaitScore)
	assert.Equal(t, []string{"bullish headline cluster"}, out.Reasons)
}

func TestComputeDecision_Idempotent(t *testing.T) {
	engine, _ := newTestEngine(t)

	evidence := []Evidence{
		{Domain: DomainHeadlines, Bias: BiasLong, BiasStrength: 70, Confidence: 65, FreshnessSec: 120, QualityScore: fptr(80), HelpfulnessScore: fptr(70), Reason: "news"},
		{Domain: DomainDerivatives, Bias: BiasShort, BiasStrength: 40, Confidence: 55, FreshnessSec: 300, QualityScore: fptr(75), HelpfulnessScore: fptr(60), Reason: "funding"},
		{Domain: DomainTrending, Bias: BiasWait, BiasStrength: 30, Confidence: 50, FreshnessSec: 60, QualityScore: fptr(65), HelpfulnessScore: fptr(55), Reason: "mixed social"},
	}
	ctx := Context{CoveragePct: fptr(70)}

	first := engine.ComputeDecision(evidence, ctx)
	second := engine.ComputeDecision(evidence, ctx)

	assert.Equal(t, first, second)
}

func mirror(evidence []Evidence) []Evidence {
	out := make([]Evidence, len(evidence))
	for i, ev := range evidence {
		flipped := ev
		switch ev.Bias {
		case BiasLong:
			flipped.Bias = BiasShort
		case BiasShort:
			flipped.Bias = BiasLong
		}
		out[i] = flipped
	}
	return out
}

func TestComputeDecision_LongShortSymmetry(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := Context{CoveragePct: fptr(80)}

	evidence := []Evidence{
		{Domain: DomainHeadlines, Bias: BiasLong, BiasStrength: 90, Confidence: 90, FreshnessSec: 0, QualityScore: fptr(90), HelpfulnessScore: fptr(90), Reason: "strong news"},
		{Domain: DomainFlow, Bias: BiasLong, BiasStrength: 60, Confidence: 70, FreshnessSec: 100, QualityScore: fptr(80), HelpfulnessScore: fptr(75), Reason: "inflows"},
	}

	longOut := engine.ComputeDecision(evidence, ctx)
	shortOut := engine.ComputeDecision(mirror(evidence), ctx)

	assert.Equal(t, BiasLong, longOut.Bias)
	assert.Equal(t, BiasShort, shortOut.Bias)
	assert.Equal(t, longOut.LongScore, shortOut.ShortScore)
	assert.Equal(t, longOut.ShortScore, shortOut.LongScore)
	assert.Equal(t, longOut.WaitScore, shortOut.WaitScore)
	assert.Equal(t, longOut.Confidence, shortOut.Confidence)
	assert.Equal(t, longOut.NetEdge, -shortOut.NetEdge)
}

func TestComputeDecision_ConflictDampening(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := Context{CoveragePct: fptr(80)}

	// Nearly balanced opposing evidence: relative edge well under the
	// 15% band.
	evidence := []Evidence{
		{Domain: DomainHeadlines, Bias: BiasLong, BiasStrength: 80, Confidence: 80, FreshnessSec: 0, QualityScore: fptr(85), HelpfulnessScore: fptr(80), Reason: "bullish news"},
		{Domain: DomainDerivatives, Bias: BiasShort, BiasStrength: 78, Confidence: 80, FreshnessSec: 0, QualityScore: fptr(85), HelpfulnessScore: fptr(80), Reason: "crowded longs"},
	}

	damped := engine.ComputeDecision(evidence, ctx)
	assert.Contains(t, damped.Blockers, "conflict_penalty_applied")

	// Re-run with the band disabled to measure the undamped edge.
	band := 0.0
	store.Patch(policy.Patch{Conflict: &policy.ConflictPatch{EdgeBandPct: &band}})
	undamped := engine.ComputeDecision(evidence, ctx)
	assert.NotContains(t, undamped.Blockers, "conflict_penalty_applied")

	assert.Less(t, damped.NetEdge, undamped.NetEdge)
	assert.Greater(t, damped.WaitScore, undamped.WaitScore)
}

func TestComputeDecision_CoverageGateForcesWait(t *testing.T) {
	engine, store := newTestEngine(t)

	minCoverage := 40.0
	store.Patch(policy.Patch{NoTrade: &policy.NoTradePatch{MinCoveragePct: &minCoverage}})

	out := engine.ComputeDecision([]Evidence{{
		Domain:           DomainHeadlines,
		Bias:             BiasLong,
		BiasStrength:     100,
		Confidence:       100,
		FreshnessSec:     0,
		QualityScore:     fptr(100),
		HelpfulnessScore: fptr(100),
	}}, Context{CoveragePct: fptr(5)})

	assert.Contains(t, out.Blockers, "coverage_low")
	assert.Equal(t, BiasWait, out.Bias)
	assert.False(t, out.ShouldTrade)
	assert.Greater(t, out.LongScore, 0.0)
	// Forced wait floors the reported wait score at 100 × wait prior.
	assert.GreaterOrEqual(t, out.WaitScore, 20.0)
}

func TestComputeDecision_BacktestAndVolatilityGates(t *testing.T) {
	engine, _ := newTestEngine(t)

	strong := []Evidence{{
		Domain: DomainFlow, Bias: BiasLong, BiasStrength: 95, Confidence: 95,
		FreshnessSec: 0, QualityScore: fptr(95), HelpfulnessScore: fptr(95),
	}}

	out := engine.ComputeDecision(strong, Context{CoveragePct: fptr(80), BacktestWinRatePct: fptr(30)})
	assert.Contains(t, out.Blockers, "backtest_win_rate_low")
	assert.Equal(t, BiasWait, out.Bias)

	out = engine.ComputeDecision(strong, Context{CoveragePct: fptr(80), VolatilityIndex: fptr(90)})
	assert.Contains(t, out.Blockers, "volatility_too_high")
	assert.Equal(t, BiasWait, out.Bias)

	// Volatility is only checked when supplied.
	out = engine.ComputeDecision(strong, Context{CoveragePct: fptr(80)})
	assert.NotContains(t, out.Blockers, "volatility_too_high")
	assert.Equal(t, BiasLong, out.Bias)
}

func TestComputeDecision_HiddenEvidenceExcludedFromScoring(t *testing.T) {
	engine, _ := newTestEngine(t)

	hiddenGate := &gate.Result{
		Scores:        gate.Scores{Helpfulness: 10},
		WeightedScore: 88,
		Visibility:    gate.VisibilityHidden,
	}

	out := engine.ComputeDecision([]Evidence{{
		Domain:       DomainDerivatives,
		Bias:         BiasLong,
		BiasStrength: 100,
		Confidence:   100,
		FreshnessSec: 0,
		Gate:         hiddenGate,
		Reason:       "suppressed derivatives spike",
	}}, Context{CoveragePct: fptr(80)})

	assert.Contains(t, out.Blockers, "derivatives_hidden_by_gate")
	assert.Equal(t, BiasWait, out.Bias)
	assert.Zero(t, out.LongScore)

	// The breakdown still carries the row for audit, with zero
	// contributions but the gate's quality and helpfulness attached.
	require.Len(t, out.Breakdown, 1)
	assert.Zero(t, out.Breakdown[0].WeightedLong)
	assert.Zero(t, out.Breakdown[0].WeightedWait)
	assert.Equal(t, 88.0, out.Breakdown[0].QualityScore)
	assert.Equal(t, 10.0, out.Breakdown[0].HelpfulnessScore)
}

func TestComputeDecision_UnknownDomainSkipped(t *testing.T) {
	engine, _ := newTestEngine(t)

	out := engine.ComputeDecision([]Evidence{{
		Domain:       Domain("astrology"),
		Bias:         BiasLong,
		BiasStrength: 100,
		Confidence:   100,
		FreshnessSec: 0,
	}}, Context{CoveragePct: fptr(80)})

	assert.Empty(t, out.Breakdown)
	assert.Zero(t, out.LongScore)
	assert.NotContains(t, out.Blockers, "astrology_hidden_by_gate")
}

func TestComputeDecision_StaleEvidenceContributesNothing(t *testing.T) {
	engine, store := newTestEngine(t)
	maxAge := store.Get().MaxSignalAgeSec["headlines"]

	out := engine.ComputeDecision([]Evidence{{
		Domain:           DomainHeadlines,
		Bias:             BiasLong,
		BiasStrength:     100,
		Confidence:       100,
		FreshnessSec:     maxAge + 1,
		QualityScore:     fptr(100),
		HelpfulnessScore: fptr(100),
	}}, Context{CoveragePct: fptr(80)})

	assert.Zero(t, out.LongScore)
}

func TestComputeDecision_GateOutputsUsedAsDefaults(t *testing.T) {
	engine, _ := newTestEngine(t)

	passGate := &gate.Result{
		Scores:        gate.Scores{Helpfulness: 72},
		WeightedScore: 81,
		Pass:          true,
		Visibility:    gate.VisibilityFull,
	}

	out := engine.ComputeDecision([]Evidence{{
		Domain:       DomainFlow,
		Bias:         BiasLong,
		BiasStrength: 80,
		Confidence:   90,
		FreshnessSec: 0,
		Gate:         passGate,
	}}, Context{CoveragePct: fptr(80)})

	require.Len(t, out.Breakdown, 1)
	assert.Equal(t, 81.0, out.Breakdown[0].QualityScore)
	assert.Equal(t, 72.0, out.Breakdown[0].HelpfulnessScore)
}

func TestComputeDecision_WaitBiasRoutesToWaitScore(t *testing.T) {
	engine, _ := newTestEngine(t)

	out := engine.ComputeDecision([]Evidence{{
		Domain:           DomainTrending,
		Bias:             BiasWait,
		BiasStrength:     80,
		Confidence:       80,
		FreshnessSec:     0,
		QualityScore:     fptr(80),
		HelpfulnessScore: fptr(80),
	}}, Context{CoveragePct: fptr(80)})

	assert.Zero(t, out.LongScore)
	assert.Zero(t, out.ShortScore)
	assert.Greater(t, out.WaitScore, 0.0)
	assert.Equal(t, BiasWait, out.Bias)
}

func TestComputeDecision_ReasonsTopThreeDeduplicated(t *testing.T) {
	engine, _ := newTestEngine(t)

	out := engine.ComputeDecision([]Evidence{
		{Domain: DomainHeadlines, Bias: BiasLong, BiasStrength: 90, Confidence: 90, FreshnessSec: 0, QualityScore: fptr(90), HelpfulnessScore: fptr(90), Reason: "alpha"},
		{Domain: DomainFlow, Bias: BiasLong, BiasStrength: 70, Confidence: 80, FreshnessSec: 0, QualityScore: fptr(85), HelpfulnessScore: fptr(85), Reason: "beta"},
		{Domain: DomainDerivatives, Bias: BiasLong, BiasStrength: 50, Confidence: 70, FreshnessSec: 0, QualityScore: fptr(80), HelpfulnessScore: fptr(80), Reason: "alpha"},
		{Domain: DomainEvents, Bias: BiasLong, BiasStrength: 30, Confidence: 60, FreshnessSec: 0, QualityScore: fptr(75), HelpfulnessScore: fptr(75), Reason: "gamma"},
		{Domain: DomainPositions, Bias: BiasLong, BiasStrength: 10, Confidence: 50, FreshnessSec: 0, QualityScore: fptr(70), HelpfulnessScore: fptr(70), Reason: "delta"},
	}, Context{CoveragePct: fptr(90)})

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, out.Reasons)
}

func TestComputeDecision_OutputsAlwaysInRange(t *testing.T) {
	engine, _ := newTestEngine(t)

	inputs := [][]Evidence{
		nil,
		{{Domain: DomainHeadlines, Bias: BiasLong, BiasStrength: 1e9, Confidence: -50, FreshnessSec: -100}},
		{{Domain: DomainFlow, Bias: BiasShort, BiasStrength: 100, Confidence: 100, FreshnessSec: 0, QualityScore: fptr(1e9), HelpfulnessScore: fptr(-1e9)}},
	}

	for _, evidence := range inputs {
		out := engine.ComputeDecision(evidence, Context{})
		assert.GreaterOrEqual(t, out.Confidence, 0.0)
		assert.LessOrEqual(t, out.Confidence, 100.0)
		assert.GreaterOrEqual(t, out.CoveragePct, 0.0)
		assert.LessOrEqual(t, out.CoveragePct, 100.0)
		assert.GreaterOrEqual(t, out.QualityGateScore, 0.0)
		assert.LessOrEqual(t, out.QualityGateScore, 100.0)
	}
}
