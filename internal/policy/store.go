package policy

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store owns the live policy thresholds. It is safe for concurrent use;
// every read hands out a deep copy so callers can use the result across
// goroutines without further locking. Multiple independent stores can
// coexist (tests inject their own).
type Store struct {
	mu       sync.Mutex
	defaults Thresholds
	current  Thresholds
}

// NewStore creates a store seeded with the compiled-in defaults.
func NewStore() *Store {
	def := DefaultThresholds()
	def.QualityGate.Weights = NormalizeWeights(def.QualityGate.Weights)
	return &Store{
		defaults: def.clone(),
		current:  def.clone(),
	}
}

// Get returns a deep copy of the current thresholds.
func (s *Store) Get() Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Set replaces the current thresholds wholesale, normalizing the quality
// gate weights, and returns the effective config.
func (s *Store) Set(t Thresholds) Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := t.clone()
	next.QualityGate.Weights = NormalizeWeights(next.QualityGate.Weights)
	s.current = next
	log.Info().Str("policy_version", next.PolicyVersion).Msg("policy replaced")
	return s.current.clone()
}

// Patch deep-merges a partial policy into the current thresholds. Nil
// patch fields are ignored; map entries overwrite per key; nested structs
// merge field by field. Returns the effective config after weight
// normalization.
func (s *Store) Patch(p Patch) Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.clone()
	applyPatch(&next, p)
	next.QualityGate.Weights = NormalizeWeights(next.QualityGate.Weights)
	s.current = next
	log.Info().Str("policy_version", next.PolicyVersion).Msg("policy patched")
	return s.current.clone()
}

// Reset restores the compiled-in defaults and returns them.
func (s *Store) Reset() Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.defaults.clone()
	log.Info().Str("policy_version", s.current.PolicyVersion).Msg("policy reset to defaults")
	return s.current.clone()
}

// Patch mirrors Thresholds with pointer-valued scalars so absent fields
// are distinguishable from explicit zeros. Only set fields are applied.
type Patch struct {
	QualityGate           *QualityGatePatch  `yaml:"quality_gate,omitempty" json:"quality_gate,omitempty"`
	DomainWeights         map[string]float64 `yaml:"domain_weights,omitempty" json:"domain_weights,omitempty"`
	MaxSignalAgeSec       map[string]float64 `yaml:"max_signal_age_sec,omitempty" json:"max_signal_age_sec,omitempty"`
	UncertaintyWaitFactor *float64           `yaml:"uncertainty_wait_factor,omitempty" json:"uncertainty_wait_factor,omitempty"`
	Conflict              *ConflictPatch     `yaml:"conflict,omitempty" json:"conflict,omitempty"`
	NoTrade               *NoTradePatch      `yaml:"no_trade,omitempty" json:"no_trade,omitempty"`
	Backtest              *BacktestPatch     `yaml:"backtest,omitempty" json:"backtest,omitempty"`
	PolicyVersion         *string            `yaml:"policy_version,omitempty" json:"policy_version,omitempty"`
}

type QualityGatePatch struct {
	MinActionability         *float64             `yaml:"min_actionability,omitempty" json:"min_actionability,omitempty"`
	MinTimeliness            *float64             `yaml:"min_timeliness,omitempty" json:"min_timeliness,omitempty"`
	MinReliability           *float64             `yaml:"min_reliability,omitempty" json:"min_reliability,omitempty"`
	MinRelevance             *float64             `yaml:"min_relevance,omitempty" json:"min_relevance,omitempty"`
	MinHelpfulness           *float64             `yaml:"min_helpfulness,omitempty" json:"min_helpfulness,omitempty"`
	Weights                  *QualityWeightsPatch `yaml:"weights,omitempty" json:"weights,omitempty"`
	PassThreshold            *float64             `yaml:"pass_threshold,omitempty" json:"pass_threshold,omitempty"`
	HardHideHelpfulnessBelow *float64             `yaml:"hard_hide_helpfulness_below,omitempty" json:"hard_hide_helpfulness_below,omitempty"`
}

type QualityWeightsPatch struct {
	Actionability *float64 `yaml:"actionability,omitempty" json:"actionability,omitempty"`
	Timeliness    *float64 `yaml:"timeliness,omitempty" json:"timeliness,omitempty"`
	Reliability   *float64 `yaml:"reliability,omitempty" json:"reliability,omitempty"`
	Relevance     *float64 `yaml:"relevance,omitempty" json:"relevance,omitempty"`
	Helpfulness   *float64 `yaml:"helpfulness,omitempty" json:"helpfulness,omitempty"`
}

type ConflictPatch struct {
	EdgeBandPct   *float64 `yaml:"edge_band_pct,omitempty" json:"edge_band_pct,omitempty"`
	PenaltyFactor *float64 `yaml:"penalty_factor,omitempty" json:"penalty_factor,omitempty"`
	WaitPrior     *float64 `yaml:"wait_prior,omitempty" json:"wait_prior,omitempty"`
}

type NoTradePatch struct {
	MinCoveragePct        *float64 `yaml:"min_coverage_pct,omitempty" json:"min_coverage_pct,omitempty"`
	MinBacktestWinRatePct *float64 `yaml:"min_backtest_win_rate_pct,omitempty" json:"min_backtest_win_rate_pct,omitempty"`
	MaxVolatilityIndex    *float64 `yaml:"max_volatility_index,omitempty" json:"max_volatility_index,omitempty"`
	MinEdgePctToTrade     *float64 `yaml:"min_edge_pct_to_trade,omitempty" json:"min_edge_pct_to_trade,omitempty"`
}

type BacktestPatch struct {
	MinWinRateLiftPct       *float64 `yaml:"min_win_rate_lift_pct,omitempty" json:"min_win_rate_lift_pct,omitempty"`
	MinSharpeLift           *float64 `yaml:"min_sharpe_lift,omitempty" json:"min_sharpe_lift,omitempty"`
	MinDrawdownReductionPct *float64 `yaml:"min_drawdown_reduction_pct,omitempty" json:"min_drawdown_reduction_pct,omitempty"`
	MinSampleSize           *int     `yaml:"min_sample_size,omitempty" json:"min_sample_size,omitempty"`
}

func applyPatch(t *Thresholds, p Patch) {
	if p.QualityGate != nil {
		applyQualityGatePatch(&t.QualityGate, *p.QualityGate)
	}
	for k, v := range p.DomainWeights {
		t.DomainWeights[k] = v
	}
	for k, v := range p.MaxSignalAgeSec {
		t.MaxSignalAgeSec[k] = v
	}
	setF(&t.UncertaintyWaitFactor, p.UncertaintyWaitFactor)
	if p.Conflict != nil {
		setF(&t.Conflict.EdgeBandPct, p.Conflict.EdgeBandPct)
		setF(&t.Conflict.PenaltyFactor, p.Conflict.PenaltyFactor)
		setF(&t.Conflict.WaitPrior, p.Conflict.WaitPrior)
	}
	if p.NoTrade != nil {
		setF(&t.NoTrade.MinCoveragePct, p.NoTrade.MinCoveragePct)
		setF(&t.NoTrade.MinBacktestWinRatePct, p.NoTrade.MinBacktestWinRatePct)
		setF(&t.NoTrade.MaxVolatilityIndex, p.NoTrade.MaxVolatilityIndex)
		setF(&t.NoTrade.MinEdgePctToTrade, p.NoTrade.MinEdgePctToTrade)
	}
	if p.Backtest != nil {
		setF(&t.Backtest.MinWinRateLiftPct, p.Backtest.MinWinRateLiftPct)
		setF(&t.Backtest.MinSharpeLift, p.Backtest.MinSharpeLift)
		setF(&t.Backtest.MinDrawdownReductionPct, p.Backtest.MinDrawdownReductionPct)
		if p.Backtest.MinSampleSize != nil {
			t.Backtest.MinSampleSize = *p.Backtest.MinSampleSize
		}
	}
	if p.PolicyVersion != nil {
		t.PolicyVersion = *p.PolicyVersion
	}
}

func applyQualityGatePatch(qg *QualityGateThresholds, p QualityGatePatch) {
	setF(&qg.MinActionability, p.MinActionability)
	setF(&qg.MinTimeliness, p.MinTimeliness)
	setF(&qg.MinReliability, p.MinReliability)
	setF(&qg.MinRelevance, p.MinRelevance)
	setF(&qg.MinHelpfulness, p.MinHelpfulness)
	if p.Weights != nil {
		setF(&qg.Weights.Actionability, p.Weights.Actionability)
		setF(&qg.Weights.Timeliness, p.Weights.Timeliness)
		setF(&qg.Weights.Reliability, p.Weights.Reliability)
		setF(&qg.Weights.Relevance, p.Weights.Relevance)
		setF(&qg.Weights.Helpfulness, p.Weights.Helpfulness)
	}
	setF(&qg.PassThreshold, p.PassThreshold)
	setF(&qg.HardHideHelpfulnessBelow, p.HardHideHelpfulnessBelow)
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
