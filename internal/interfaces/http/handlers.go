package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eunjuhyun88/maxidoge-intel/internal/decision"
	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/helpfulness"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"policy_version": s.policyStore.Get().PolicyVersion,
	})
}

func (s *Server) handlePolicyGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.policyStore.Get())
}

func (s *Server) handlePolicySet(w http.ResponseWriter, r *http.Request) {
	var thresholds policy.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&thresholds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid policy payload: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.policyStore.Set(thresholds))
}

func (s *Server) handlePolicyPatch(w http.ResponseWriter, r *http.Request) {
	var patch policy.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid policy patch: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.policyStore.Patch(patch))
}

func (s *Server) handlePolicyReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.policyStore.Reset())
}

type gateEvaluateRequest struct {
	Source string          `json:"source"`
	Scores gate.ScoreInput `json:"scores"`
}

func (s *Server) handleGateEvaluate(w http.ResponseWriter, r *http.Request) {
	var req gateEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid gate request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.qualityGate.Evaluate(req.Scores, req.Source))
}

type gateFeaturesRequest struct {
	Source   string            `json:"source"`
	Features gate.FeatureInput `json:"features"`
}

func (s *Server) handleGateEvaluateFeatures(w http.ResponseWriter, r *http.Request) {
	var req gateFeaturesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid gate features request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.qualityGate.EvaluateFromFeatures(req.Features, req.Source))
}

func (s *Server) handleGateLogList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, s.auditLog.List(limit))
}

func (s *Server) handleGateLogClear(w http.ResponseWriter, _ *http.Request) {
	s.auditLog.Clear()
	s.metrics.SetAuditDepth(0)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type decisionRequest struct {
	Evidence []decision.Evidence `json:"evidence"`
	Context  decision.Context    `json:"context"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.ComputeDecision(req.Evidence, req.Context))
}

func (s *Server) handleBacktestImpact(w http.ResponseWriter, r *http.Request) {
	var summary helpfulness.BacktestSummary
	if err := json.NewDecoder(r.Body).Decode(&summary); err != nil {
		writeError(w, http.StatusBadRequest, "invalid backtest summary: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.helpEval.EvaluateBacktestImpact(summary))
}

type helpfulnessRequest struct {
	Summary  helpfulness.BacktestSummary `json:"summary"`
	Feedback helpfulness.Feedback        `json:"feedback"`
}

func (s *Server) handleHelpfulness(w http.ResponseWriter, r *http.Request) {
	var req helpfulnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid helpfulness request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.helpEval.EvaluateHelpfulness(req.Summary, req.Feedback))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
