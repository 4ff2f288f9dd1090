package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eunjuhyun88/maxidoge-intel/internal/audit"
	"github.com/eunjuhyun88/maxidoge-intel/internal/decision"
	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/helpfulness"
	intelhttp "github.com/eunjuhyun88/maxidoge-intel/internal/interfaces/http"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
	"github.com/eunjuhyun88/maxidoge-intel/internal/telemetry"
)

type app struct {
	policyStore *policy.Store
	auditLog    *audit.Log
	metrics     *telemetry.Metrics
	qualityGate *gate.QualityGate
	engine      *decision.Engine
	helpEval    *helpfulness.Evaluator
}

func newApp(policyFile string) (*app, error) {
	store := policy.NewStore()
	if policyFile != "" {
		patch, err := policy.LoadPatchFile(policyFile)
		if err != nil {
			return nil, err
		}
		effective := store.Patch(patch)
		log.Info().Str("file", policyFile).Str("policy_version", effective.PolicyVersion).Msg("policy override loaded")
	}

	auditLog := audit.NewLog()
	metrics := telemetry.NewMetrics()
	return &app{
		policyStore: store,
		auditLog:    auditLog,
		metrics:     metrics,
		qualityGate: gate.NewQualityGate(store, auditLog, metrics),
		engine:      decision.NewEngine(store, metrics),
		helpEval:    helpfulness.NewEvaluator(store),
	}, nil
}

// Execute runs the intel CLI.
func Execute(ctx context.Context) error {
	var (
		policyFile string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "maxidoge-intel",
		Short: "Evidence quality gate and decision fusion engine",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&policyFile, "policy", "", "YAML policy override file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd(ctx, &policyFile))
	root.AddCommand(decideCmd(&policyFile))
	root.AddCommand(gateCmd(&policyFile))
	root.AddCommand(policyCmd(&policyFile))

	return root.ExecuteContext(ctx)
}

func serveCmd(ctx context.Context, policyFile *string) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the intel HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(*policyFile)
			if err != nil {
				return err
			}
			config := intelhttp.DefaultServerConfig()
			if host != "" {
				config.Host = host
			}
			if port > 0 {
				config.Port = port
			}
			server := intelhttp.NewServer(config, a.policyStore, a.qualityGate, a.engine, a.auditLog, a.helpEval, a.metrics)
			return server.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "bind address (default 127.0.0.1)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default 8087)")
	return cmd
}

func decideCmd(policyFile *string) *cobra.Command {
	var evidenceFile string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Fuse an evidence file into one trading decision",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(*policyFile)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(evidenceFile)
			if err != nil {
				return fmt.Errorf("failed to read evidence file %s: %w", evidenceFile, err)
			}
			var req struct {
				Evidence []decision.Evidence `json:"evidence"`
				Context  decision.Context    `json:"context"`
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse evidence file %s: %w", evidenceFile, err)
			}

			out := a.engine.ComputeDecision(req.Evidence, req.Context)
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&evidenceFile, "evidence", "", "JSON file with evidence list and context")
	_ = cmd.MarkFlagRequired("evidence")
	return cmd
}

func gateCmd(policyFile *string) *cobra.Command {
	var (
		source   string
		features gate.FeatureInput
		risk     string
	)
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Score one evidence item through the quality gate",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(*policyFile)
			if err != nil {
				return err
			}
			features.ManipulationRisk = gate.ManipulationRisk(risk)
			result := a.qualityGate.EvaluateFromFeatures(features, source)
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "evidence source label")
	cmd.Flags().Float64Var(&features.ActionTypeCount, "actions", 0, "number of concrete action types")
	cmd.Flags().Float64Var(&features.ClarityScore, "clarity", 0, "clarity score (0-40)")
	cmd.Flags().Float64Var(&features.DelayMinutes, "delay", 0, "signal delay in minutes")
	cmd.Flags().Float64Var(&features.HorizonMinutes, "horizon", 0, "timeliness horizon in minutes (0 = default)")
	cmd.Flags().Float64Var(&features.SourceReliability, "reliability", 50, "base source reliability (0-100)")
	cmd.Flags().Float64Var(&features.FailureRatePct, "failure-rate", 0, "source failure rate percent")
	cmd.Flags().StringVar(&risk, "risk", "medium", "manipulation risk: low|medium|high")
	cmd.Flags().Float64Var(&features.PairKeywordMatchPct, "keyword-match", 0, "pair keyword match percent")
	cmd.Flags().BoolVar(&features.TimeframeAligned, "timeframe-aligned", false, "signal timeframe matches request")
	cmd.Flags().Float64Var(&features.BacktestWinRateLiftPct, "win-rate-lift", 0, "backtest win-rate lift percent")
	cmd.Flags().Float64Var(&features.FeedbackPositivePct, "feedback-positive", 0, "positive feedback percent")
	cmd.Flags().Float64Var(&features.ApplyRatePct, "apply-rate", 0, "signal apply rate percent")
	cmd.Flags().Float64Var(&features.PnlLiftPct, "pnl-lift", 0, "pnl lift percent")
	return cmd
}

func policyCmd(policyFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the effective policy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective policy as YAML",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(*policyFile)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(a.policyStore.Get())
			if err != nil {
				return fmt.Errorf("failed to render policy: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	})
	return cmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
