package analyzer

import (
	"context"

	"github.com/codegraph/graphrag/internal/config"
	apperrors "github.com/codegraph/graphrag/internal/errors"
	"github.com/codegraph/graphrag/internal/logging"
)

// Analyzer gates and dispatches graph-mode and execution-mode analysis requests against the
// configured policy (max code length, execution enablement, environment restrictions).
type Analyzer struct {
	cfg    *config.AnalyzerConfig
	env    string
	runner *Runner
	logger *logging.Logger
}

func New(cfg *config.AnalyzerConfig, environment string, runner *Runner, logger *logging.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, env: environment, runner: runner, logger: logger}
}

// AnalyzeGraph validates code against the length policy and runs graph mode. Graph mode carries
// no execution risk, so it has no enablement gate beyond the shared length check.
func (a *Analyzer) AnalyzeGraph(code string) (*GraphResult, error) {
	if err := a.checkLength(code); err != nil {
		return nil, err
	}
	return AnalyzeGraph(code)
}

// AnalyzeExecution validates code and the execution-mode policy (enabled, allowed in this
// environment or explicitly overridden), precomputes line actions, clamps max_steps/timeout to
// their configured caps, and runs the snippet through the sandbox.
func (a *Analyzer) AnalyzeExecution(ctx context.Context, code string, maxSteps, timeoutMS int, allowOverride bool) (*ExecutionResult, error) {
	if err := a.checkLength(code); err != nil {
		return nil, err
	}
	if !a.cfg.ExecutionEnabled {
		return nil, apperrors.SandboxBlocked("execution mode is disabled by server policy")
	}
	if a.env == "production" && !a.cfg.ExecutionAllowInProd && !allowOverride {
		return nil, apperrors.SandboxBlocked("execution mode is not allowed in production without an explicit override")
	}

	lineActions, err := classifyLines(code)
	if err != nil {
		return nil, apperrors.InvalidRequestf("could not parse snippet for line classification: %v", err)
	}

	if maxSteps <= 0 {
		maxSteps = a.cfg.DefaultMaxSteps
	}
	if maxSteps > a.cfg.MaxStepsCap {
		maxSteps = a.cfg.MaxStepsCap
	}
	if timeoutMS <= 0 {
		timeoutMS = a.cfg.DefaultTimeoutMS
	}
	if timeoutMS > a.cfg.MaxTimeoutMS {
		timeoutMS = a.cfg.MaxTimeoutMS
	}

	req := ExecutionRequest{
		Code: code, LineActions: lineActions, MaxSteps: maxSteps,
		TimeoutMS: timeoutMS, Whitelist: a.cfg.ImportWhitelist,
	}
	return a.runner.Execute(ctx, req)
}

func (a *Analyzer) checkLength(code string) error {
	if len(code) > a.cfg.MaxCodeChars {
		return apperrors.InvalidRequestf("code exceeds max length of %d characters", a.cfg.MaxCodeChars)
	}
	return nil
}
