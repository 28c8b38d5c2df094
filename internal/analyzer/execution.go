package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	apperrors "github.com/codegraph/graphrag/internal/errors"
)

// sandboxEnvVar names the environment variable the codegraph-sandbox launcher reads the
// configured Python interpreter path from, so the parent never has to pass interpreter choice
// on the command line (which would otherwise show up in process listings).
const sandboxEnvVar = "CODEGRAPH_SANDBOX_PYTHON"

// Runner invokes the codegraph-sandbox child process to execute a snippet under resource
// limits: construct the command, set an explicit environment, capture stdout and stderr
// separately, and interpret the exit error.
type Runner struct {
	// SandboxPath is the path to the built codegraph-sandbox binary.
	SandboxPath string
	// PythonInterpreter is the interpreter the sandbox launcher execs into after applying
	// resource limits.
	PythonInterpreter string
}

func NewRunner(sandboxPath, pythonInterpreter string) *Runner {
	return &Runner{SandboxPath: sandboxPath, PythonInterpreter: pythonInterpreter}
}

// Execute runs req in the sandbox child process, enforcing timeoutMS as a hard wall-clock
// deadline on top of whatever CPU limit the child applies to itself. On deadline expiration the
// child is killed and a truncated result with error_code=timeout is returned rather than an
// error, since a timeout is an expected, reportable outcome of execution mode, not a failure of
// the analyzer itself.
func (r *Runner) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.InternalErrorf("encode sandbox request: %v", err)
	}

	cmd := exec.CommandContext(runCtx, r.SandboxPath)
	cmd.Env = []string{sandboxEnvVar + "=" + r.PythonInterpreter}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return &ExecutionResult{
			Error: "execution exceeded timeout", ErrorCode: ErrorTimeout, Truncated: true,
		}, nil
	}

	if runErr != nil {
		// The sandbox launcher always writes a JSON result even on an internal failure; only
		// treat this as a hard error if stdout didn't parse as one.
		var result ExecutionResult
		if jsonErr := json.Unmarshal(stdout.Bytes(), &result); jsonErr == nil {
			return &result, nil
		}
		return nil, apperrors.InternalErrorf("sandbox process failed: %v (stderr: %s)", runErr, stderr.String())
	}

	var result ExecutionResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, apperrors.InternalErrorf("decode sandbox result: %v (stdout: %s)", err, stdout.String())
	}
	return &result, nil
}

// sandboxBinaryExists is a small startup check so a misconfigured deployment fails fast rather
// than on the first execution-mode request.
func sandboxBinaryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("codegraph-sandbox binary not found at %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not the codegraph-sandbox binary", path)
	}
	return nil
}
