// Command codegraph-sandbox is the trusted launcher execution mode execs into: it applies
// resource limits to itself, then replaces its own process image with the configured Python
// interpreter so the limits (and the parent's context-based timeout kill) carry over to the
// traced snippet without a third process in the chain.
package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

//go:embed tracer.py.tmpl
var tracerScript string

const (
	pythonEnvVar = "CODEGRAPH_SANDBOX_PYTHON"
	defaultPython = "python3"

	maxAddressSpaceBytes = 256 * 1024 * 1024
	maxFileSizeBytes     = 10 * 1024 * 1024
)

type executionRequest struct {
	Code        string   `json:"code"`
	LineActions []string `json:"line_actions"`
	MaxSteps    int      `json:"max_steps"`
	TimeoutMS   int      `json:"timeout_ms"`
	Whitelist   []string `json:"whitelist"`
}

type executionResult struct {
	Steps       []json.RawMessage `json:"steps"`
	FinalOutput string            `json:"final_output"`
	Error       string            `json:"error,omitempty"`
	ErrorCode   string            `json:"error_code,omitempty"`
	Truncated   bool              `json:"truncated"`
}

func main() {
	if err := run(); err != nil {
		fail("internal_error", err.Error())
	}
}

func run() error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	var req executionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	if err := applyResourceLimits(req.TimeoutMS); err != nil {
		return fmt.Errorf("apply resource limits: %w", err)
	}

	payloadPath, err := writeTemp("codegraph-sandbox-payload-*.json", raw)
	if err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	defer os.Remove(payloadPath)

	scriptPath, err := writeTemp("codegraph-sandbox-tracer-*.py", []byte(tracerScript))
	if err != nil {
		return fmt.Errorf("write tracer script: %w", err)
	}
	defer os.Remove(scriptPath)

	interpreter := os.Getenv(pythonEnvVar)
	if interpreter == "" {
		interpreter = defaultPython
	}
	resolved, err := exec.LookPath(interpreter)
	if err != nil {
		return fmt.Errorf("resolve interpreter %q: %w", interpreter, err)
	}

	argv := []string{resolved, scriptPath, payloadPath}
	env := []string{"PATH=/usr/bin:/bin"}

	// execve replaces this process image; the parent's exec.CommandContext keeps tracking the
	// same PID, so its timeout-kill still reaches the running interpreter. If Exec returns, it
	// has already failed.
	if err := syscall.Exec(resolved, argv, env); err != nil {
		return fmt.Errorf("exec interpreter: %w", err)
	}
	return nil
}

// applyResourceLimits bounds this process's CPU time, address space, and output file size before
// it execs into the interpreter; rlimits are inherited across exec on Linux.
func applyResourceLimits(timeoutMS int) error {
	cpuSeconds := uint64(timeoutMS/1000) + 1
	if err := syscall.Setrlimit(syscall.RLIMIT_CPU, &syscall.Rlimit{Cur: cpuSeconds, Max: cpuSeconds}); err != nil {
		return fmt.Errorf("set RLIMIT_CPU: %w", err)
	}
	as := uint64(maxAddressSpaceBytes)
	if err := syscall.Setrlimit(syscall.RLIMIT_AS, &syscall.Rlimit{Cur: as, Max: as}); err != nil {
		return fmt.Errorf("set RLIMIT_AS: %w", err)
	}
	fsize := uint64(maxFileSizeBytes)
	if err := syscall.Setrlimit(syscall.RLIMIT_FSIZE, &syscall.Rlimit{Cur: fsize, Max: fsize}); err != nil {
		return fmt.Errorf("set RLIMIT_FSIZE: %w", err)
	}
	return nil
}

func writeTemp(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// fail prints a well-formed ExecutionResult to stdout so the parent can still parse a result even
// when the launcher itself could not get the interpreter running, then exits non-zero.
func fail(code, message string) {
	result := executionResult{Error: message, ErrorCode: code, Truncated: true}
	enc, _ := json.Marshal(result)
	os.Stdout.Write(enc)
	os.Exit(1)
}
