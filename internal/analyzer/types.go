// Package analyzer implements the sandboxed code analysis contract: an AST graph mode with no
// execution, and an execution mode that traces a snippet in a resource-limited child process.
package analyzer

// DefNode is one function, class, method, or the synthetic module root discovered by graph
// mode's DefinitionCollector pass.
type DefNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "module", "class", "func", "method"
	Name string `json:"name"`
	Line int    `json:"line"`
}

// DefEdge is a CALLS, IMPORTS, or EXTENDS edge discovered by graph mode's EdgeCollector pass.
type DefEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"` // "CALLS", "IMPORTS", "EXTENDS"
}

// GraphResult is the output of graph mode: sorted, de-duplicated nodes and edges.
type GraphResult struct {
	Nodes []DefNode `json:"nodes"`
	Edges []DefEdge `json:"edges"`
}

// LineAction classifies a source line for the tracer, overridden by call/return events when
// they occur on that line.
type LineAction string

const (
	ActionExecute   LineAction = "execute"
	ActionCall      LineAction = "call"
	ActionReturn    LineAction = "return"
	ActionAssign    LineAction = "assign"
	ActionCondition LineAction = "condition"
	ActionLoop      LineAction = "loop"
)

// TraceStep is one execution event emitted by execution mode's tracer.
type TraceStep struct {
	Line        int            `json:"line"`
	Action      LineAction     `json:"action"`
	Description string         `json:"description"`
	Variables   map[string]any `json:"variables,omitempty"`
	CallStack   []string       `json:"call_stack,omitempty"`
	Output      string         `json:"output,omitempty"`
}

// ExecutionErrorCode classifies why an execution-mode run did not complete normally.
type ExecutionErrorCode string

const (
	ErrorNone        ExecutionErrorCode = ""
	ErrorTimeout     ExecutionErrorCode = "timeout"
	ErrorRuntime     ExecutionErrorCode = "runtime_error"
	ErrorImportBlock ExecutionErrorCode = "import_blocked"
	ErrorStepLimit   ExecutionErrorCode = "step_limit"
	ErrorInternal    ExecutionErrorCode = "internal_error"
)

// ExecutionRequest is the stdin payload delivered to the sandbox child process.
type ExecutionRequest struct {
	Code        string   `json:"code"`
	LineActions []string `json:"line_actions"`
	MaxSteps    int      `json:"max_steps"`
	TimeoutMS   int      `json:"timeout_ms"`
	Whitelist   []string `json:"whitelist"`
}

// ExecutionResult is the stdout payload produced by the sandbox child process.
type ExecutionResult struct {
	Steps       []TraceStep        `json:"steps"`
	FinalOutput string             `json:"final_output"`
	Error       string             `json:"error,omitempty"`
	ErrorCode   ExecutionErrorCode `json:"error_code,omitempty"`
	Truncated   bool               `json:"truncated"`
}

// AnalysisMode selects which of graph mode or execution mode a request runs.
type AnalysisMode string

const (
	ModeGraph     AnalysisMode = "graph"
	ModeExecution AnalysisMode = "execution"
)
