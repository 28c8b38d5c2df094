// Package models defines the data types shared across the ingestion pipeline,
// the query engine, and the sandboxed analyzer.
package models

import "time"

// EntityKind is the closed set of code-entity categories the parser emits.
type EntityKind string

const (
	EntityFile     EntityKind = "file"
	EntityFunction EntityKind = "function"
	EntityClass    EntityKind = "class"
	EntityVariable EntityKind = "variable"
	EntityImport   EntityKind = "import"
)

// Language is the closed set of source languages the parser supports.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
)

// RelationshipKind is the closed set of directed edge kinds between entities.
type RelationshipKind string

const (
	RelDefines    RelationshipKind = "DEFINES"
	RelCalls      RelationshipKind = "CALLS"
	RelImports    RelationshipKind = "IMPORTS"
	RelExtends    RelationshipKind = "EXTENDS"
	RelImplements RelationshipKind = "IMPLEMENTS"
	RelUses       RelationshipKind = "USES"
	RelTests      RelationshipKind = "TESTS"
)

// Entity is a first-class code object: a file, function, class, variable, or import.
//
// ID is a deterministic string derived from (ProjectID, Kind, sanitized Name, StartLine,
// stable_hash(FilePath)); see BuildEntityID. Two parses over identical input always produce
// the same ID, which lets re-ingestion reattach entities instead of duplicating them.
type Entity struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Kind      EntityKind     `json:"kind"`
	Name      string         `json:"name"`
	FilePath  string         `json:"file_path"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
	Language  Language       `json:"language"`
	Signature string         `json:"signature,omitempty"`
	Docstring string         `json:"docstring,omitempty"`
	Body      string         `json:"body,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MaxBodyChars bounds the Body field; the parser truncates beyond this length.
const MaxBodyChars = 500

// Relationship is a directed, typed edge between two entities. Target may reference an
// ExternalModule id of the form "external:<module>" for IMPORTS whose target is not internal.
type Relationship struct {
	SourceID string           `json:"source_id"`
	TargetID string           `json:"target_id"`
	Kind     RelationshipKind `json:"kind"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// ExternalModulePrefix marks a Relationship.TargetID as a synthetic node outside the project.
const ExternalModulePrefix = "external:"

// ProjectStatus is the closed set of project lifecycle states.
type ProjectStatus string

const (
	ProjectActive  ProjectStatus = "active"
	ProjectDeleted ProjectStatus = "deleted"
)

// Project is the top-level container that owns a set of ingested entities and relationships.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	OwnerID     string        `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	FileCount   int           `json:"file_count"`
	EntityCount int           `json:"entity_count"`
	Status      ProjectStatus `json:"status"`
}

// SessionStatus is the closed set of ingestion-session lifecycle states. Transitions are
// monotonic: pending -> processing -> {completed, failed}. A session is never resurrected.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// Session is the progress-bearing record of one ingestion job. It is the only cross-process
// state the core owns and is persisted as one JSON file per session_id.
type Session struct {
	SessionID         string         `json:"session_id"`
	ProjectID         string         `json:"project_id"`
	Status            SessionStatus  `json:"status"`
	Progress          float64        `json:"progress"`
	FilesProcessed    int            `json:"files_processed"`
	TotalFiles        int            `json:"total_files"`
	EntitiesExtracted int            `json:"entities_extracted"`
	Errors            []string       `json:"errors"`
	Statistics        map[string]any `json:"statistics,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// SourceFile is a single (path, content) pair submitted for ingestion.
type SourceFile struct {
	Path    string
	Content string
}

// ParseResult is the output of parsing a single file.
type ParseResult struct {
	FilePath      string
	Entities      []*Entity
	Relationships []*Relationship
	Errors        []string
	ParseDuration time.Duration
}

// QueryResult is the typed envelope structural QueryEngine operations return.
type QueryResult struct {
	Entities    []*Entity     `json:"entities"`
	Count       int           `json:"count"`
	Duration    time.Duration `json:"duration"`
	Fingerprint string        `json:"fingerprint"`
}

// ImpactNode annotates a descendant reached during impact analysis.
type ImpactNode struct {
	Entity *Entity  `json:"entity"`
	Depth  int      `json:"depth"`
	Path   []string `json:"path"`
}

// ImpactResult is the transitive CALLS closure of one entity, bounded by max_depth.
type ImpactResult struct {
	Root          string       `json:"root"`
	Dependencies  []ImpactNode `json:"dependencies"`
	TotalAffected int          `json:"total_affected"`
	HasCycles     bool         `json:"has_cycles"`
	CyclePaths    [][]string   `json:"cycle_paths"`
	Truncated     bool         `json:"truncated"`
}

// ClassHierarchy describes a class's ancestors and descendants via EXTENDS/IMPLEMENTS.
type ClassHierarchy struct {
	Root     *Entity   `json:"root"`
	Parents  []*Entity `json:"parents"`
	Children []*Entity `json:"children"`
}

// ScoredEntity is an entity ranked by the hybrid retrieval fusion step.
type ScoredEntity struct {
	Entity        *Entity `json:"entity"`
	SemanticScore float64 `json:"semantic_score,omitempty"`
	GraphDistance int     `json:"graph_distance,omitempty"`
	Relevance     float64 `json:"relevance"`
	Source        string  `json:"source"` // "semantic", "graph", or "manual"
}

// ContextResult is the output of ContextAssembler.RetrieveContext.
type ContextResult struct {
	Context     string   `json:"context"`
	IncludedIDs []string `json:"included_ids"`
	ExcludedIDs []string `json:"excluded_ids"`
	TotalTokens int      `json:"total_tokens"`
	TokenBudget int       `json:"token_budget"`
}

// ContextValidation is the output of ContextAssembler.RetrieveContext's validate-only mode: it
// reports whether a would-be context fits the budget without assembling it.
type ContextValidation struct {
	Valid         bool   `json:"valid"`
	TotalTokens   int    `json:"total_tokens"`
	TokenBudget   int    `json:"token_budget"`
	EntitiesCount int    `json:"entities_count"`
	Message       string `json:"message"`
}

// GraphFilters parameterizes QueryEngine.GetProjectGraph / visualization projection.
type GraphFilters struct {
	ViewMode        string   `json:"view_mode"` // "file" or "symbol"
	EntityTypes     []string `json:"entity_types,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	FilePatterns    []string `json:"file_patterns,omitempty"`
	IncludeExternal bool     `json:"include_external"`
	IncludeIsolated bool     `json:"include_isolated"`
	MaxNodes        int      `json:"max_nodes"`
	MaxEdges        int      `json:"max_edges"`
}

// GraphNode is a node in a visualization projection.
type GraphNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// GraphEdge is an edge in a visualization projection.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// GraphView is the response of a visualization projection query.
type GraphView struct {
	Nodes      []GraphNode    `json:"nodes"`
	Edges      []GraphEdge    `json:"edges"`
	Stats      map[string]int `json:"stats"`
	Coverage   Coverage       `json:"coverage"`
	Truncated  bool           `json:"truncated"`
}

// Coverage reports total in-project counts measured before any truncation.
type Coverage struct {
	EntitiesInProject      int `json:"entities_in_project"`
	RelationshipsInProject int `json:"relationships_in_project"`
}
