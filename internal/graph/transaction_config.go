package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// TransactionConfig carries a timeout and metadata for one kind of operation. Neo4j logs
// transaction metadata in its query log, which is what lets slow operations be categorized
// after the fact without re-running them with tracing on.
type TransactionConfig struct {
	Timeout  time.Duration
	Metadata map[string]any
}

// DefaultTransactionConfigs returns the recommended config per operation this store performs.
func DefaultTransactionConfigs() map[string]TransactionConfig {
	return map[string]TransactionConfig{
		"create_entities": {
			Timeout:  2 * time.Minute,
			Metadata: map[string]any{"operation": "create_entities", "type": "write"},
		},
		"create_relationships": {
			Timeout:  2 * time.Minute,
			Metadata: map[string]any{"operation": "create_relationships", "type": "write"},
		},
		"impact_analysis": {
			Timeout:  30 * time.Second,
			Metadata: map[string]any{"operation": "impact_analysis", "type": "read"},
		},
		"project_graph": {
			Timeout:  30 * time.Second,
			Metadata: map[string]any{"operation": "project_graph", "type": "read"},
		},
		"structural_query": {
			Timeout:  15 * time.Second,
			Metadata: map[string]any{"operation": "structural_query", "type": "read"},
		},
		"index_setup": {
			Timeout:  5 * time.Minute,
			Metadata: map[string]any{"operation": "index_setup", "type": "schema"},
		},
		"project_lifecycle": {
			Timeout:  2 * time.Minute,
			Metadata: map[string]any{"operation": "project_lifecycle", "type": "write"},
		},
	}
}

// AsNeo4jConfig converts to the functional options neo4j.ExecuteQuery/ExecuteWrite accept.
func (tc TransactionConfig) AsNeo4jConfig() []func(*neo4j.TransactionConfig) {
	var configs []func(*neo4j.TransactionConfig)
	if tc.Timeout > 0 {
		configs = append(configs, neo4j.WithTxTimeout(tc.Timeout))
	}
	if len(tc.Metadata) > 0 {
		configs = append(configs, neo4j.WithTxMetadata(tc.Metadata))
	}
	return configs
}

// GetConfigForOperation returns the config for operation, or a generic 60s fallback.
func GetConfigForOperation(operation string) TransactionConfig {
	if config, ok := DefaultTransactionConfigs()[operation]; ok {
		return config
	}
	return TransactionConfig{Timeout: 60 * time.Second, Metadata: map[string]any{"operation": operation}}
}
