package enrichment

import (
	"encoding/json"
	"path"
	"strings"
)

// TSConfig holds the subset of tsconfig.json's compilerOptions this resolver needs:
// baseUrl and path aliases. Aliases are tried after relative-path resolution, as just
// another absolute resolution strategy.
type TSConfig struct {
	BaseURL string
	Paths   map[string][]string
}

// ParseTSConfig reads compilerOptions.baseUrl/paths out of a tsconfig.json file's content.
func ParseTSConfig(content []byte) (*TSConfig, error) {
	var raw struct {
		CompilerOptions struct {
			BaseURL string              `json:"baseUrl"`
			Paths   map[string][]string `json:"paths"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	return &TSConfig{BaseURL: raw.CompilerOptions.BaseURL, Paths: raw.CompilerOptions.Paths}, nil
}

// Resolve maps an import specifier through the first matching path alias, treating a trailing
// "*" in both the pattern and its target as a wildcard prefix/suffix pair. Returns false when no
// alias pattern matches, or when tsconfig itself is nil (no tsconfig.json was found).
func (t *TSConfig) Resolve(module string) (string, bool) {
	if t == nil {
		return "", false
	}
	for pattern, targets := range t.Paths {
		if len(targets) == 0 {
			continue
		}
		target := targets[0]
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if !strings.HasPrefix(module, prefix) {
				continue
			}
			suffix := strings.TrimPrefix(module, prefix)
			return path.Join(t.BaseURL, strings.TrimSuffix(target, "*")+suffix), true
		}
		if pattern == module {
			return path.Join(t.BaseURL, target), true
		}
	}
	return "", false
}
