// Package metaanalysis resolves algorithm and corrector parameter schemas from a
// specification document and builds argument values for meta-analysis requests.
package metaanalysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CorrectorType is the top-level key holding the correctors.
const CorrectorType = "CORRECTOR"

//go:embed default_spec.json
var defaultSpecJSON []byte

// Parameter is one entry of an algorithm's parameter schema.
// A nil Type marks a catch-all keyword parameter without a fixed default.
type Parameter struct {
	Type        *string `json:"type" yaml:"type"`
	Default     any     `json:"default" yaml:"default"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsKeywordArgs reports whether the parameter is the catch-all keyword mapping.
func (p Parameter) IsKeywordArgs() bool {
	return p.Type == nil
}

type Algorithm struct {
	Summary    string               `json:"summary" yaml:"summary"`
	Parameters map[string]Parameter `json:"parameters" yaml:"parameters"`
}

// Specification maps analysis type → algorithm name → algorithm.
type Specification map[string]map[string]Algorithm

// Default returns the built-in specification.
func Default() Specification {
	spec, err := Parse(defaultSpecJSON, ".json")
	if err != nil {
		panic(fmt.Sprintf("metaanalysis: embedded specification: %v", err))
	}
	return spec
}

// Load reads a specification file. YAML is used for .yaml/.yml, JSON otherwise.
// An empty path yields the built-in specification.
func Load(path string) (Specification, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a specification document.
func Parse(data []byte, ext string) (Specification, error) {
	var spec Specification
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse specification: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse specification: %w", err)
		}
	}
	if len(spec) == 0 {
		return nil, fmt.Errorf("specification is empty")
	}
	return spec, nil
}

// Lookup returns an algorithm of an analysis type.
func (s Specification) Lookup(analysisType, name string) (Algorithm, bool) {
	algos, ok := s[analysisType]
	if !ok {
		return Algorithm{}, false
	}
	a, ok := algos[name]
	return a, ok
}

func (s Specification) Corrector(name string) (Algorithm, bool) {
	return s.Lookup(CorrectorType, name)
}

// AnalysisTypes lists the analysis types, correctors excluded.
func (s Specification) AnalysisTypes() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		if t != CorrectorType {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// AlgorithmNames lists the algorithms of an analysis type in name order.
func (s Specification) AlgorithmNames(analysisType string) []string {
	algos := s[analysisType]
	out := make([]string, 0, len(algos))
	for name := range algos {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
