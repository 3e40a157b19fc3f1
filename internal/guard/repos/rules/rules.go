// Package rules loads ordered signature rule files for the link detector.
// It supports YAML, JSON, and TOML files sharing one schema: a top-level
// "rules" list whose order defines match precedence.
package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/linkfence/linkfence/internal/guard/domain"
)

// Load reads one rule file, preserving the written order of the rules since
// the first matching rule wins. An empty rules list is legal and means no
// link is ever matched.
func Load(path string) ([]domain.SignatureRule, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return nil, fmt.Errorf("unsupported rule file type %q in %s", ext, path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load rule file %s: %w", path, err)
	}

	var raw []domain.SignatureRule
	if err := k.Unmarshal("rules", &raw); err != nil {
		return nil, fmt.Errorf("failed to decode rule file %s: %w", path, err)
	}

	// Rebuild through the constructor so patterns and labels are trimmed
	// and every rule is validated.
	rules := make([]domain.SignatureRule, 0, len(raw))
	for i, r := range raw {
		rule, err := domain.NewSignatureRule(r.Pattern, r.Confidence, r.Label)
		if err != nil {
			return nil, fmt.Errorf("invalid rule %d in %s: %w", i, path, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
