// Package yaml loads extraction configuration files.
package yaml

import (
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/pagestem"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	ContentField   string      `yaml:"content_field"`
	RemainderField string      `yaml:"remainder_field"`
	Filter         bool        `yaml:"filter"`
	Rules          yaml.Node   `yaml:"rules"`
	Computed       yaml.Node   `yaml:"computed"`
	Link           *linkConfig `yaml:"link"`
	Auto           autoConfig  `yaml:"auto"`
	Markdown       []string    `yaml:"markdown"`
}

type linkConfig struct {
	Repeat          string `yaml:"repeat"`
	URL             string `yaml:"url"`
	URLPrefix       string `yaml:"url_prefix"`
	GenerateMissing bool   `yaml:"generate_missing"`
	Filter          bool   `yaml:"filter"`
}

type autoConfig struct {
	Disable                 bool   `yaml:"disable"`
	Fallback                string `yaml:"fallback"`
	pagestem.ClusterOptions `yaml:",inline"`
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (*pagestem.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses configuration YAML. Settings that are not present
// keep the values of pagestem.DefaultConfig. Rules are given either as
// rule text or as a mapping from rule key to value, whose order is kept.
func ParseConfig(data []byte) (*pagestem.Config, error) {
	def := pagestem.DefaultConfig()
	fc := fileConfig{
		ContentField:   def.ContentField,
		RemainderField: def.RemainderField,
		Auto:           autoConfig{ClusterOptions: def.Auto.Options},
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "failed to parse config file: %v", err)
	}

	groups, err := parseRules(&fc.Rules)
	if err != nil {
		return nil, err
	}
	computed, err := parseComputed(&fc.Computed)
	if err != nil {
		return nil, err
	}

	cfg := &pagestem.Config{
		ContentField:   fc.ContentField,
		RemainderField: fc.RemainderField,
		Filter:         fc.Filter,
		Groups:         groups,
		Computed:       computed,
		Auto: pagestem.AutoConfig{
			Disable:  fc.Auto.Disable,
			Options:  fc.Auto.ClusterOptions,
			Fallback: fc.Auto.Fallback,
		},
		Markdown: fc.Markdown,
	}
	if fc.Link != nil {
		cfg.Link = &pagestem.LinkConfig{
			Repeat:          fc.Link.Repeat,
			URL:             fc.Link.URL,
			URLPrefix:       fc.Link.URLPrefix,
			GenerateMissing: fc.Link.GenerateMissing,
			Filter:          fc.Link.Filter,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseRules(n *yaml.Node) ([]*pagestem.RuleGroup, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return pagestem.ParseRules(n.Value)
	case yaml.MappingNode:
		var entries []pagestem.RuleEntry
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := scalarOrList(n.Content[i+1])
			if err != nil {
				return nil, pagestem.Errorf(pagestem.EINVALID, "rule %q: %s", n.Content[i].Value, pagestem.ErrorMessage(err))
			}
			entries = append(entries, pagestem.RuleEntry{Key: n.Content[i].Value, Value: value})
		}
		return pagestem.BuildRuleGroups(entries)
	}
	return nil, pagestem.Errorf(pagestem.EINVALID, "line %d: rules must be text or a mapping", n.Line)
}

// scalarOrList accepts a rule value written as a string or as a list of
// lines.
func scalarOrList(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		lines := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return "", pagestem.Errorf(pagestem.EINVALID, "line %d: expected a string", c.Line)
			}
			lines = append(lines, c.Value)
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", pagestem.Errorf(pagestem.EINVALID, "line %d: expected a string or a list", n.Line)
}

func parseComputed(n *yaml.Node) ([]pagestem.ComputedRule, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		var rules []pagestem.ComputedRule
		for i := 0; i+1 < len(n.Content); i += 2 {
			v := n.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, pagestem.Errorf(pagestem.EINVALID, "line %d: computed rule %q must be a string", v.Line, n.Content[i].Value)
			}
			rules = append(rules, pagestem.ComputedRule{Field: n.Content[i].Value, Expr: v.Value})
		}
		return rules, nil
	}
	return nil, pagestem.Errorf(pagestem.EINVALID, "line %d: computed must be a mapping", n.Line)
}
