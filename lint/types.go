package lint

import (
	"fmt"
	"slices"
	"strings"
)

// Ruleset is a qualified rule found in the inspected stylesheet.
type Ruleset struct {
	Selectors    []string `yaml:"selectors"`
	Declarations int      `yaml:"declarations"`
	// AtRule is the name of the enclosing at-rule, empty at top level.
	AtRule string `yaml:"at_rule,omitempty"`
}

// AtRule is an at-rule with or without a block.
type AtRule struct {
	Name    string `yaml:"name"` // including '@'
	Prelude string `yaml:"prelude,omitempty"`
	Block   bool   `yaml:"block"`
}

// Report describes the structure of a generated stylesheet.
type Report struct {
	Rulesets         []Ruleset `yaml:"rulesets,omitempty"`
	AtRules          []AtRule  `yaml:"at_rules,omitempty"`
	Imports          []string  `yaml:"imports,omitempty"`
	CustomProperties []string  `yaml:"custom_properties,omitempty"` // declared, in order of appearance
	VarRefs          []string  `yaml:"var_refs,omitempty"`          // referenced through var(), deduplicated
	Warnings         []string  `yaml:"warnings,omitempty"`
}

// Declares reports whether the stylesheet declares custom property name.
func (r *Report) Declares(name string) bool {
	return slices.Contains(r.CustomProperties, name)
}

// References reports whether the stylesheet references custom property name.
func (r *Report) References(name string) bool {
	return slices.Contains(r.VarRefs, name)
}

// Selectors returns selectors of all rulesets in order of appearance.
func (r *Report) Selectors() []string {
	var out []string
	for _, rs := range r.Rulesets {
		out = append(out, rs.Selectors...)
	}
	return out
}

// Summary is a short human readable description of the report.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rulesets: %d, at-rules: %d, custom properties: %d, var references: %d",
		len(r.Rulesets), len(r.AtRules), len(r.CustomProperties), len(r.VarRefs))
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, ", warnings: %d", len(r.Warnings))
	}
	return sb.String()
}
