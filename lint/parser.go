// Package lint inspects generated stylesheets with a standards conforming
// CSS parser. It is used to sanity check compiler output before it is
// written out.
package lint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// maxWarnings stops inspection of hopelessly broken input.
const maxWarnings = 100

// Parser walks CSS grammar and reports stylesheet structure.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS inspector.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-lint")}
}

type inspection struct {
	rpt     *Report
	refs    map[string]struct{}
	blocks  []string
	pending []string
	current int
}

// Inspect parses CSS text into a Report.
// The optional source parameter identifies what's being inspected (for debug logging).
func (p *Parser) Inspect(data []byte, source ...string) *Report {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Inspecting CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	ins := &inspection{
		rpt:     &Report{},
		refs:    make(map[string]struct{}),
		current: -1,
	}
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == nil || errors.Is(err, io.EOF) {
				return ins.finish(p.log)
			}
			p.log.Debug("CSS parse error", zap.Error(err))
			ins.warn("parse error: %v", err)
			if len(ins.rpt.Warnings) >= maxWarnings {
				return ins.finish(p.log)
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			name := string(data)
			values := parser.Values()
			if name == "@import" {
				if url := extractImportURL(values); url != "" {
					ins.rpt.Imports = append(ins.rpt.Imports, url)
				}
			}
			ins.rpt.AtRules = append(ins.rpt.AtRules, AtRule{Name: name, Prelude: joinTokens(values)})

		case css.BeginAtRuleGrammar:
			name := string(data)
			ins.rpt.AtRules = append(ins.rpt.AtRules, AtRule{Name: name, Prelude: joinTokens(parser.Values()), Block: true})
			ins.blocks = append(ins.blocks, name)

		case css.EndAtRuleGrammar:
			if len(ins.blocks) > 0 {
				ins.blocks = ins.blocks[:len(ins.blocks)-1]
			}

		case css.QualifiedRuleGrammar:
			// one of several comma separated selectors, the last one comes
			// with BeginRulesetGrammar
			ins.pending = append(ins.pending, parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(ins.pending, parseSelectors(data, parser.Values())...)
			ins.pending = nil
			rs := Ruleset{Selectors: selectors}
			if len(ins.blocks) > 0 {
				rs.AtRule = ins.blocks[len(ins.blocks)-1]
			}
			ins.rpt.Rulesets = append(ins.rpt.Rulesets, rs)
			ins.current = len(ins.rpt.Rulesets) - 1

		case css.EndRulesetGrammar:
			if ins.current >= 0 {
				if rs := ins.rpt.Rulesets[ins.current]; rs.Declarations == 0 {
					ins.warn("empty ruleset: %s", strings.Join(rs.Selectors, ", "))
				}
			}
			ins.current = -1

		case css.DeclarationGrammar:
			ins.declaration()
			ins.collectRefs(parser.Values())

		case css.CustomPropertyGrammar:
			ins.declaration()
			ins.rpt.CustomProperties = append(ins.rpt.CustomProperties, string(data))
			ins.collectRefs(parser.Values())
		}
	}
}

func (ins *inspection) finish(log *zap.Logger) *Report {
	if len(ins.blocks) > 0 {
		ins.warn("unterminated at-rule: %s", ins.blocks[len(ins.blocks)-1])
	}
	log.Debug("CSS inspected",
		zap.Int("rulesets", len(ins.rpt.Rulesets)),
		zap.Int("at-rules", len(ins.rpt.AtRules)),
		zap.Int("warnings", len(ins.rpt.Warnings)))
	return ins.rpt
}

func (ins *inspection) warn(format string, args ...any) {
	ins.rpt.Warnings = append(ins.rpt.Warnings, fmt.Sprintf(format, args...))
}

func (ins *inspection) declaration() {
	if ins.current >= 0 {
		ins.rpt.Rulesets[ins.current].Declarations++
	}
}

// collectRefs records custom properties referenced with var() in a
// declaration value.
func (ins *inspection) collectRefs(tokens []css.Token) {
	inVar := false
	for _, t := range tokens {
		switch {
		case t.TokenType == css.CustomPropertyValueToken:
			// custom property values come as a single raw token
			ins.collectRefs(lexTokens(t.Data))
		case t.TokenType == css.FunctionToken:
			inVar = strings.EqualFold(string(t.Data), "var(")
		case inVar && t.TokenType != css.WhitespaceToken:
			if name := string(t.Data); strings.HasPrefix(name, "--") {
				if _, ok := ins.refs[name]; !ok {
					ins.refs[name] = struct{}{}
					ins.rpt.VarRefs = append(ins.rpt.VarRefs, name)
				}
			}
			inVar = false
		}
	}
}

func lexTokens(data []byte) []css.Token {
	var tokens []css.Token
	l := css.NewLexer(parse.NewInputBytes(data))
	for {
		tt, d := l.Next()
		if tt == css.ErrorToken {
			return tokens
		}
		tokens = append(tokens, css.Token{TokenType: tt, Data: bytes.Clone(d)})
	}
}

// joinTokens builds raw text from tokens collapsing whitespace.
func joinTokens(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseSelectors extracts selector strings from token data.
func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
