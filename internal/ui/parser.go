package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ParseCSS parses an overlay stylesheet. Only .class and #id selectors are
// kept (comma lists allowed); rules with other selectors and all at-rules are
// skipped. Later rules override earlier ones for the same property.
func ParseCSS(content string) (*Stylesheet, error) {
	p := css.NewParser(parse.NewInputString(content), false)
	sheet := &Stylesheet{}
	var selectors []string
	var open []int
	atDepth := 0
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != io.EOF {
				return nil, fmt.Errorf("ui: parse css: %w", err)
			}
			return sheet, nil
		case css.BeginAtRuleGrammar:
			atDepth++
		case css.EndAtRuleGrammar:
			if atDepth > 0 {
				atDepth--
			}
		case css.QualifiedRuleGrammar:
			selectors = append(selectors, joinTokens(p.Values()))
		case css.BeginRulesetGrammar:
			selectors = append(selectors, joinTokens(p.Values()))
			open = open[:0]
			for _, sel := range selectors {
				if atDepth > 0 || !simpleSelector(sel) {
					continue
				}
				sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Props: map[string]string{}})
				open = append(open, len(sheet.Rules)-1)
			}
			selectors = selectors[:0]
		case css.DeclarationGrammar:
			key := strings.ToLower(string(data))
			val := joinTokens(p.Values())
			for _, i := range open {
				sheet.Rules[i].Props[key] = val
			}
		case css.EndRulesetGrammar:
			open = open[:0]
		}
	}
}

func joinTokens(tokens []css.Token) string {
	var b bytes.Buffer
	for _, t := range tokens {
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

func simpleSelector(sel string) bool {
	if len(sel) < 2 || (sel[0] != '.' && sel[0] != '#') {
		return false
	}
	return !strings.ContainsAny(sel[1:], " .#>:[+~")
}
