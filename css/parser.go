package css

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

// Parser parses CSS stylesheets into a tree of at-rule and declaration blocks.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Recoverable syntax problems are
// skipped and reported in Stylesheet.Warnings, error is returned only when
// input could not be processed at all.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Nodes:    make([]Node, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	w := &walker{
		log:      p.log,
		parser:   css.NewParser(parse.NewInput(bytes.NewReader(data)), false),
		sheet:    sheet,
		preludes: scanPreludes(data),
	}
	nodes, err := w.nodes(true)
	if err != nil {
		return nil, err
	}
	sheet.Nodes = append(sheet.Nodes, nodes...)
	return sheet, nil
}

type walker struct {
	log    *zap.Logger
	parser *css.Parser
	sheet  *Stylesheet
	eof    bool

	preludes []prelude
	next     int
}

// raw returns lexed prelude matching one of grammar token candidates,
// searching forward from the last matched one. When nothing matches the
// first candidate is returned.
func (w *walker) raw(candidates ...[]token) []token {
	for _, tokens := range candidates {
		key := compactKey(tokens)
		for i := w.next; i < len(w.preludes); i++ {
			if w.preludes[i].key == key {
				w.next = i + 1
				return w.preludes[i].tokens
			}
		}
	}
	w.log.Debug("Unable to locate source text, using normalized tokens", zap.String("prelude", compactKey(candidates[0])))
	return candidates[0]
}

// nodes collects rulesets and at-rule blocks until the end of the current
// at-rule block (or end of input on top level).
func (w *walker) nodes(top bool) ([]Node, error) {
	var (
		nodes   []Node
		pending []token
	)
	for !w.eof {
		gt, _, data := w.parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if stop, err := w.failure(); stop {
				return nodes, err
			}

		case css.EndAtRuleGrammar:
			if !top {
				return nodes, nil
			}

		case css.QualifiedRuleGrammar:
			// part of comma separated selector list, the rest comes with BeginRulesetGrammar
			pending = append(pending, fromGrammar(nil, w.parser.Values())...)
			pending = append(pending, token{tt: css.CommaToken, data: ","})

		case css.BeginRulesetGrammar:
			values := w.parser.Values()
			tokens := w.raw(
				append(append([]token(nil), pending...), fromGrammar(nil, values)...),
				append(append([]token(nil), pending...), selectorHead(data, values)...),
			)
			pending = nil
			decls, err := w.declarations()
			if err != nil {
				return nodes, err
			}
			if block := newDeclarationBlock(splitSelectors(tokens), decls); block != nil {
				nodes = append(nodes, block)
			}

		case css.BeginAtRuleGrammar:
			tokens := w.raw(fromGrammar(data, w.parser.Values()))
			block := &AtRuleBlock{
				Name: strings.ToLower(strings.TrimPrefix(string(data), "@")),
				Args: atRuleArgs(tokens),
			}
			children, err := w.nodes(false)
			if err != nil {
				return nodes, err
			}
			block.Nodes = children
			w.log.Debug("Parsed at-rule block", zap.String("rule", block.Name), zap.String("args", block.Args), zap.Int("nodes", len(children)))
			nodes = append(nodes, block)

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import, @charset)
			w.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			// Declarations directly inside at-rules (@font-face, @page) have no selectors
			w.log.Debug("Skipping declaration outside of ruleset", zap.String("property", string(data)))
		}
	}
	return nodes, nil
}

// declarations parses property declarations until EndRulesetGrammar.
func (w *walker) declarations() ([]Declaration, error) {
	var decls []Declaration
	for !w.eof {
		gt, _, data := w.parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if stop, err := w.failure(); stop {
				return decls, err
			}

		case css.EndRulesetGrammar:
			return decls, nil

		case css.DeclarationGrammar:
			if value := valueText(w.parser.Values()); value != "" {
				decls = append(decls, Declaration{Property: strings.ToLower(string(data)), Value: value})
			}

		case css.CustomPropertyGrammar:
			var sb strings.Builder
			for _, t := range w.parser.Values() {
				sb.Write(t.Data)
			}
			if value := strings.TrimSpace(sb.String()); value != "" {
				decls = append(decls, Declaration{Property: string(data), Value: value})
			}

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			w.skipBlock()
		}
	}
	return decls, nil
}

// skipBlock skips tokens until the matching end of a nested block.
func (w *walker) skipBlock() {
	depth := 1
	for depth > 0 && !w.eof {
		gt, _, _ := w.parser.Next()
		switch gt {
		case css.ErrorGrammar:
			w.failure() //nolint:errcheck
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func newDeclarationBlock(selectors []string, decls []Declaration) *DeclarationBlock {
	block := &DeclarationBlock{Declarations: decls}
	for _, s := range selectors {
		if s != "" {
			block.Selectors = append(block.Selectors, s)
		}
	}
	if len(block.Selectors) == 0 {
		return nil
	}
	return block
}

// valueText renders value tokens compactly: whitespace runs become a single
// space, whitespace around commas and inside parentheses is dropped and
// numbers lose leading zero ("0.75rem" -> ".75rem"). "!important" is always
// separated by a space.
func valueText(tokens []css.Token) string {
	var sb strings.Builder
	pendingSpace := false
	for _, t := range tokens {
		switch t.TokenType {
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			pendingSpace = sb.Len() > 0
			continue
		case css.CommaToken, css.RightParenthesisToken:
			pendingSpace = false
		case css.DelimToken:
			if string(t.Data) == "!" {
				pendingSpace = sb.Len() > 0
			}
		}
		if pendingSpace {
			last := sb.String()[sb.Len()-1]
			if last != ',' && last != '(' {
				sb.WriteByte(' ')
			}
			pendingSpace = false
		}
		switch t.TokenType {
		case css.NumberToken, css.DimensionToken, css.PercentageToken:
			sb.WriteString(trimLeadingZero(string(t.Data)))
		default:
			sb.Write(t.Data)
		}
	}
	return sb.String()
}

func trimLeadingZero(num string) string {
	sign := ""
	if len(num) > 0 && (num[0] == '-' || num[0] == '+') {
		sign, num = num[:1], num[1:]
	}
	if len(num) > 2 && num[0] == '0' && num[1] == '.' {
		num = num[1:]
	}
	return sign + num
}
