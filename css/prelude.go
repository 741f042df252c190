package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// token is a lexer token with its text kept as written.
type token struct {
	tt   css.TokenType
	data string
}

// prelude is everything in front of a "{": selector list of a ruleset or
// at-rule keyword with its arguments.
type prelude struct {
	tokens []token
	key    string
}

func newPrelude(tokens []token) prelude {
	return prelude{tokens: tokens, key: compactKey(tokens)}
}

// scanPreludes lexes source and returns preludes of all blocks in source
// order. Grammar parser normalizes whitespace, lexer keeps it.
func scanPreludes(data []byte) []prelude {
	l := css.NewLexer(parse.NewInput(bytes.NewReader(data)))

	var (
		out []prelude
		cur []token
	)
	for {
		tt, text := l.Next()
		switch tt {
		case css.ErrorToken:
			return out
		case css.LeftBraceToken:
			out = append(out, newPrelude(cur))
			cur = nil
		case css.RightBraceToken, css.SemicolonToken:
			cur = nil
		case css.CDOToken, css.CDCToken:
		default:
			cur = append(cur, token{tt: tt, data: string(text)})
		}
	}
}

// fromGrammar converts grammar values, keyword is prepended when present.
func fromGrammar(keyword []byte, values []css.Token) []token {
	out := make([]token, 0, len(values)+1)
	if len(keyword) > 0 {
		out = append(out, token{tt: css.AtKeywordToken, data: string(keyword)})
	}
	for _, v := range values {
		out = append(out, token{tt: v.TokenType, data: string(v.Data)})
	}
	return out
}

// selectorHead handles grammar events carrying first selector token in data.
func selectorHead(data []byte, values []css.Token) []token {
	out := fromGrammar(nil, values)
	if len(data) == 0 || string(data) == "{" {
		return out
	}
	return append([]token{{tt: css.IdentToken, data: string(data)}}, out...)
}

// compactKey is used to match grammar events with lexed preludes.
func compactKey(tokens []token) string {
	var sb strings.Builder
	for _, t := range tokens {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			continue
		}
		sb.WriteString(strings.Join(strings.Fields(t.data), ""))
	}
	return strings.ToLower(sb.String())
}

// splitSelectors splits selector list on commas outside of brackets and
// function arguments. Selectors are kept as written, comments dropped.
func splitSelectors(tokens []token) []string {
	var (
		out   []string
		sb    strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
		sb.Reset()
	}
	for _, t := range tokens {
		switch t.tt {
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		sb.WriteString(t.data)
	}
	flush()
	return out
}

// atRuleArgs renders at-rule prelude after its keyword as written, line
// breaks and tabs become a single space.
func atRuleArgs(tokens []token) string {
	for i, t := range tokens {
		if t.tt == css.AtKeywordToken {
			tokens = tokens[i+1:]
			break
		}
	}
	var sb strings.Builder
	for _, t := range tokens {
		switch t.tt {
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			if strings.ContainsAny(t.data, "\r\n\t\f") {
				sb.WriteByte(' ')
				continue
			}
		}
		sb.WriteString(t.data)
	}
	return strings.TrimSpace(sb.String())
}
