// Package query parses boolean posting queries and evaluates them
// against stored text. Terms are matched as case-insensitive substrings;
// adjacency and the OR keyword both widen the match set, a leading '-'
// excludes, parentheses group.
package query

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseError reports a malformed query and the byte offset of the
// offending input.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: %s at position %d", e.Msg, e.Pos)
}

// Expr is a parsed query. The zero value matches everything.
type Expr struct {
	any []string
	not []string
}

// Terms reports how many positive and negated terms the expression
// carries, mostly for logging.
func (e Expr) Terms() (positive, negated int) {
	return len(e.any), len(e.not)
}

// Match evaluates the expression against a posting's searchable text.
// A posting matches when at least one positive term is a substring
// (or there are none) and no negated term is.
func (e Expr) Match(text string) bool {
	t := strings.ToLower(text)
	for _, term := range e.not {
		if strings.Contains(t, term) {
			return false
		}
	}
	if len(e.any) == 0 {
		return true
	}
	for _, term := range e.any {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokPhrase
	tokMinus
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse compiles a query string. Malformed input (unbalanced quotes or
// parentheses, dangling '-') returns a *ParseError; it is never ignored.
func Parse(s string) (Expr, error) {
	toks, err := lex(s)
	if err != nil {
		return Expr{}, err
	}
	p := &parser{toks: toks, end: len(s)}
	expr := Expr{}
	if err := p.group(&expr, false, false); err != nil {
		return Expr{}, err
	}
	return expr, nil
}

func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '-':
			toks = append(toks, token{tokMinus, "-", i})
			i++
		case c == '"':
			start := i
			i++
			j := strings.IndexByte(s[i:], '"')
			if j < 0 {
				return nil, &ParseError{Pos: start, Msg: "unterminated phrase"}
			}
			toks = append(toks, token{tokPhrase, s[i : i+j], start})
			i += j + 1
		default:
			start := i
			for i < len(s) && !strings.ContainsRune(" \t\n\r()\"", rune(s[i])) {
				_, w := utf8.DecodeRuneInString(s[i:])
				i += w
			}
			toks = append(toks, token{tokWord, s[start:i], start})
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	i    int
	end  int
}

func (p *parser) peek() (token, bool) {
	if p.i >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.i], true
}

// group consumes terms until EOF, or until a closing paren when nested.
// negated flips the sign of every term collected inside.
func (p *parser) group(expr *Expr, nested, negated bool) error {
	seen := false
	for {
		tok, ok := p.peek()
		if !ok {
			if nested {
				return &ParseError{Pos: p.end, Msg: "unclosed parenthesis"}
			}
			return nil
		}
		switch tok.kind {
		case tokRParen:
			if !nested {
				return &ParseError{Pos: tok.pos, Msg: "unmatched closing parenthesis"}
			}
			if !seen {
				return &ParseError{Pos: tok.pos, Msg: "empty group"}
			}
			p.i++
			return nil
		case tokMinus:
			p.i++
			if err := p.term(expr, !negated); err != nil {
				return err
			}
			seen = true
		case tokWord:
			if strings.EqualFold(tok.text, "or") {
				p.i++
				continue
			}
			p.i++
			expr.add(tok.text, negated)
			seen = true
		case tokPhrase:
			p.i++
			expr.add(tok.text, negated)
			seen = true
		case tokLParen:
			p.i++
			if err := p.group(expr, true, negated); err != nil {
				return err
			}
			seen = true
		}
	}
}

// term consumes the single operand of a '-': a word, phrase, or group.
func (p *parser) term(expr *Expr, negated bool) error {
	tok, ok := p.peek()
	if !ok {
		return &ParseError{Pos: p.end, Msg: "dangling '-'"}
	}
	switch tok.kind {
	case tokWord, tokPhrase:
		p.i++
		expr.add(tok.text, negated)
		return nil
	case tokLParen:
		p.i++
		return p.group(expr, true, negated)
	default:
		return &ParseError{Pos: tok.pos, Msg: "'-' must precede a term"}
	}
}

func (e *Expr) add(term string, negated bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	if negated {
		e.not = append(e.not, term)
		return
	}
	e.any = append(e.any, term)
}
