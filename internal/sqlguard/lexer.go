package sqlguard

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string // identifier text without quotes, upper-cased for words
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize splits a statement into tokens, dropping comments and whitespace.
func tokenize(s string) ([]token, error) {
	var toks []token
	r := []rune(s)
	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '-' && i+1 < len(r) && r[i+1] == '-':
			for i < len(r) && r[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(r) && r[i+1] == '*':
			j := i + 2
			for j+1 < len(r) && !(r[j] == '*' && r[j+1] == '/') {
				j++
			}
			if j+1 >= len(r) {
				return nil, fmt.Errorf("unterminated comment")
			}
			i = j + 2
		case c == '\'':
			text, n, err := quoted(r[i:], '\'')
			if err != nil {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: text})
			i += n
		case c == '"' || c == '`':
			text, n, err := quoted(r[i:], c)
			if err != nil {
				return nil, fmt.Errorf("unterminated quoted identifier")
			}
			toks = append(toks, token{kind: tokQuoted, text: text})
			i += n
		case c == '[':
			j := i + 1
			for j < len(r) && r[j] != ']' {
				j++
			}
			if j == len(r) {
				return nil, fmt.Errorf("unterminated quoted identifier")
			}
			toks = append(toks, token{kind: tokQuoted, text: string(r[i+1 : j])})
			i = j + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(r) && isIdentPart(r[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: strings.ToUpper(string(r[i:j]))})
			i = j
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(r) && unicode.IsDigit(r[i+1])):
			j := i + 1
			for j < len(r) && (isIdentPart(r[j]) || r[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: string(r[i:j])})
			i = j
		default:
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		}
	}
	return toks, nil
}

// quoted reads a quoted run starting at r[0]; a doubled quote is an escaped quote.
// It returns the unquoted text and the number of runes consumed.
func quoted(r []rune, q rune) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(r); i++ {
		if r[i] != q {
			b.WriteRune(r[i])
			continue
		}
		if i+1 < len(r) && r[i+1] == q {
			b.WriteRune(q)
			i++
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("unterminated")
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
