// Package sqlguard decides whether generated SQL may run against the store: a single
// read-only SELECT that only touches allow-listed tables.
package sqlguard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/pkg/utils"
)

// forbidden keywords may not appear anywhere outside literals.
var forbidden = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true, "ALTER": true,
	"CREATE": true, "REPLACE": true, "ATTACH": true, "DETACH": true, "PRAGMA": true,
	"VACUUM": true, "REINDEX": true, "TRUNCATE": true, "GRANT": true, "REVOKE": true,
}

// clauseWords end a FROM list or cannot be a table alias.
var clauseWords = map[string]bool{
	"WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "WINDOW": true, "ON": true, "USING": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "OUTER": true,
	"CROSS": true, "NATURAL": true, "AS": true, "INDEXED": true, "NOT": true,
}

// Guard validates generated SQL against an allow-list of table names.
type Guard struct {
	tables map[string]string // lower-cased name -> name
	names  []string
}

// New returns a guard allowing only the given tables. Names match case-insensitively.
func New(tables []string) *Guard {
	g := &Guard{tables: make(map[string]string, len(tables))}
	for _, t := range tables {
		g.tables[strings.ToLower(t)] = t
	}
	for _, t := range g.tables {
		g.names = append(g.names, t)
	}
	sort.Strings(g.names)
	return g
}

// Tables returns the allow-listed table names, sorted.
func (g *Guard) Tables() []string {
	return append([]string(nil), g.names...)
}

// Validate returns the trimmed statement if it is a single read-only SELECT over allow-listed
// tables, or a *models.SafetyViolationError naming its leading token.
func (g *Guard) Validate(sql string) (string, error) {
	stmt := strings.TrimSpace(sql)
	lead := leadingToken(stmt)
	violation := func(format string, args ...any) error {
		return &models.SafetyViolationError{LeadingToken: lead, Reason: fmt.Sprintf(format, args...), SQL: stmt}
	}

	if stmt == "" {
		return "", violation("empty statement")
	}
	if strings.Contains(stmt, "```") {
		return "", violation("markdown fence in output")
	}
	if !strings.EqualFold(lead, "SELECT") {
		return "", violation("statement is not a SELECT")
	}

	toks, err := tokenize(stmt)
	if err != nil {
		return "", violation("%v", err)
	}
	for len(toks) > 0 && toks[len(toks)-1].is(tokPunct, ";") {
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 || !toks[0].is(tokWord, "SELECT") {
		return "", violation("statement is not a SELECT")
	}

	for i, t := range toks {
		switch {
		case t.is(tokPunct, ";"):
			return "", violation("multiple statements")
		case t.kind == tokWord && forbidden[t.text]:
			if t.text == "REPLACE" && i+1 < len(toks) && toks[i+1].is(tokPunct, "(") {
				continue // replace() string function
			}
			return "", violation("forbidden keyword %s", t.text)
		case t.is(tokPunct, "*") && i > 0 && isWildcardContext(toks[i-1]):
			return "", violation("wildcard column selector")
		}
	}

	for _, name := range referencedTables(toks) {
		if _, ok := g.tables[strings.ToLower(name)]; ok {
			continue
		}
		if s, ok := utils.ClosestMatch(strings.ToLower(name), g.names, 2); ok {
			return "", violation("table %q is not allowed (did you mean %q?)", name, s)
		}
		return "", violation("table %q is not allowed", name)
	}
	return stmt, nil
}

// leadingToken is the first whitespace-delimited word, cut at the first non-identifier rune.
func leadingToken(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	f := fields[0]
	for i, c := range f {
		if !isIdentPart(c) {
			if i == 0 {
				return truncateToken(f)
			}
			return f[:i]
		}
	}
	return truncateToken(f)
}

func truncateToken(s string) string {
	return utils.Truncate(s, 32)
}

// isWildcardContext reports whether a '*' after prev selects columns rather than multiplies.
func isWildcardContext(prev token) bool {
	if prev.kind == tokWord {
		return prev.text == "SELECT" || prev.text == "DISTINCT" || prev.text == "ALL"
	}
	return prev.is(tokPunct, ",") || prev.is(tokPunct, ".")
}

// referencedTables returns the names following FROM and JOIN, including comma-separated lists.
// Subqueries in parentheses are skipped here; their own FROM clauses are found by the scan.
// Parenthesised table lists are checked like bare ones.
func referencedTables(toks []token) []string {
	var out []string
	for i := 0; i < len(toks); i++ {
		if toks[i].is(tokWord, "FROM") || toks[i].is(tokWord, "JOIN") {
			names := tableList(toks, i+1, toks[i].text == "FROM")
			out = append(out, names...)
		}
	}
	return out
}

// tableList parses table references starting at toks[j], following commas when list is set.
func tableList(toks []token, j int, list bool) []string {
	var out []string
	for j < len(toks) {
		names, next, ok := tableRef(toks, j)
		if !ok {
			break
		}
		out = append(out, names...)
		j = skipAlias(toks, next)
		if !list || j >= len(toks) || !toks[j].is(tokPunct, ",") {
			break
		}
		j++
	}
	return out
}

// tableRef parses [schema.]table at toks[i]. A parenthesised subquery yields no names;
// a parenthesised table list such as (a, b) yields every table in it.
func tableRef(toks []token, i int) (names []string, next int, ok bool) {
	if i >= len(toks) {
		return nil, i, false
	}
	t := toks[i]
	if t.is(tokPunct, "(") {
		end := closingParen(toks, i)
		inner := toks[i+1 : end]
		next = end + 1
		if next > len(toks) {
			next = len(toks)
		}
		if len(inner) > 0 && (inner[0].is(tokWord, "SELECT") || inner[0].is(tokWord, "WITH") || inner[0].is(tokWord, "VALUES")) {
			return nil, next, true
		}
		names = tableList(inner, 0, true)
		return names, next, true
	}
	if t.kind != tokWord && t.kind != tokQuoted {
		return nil, i, false
	}
	name := identText(t)
	next = i + 1
	if next+1 < len(toks) && toks[next].is(tokPunct, ".") && (toks[next+1].kind == tokWord || toks[next+1].kind == tokQuoted) {
		schema := name
		name = identText(toks[next+1])
		if !strings.EqualFold(schema, "main") {
			name = schema + "." + name
		}
		next += 2
	}
	return []string{name}, next, true
}

// closingParen returns the index of the ')' matching the '(' at toks[i], or len(toks).
func closingParen(toks []token, i int) int {
	depth := 0
	for j := i; j < len(toks); j++ {
		switch {
		case toks[j].is(tokPunct, "("):
			depth++
		case toks[j].is(tokPunct, ")"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(toks)
}

func skipAlias(toks []token, i int) int {
	if i < len(toks) && toks[i].is(tokWord, "AS") {
		return i + 2
	}
	if i < len(toks) && (toks[i].kind == tokQuoted || (toks[i].kind == tokWord && !clauseWords[toks[i].text])) {
		return i + 1
	}
	return i
}

// identText returns a table name; bare words come back lower-cased.
func identText(t token) string {
	if t.kind == tokWord {
		return strings.ToLower(t.text)
	}
	return t.text
}
