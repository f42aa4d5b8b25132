package cmd

import (
	"fmt"
	"strings"

	"github.com/ferret-go/ferret/internal/search"
)

// parseQuery builds a query from a simple clause syntax: whitespace
// separated clauses, each optionally prefixed with '+' (required) or
// '-' (prohibited) and optionally field-qualified. A clause text
// containing '*' or '?' is a wildcard (a lone trailing '*' is a
// prefix); "[lo..hi]" is an inclusive range; a quoted clause is a
// phrase. Everything else is a term.
func parseQuery(input, defaultField string) (search.Query, error) {
	clauses, err := splitClauses(input)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("empty query")
	}

	type parsed struct {
		q     search.Query
		occur search.Occur
	}
	var out []parsed
	for _, clause := range clauses {
		occur := search.Should
		switch clause[0] {
		case '+':
			occur = search.Must
			clause = clause[1:]
		case '-':
			occur = search.MustNot
			clause = clause[1:]
		}
		if clause == "" {
			return nil, fmt.Errorf("dangling %q prefix", occur.String())
		}

		field := defaultField
		if i := strings.IndexByte(clause, ':'); i > 0 && !strings.HasPrefix(clause, `"`) {
			field = clause[:i]
			clause = clause[i+1:]
		}
		if clause == "" {
			return nil, fmt.Errorf("field %q has no value", field)
		}

		q, err := parseClause(field, clause)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed{q: q, occur: occur})
	}

	if len(out) == 1 && out[0].occur != search.MustNot {
		return out[0].q, nil
	}
	bq := search.NewBooleanQuery(false)
	for _, p := range out {
		bq.Add(p.q, p.occur)
	}
	return bq, nil
}

func parseClause(field, text string) (search.Query, error) {
	switch {
	case strings.HasPrefix(text, `"`):
		if len(text) < 2 || !strings.HasSuffix(text, `"`) {
			return nil, fmt.Errorf("unterminated phrase %s", text)
		}
		pq := search.NewPhraseQuery(field)
		for _, word := range strings.Fields(text[1 : len(text)-1]) {
			if err := pq.AddTerm(word); err != nil {
				return nil, err
			}
		}
		return pq, nil
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"):
		lo, hi, ok := strings.Cut(text[1:len(text)-1], "..")
		if !ok {
			return nil, fmt.Errorf("range %s must look like [lo..hi]", text)
		}
		return search.NewRangeQuery(field, lo, hi, true, true), nil
	case strings.Count(text, "*") == 1 && strings.HasSuffix(text, "*") && !strings.Contains(text, "?"):
		return search.NewPrefixQuery(field, text[:len(text)-1]), nil
	case strings.ContainsAny(text, "*?"):
		return search.NewWildcardQuery(field, text), nil
	default:
		return search.NewTermQuery(field, text), nil
	}
}

// splitClauses splits on whitespace outside double quotes.
func splitClauses(input string) ([]string, error) {
	var clauses []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && !inQuote:
			if cur.Len() > 0 {
				clauses = append(clauses, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in query")
	}
	if cur.Len() > 0 {
		clauses = append(clauses, cur.String())
	}
	return clauses, nil
}
