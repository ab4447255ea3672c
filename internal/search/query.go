package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// inPattern matches "X in LOCATION" (location may itself contain a comma,
// e.g. "cafes in Portland, Oregon").
var inPattern = regexp.MustCompile(`(?i)^(.*?)\s+in\s+(.+)$`)

var titler = cases.Title(language.English, cases.NoLower)

// ExtractTerms splits a free-text query into a best-guess search term and
// location phrase. It is heuristic and never fails: an unparseable query
// degrades to using the whole query as the location.
func ExtractTerms(query string) (term, location string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ""
	}

	matchers := []func(string) (string, string, bool){
		matchIn,
		matchComma,
		matchTrailingTokens,
	}

	for _, m := range matchers {
		if t, loc, ok := m(query); ok {
			term, location = t, loc
			break
		}
	}

	if location == "" {
		location = query
	}

	term = strings.TrimSpace(strings.TrimPrefix(term, "in "))
	if len(term) < 2 {
		term = fallbackTerm(query)
	}

	return term, titler.String(strings.TrimSpace(location))
}

// matchIn handles "X in LOCATION[, LOCATION2]".
func matchIn(query string) (term, location string, ok bool) {
	m := inPattern.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// matchComma handles a comma-separated two-part phrase like "hotels, paris".
func matchComma(query string) (term, location string, ok bool) {
	idx := strings.Index(query, ",")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(query[:idx]), strings.TrimSpace(query[idx+1:]), true
}

// matchTrailingTokens falls back to treating the last two whitespace-separated
// tokens as the location.
func matchTrailingTokens(query string) (term, location string, ok bool) {
	fields := strings.Fields(query)
	if len(fields) < 3 {
		// Too short to split a term off; the whole query doubles as the
		// location and the term recovers via fallbackTerm.
		return "", query, true
	}
	return strings.Join(fields[:len(fields)-2], " "), strings.Join(fields[len(fields)-2:], " "), true
}

// fallbackTerm recovers a usable search term when stripping the location
// left nothing: first comma-delimited token, then first whitespace token.
func fallbackTerm(query string) string {
	if idx := strings.Index(query, ","); idx > 0 {
		if t := strings.TrimSpace(query[:idx]); len(t) >= 2 {
			return t
		}
	}
	if fields := strings.Fields(query); len(fields) > 0 {
		return fields[0]
	}
	return query
}
