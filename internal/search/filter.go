// Package search filters and ranks catalog rows for the tree filter bar.
package search

import (
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Entry is one searchable row.
type Entry struct {
	ID   string
	Name string
}

// Match is a ranked result with the character positions that matched, for
// highlighting.
type Match struct {
	Entry
	Score          int
	MatchedIndexes []int
}

// source adapts a []Entry to sahilm/fuzzy.Source.
type source []Entry

func (s source) String(i int) string { return strings.ToLower(s[i].Name) }
func (s source) Len() int            { return len(s) }

// Filter keeps entries whose names loosely match the query, preserving the
// input order. Matching is case- and diacritic-insensitive.
func Filter(query string, entries []Entry) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	var kept []Entry
	for _, e := range entries {
		if lfuzzy.MatchNormalizedFold(query, e.Name) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Rank returns entries matching the query, best match first.
func Rank(query string, entries []Entry) []Match {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, source(entries))
	results := make([]Match, len(matches))
	for i, m := range matches {
		results[i] = Match{
			Entry:          entries[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return results
}
