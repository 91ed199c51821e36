package cache

import (
	"sort"
	"strings"

	"github.com/ignitionstack/rfcbridge/pkg/metadata"
)

// DefaultSearchLimit applies when Search is called with a non-positive limit.
const DefaultSearchLimit = 20

type termSet map[string]struct{}

// searchIndex maps a lower-case term to the set of function names carrying it.
type searchIndex map[string]termSet

func (idx searchIndex) add(term, name string) {
	names, ok := idx[term]
	if !ok {
		names = make(termSet)
		idx[term] = names
	}
	names[name] = struct{}{}
}

func (idx searchIndex) remove(term, name string) {
	names, ok := idx[term]
	if !ok {
		return
	}
	delete(names, name)
	if len(names) == 0 {
		delete(idx, term)
	}
}

// replace moves name from oldTerms to newTerms and returns every term whose
// name set changed.
func (idx searchIndex) replace(name string, oldTerms, newTerms termSet) []string {
	var touched []string
	for term := range oldTerms {
		if _, keep := newTerms[term]; !keep {
			idx.remove(term, name)
			touched = append(touched, term)
		}
	}
	for term := range newTerms {
		if _, had := oldTerms[term]; !had {
			idx.add(term, name)
			touched = append(touched, term)
		}
	}
	sort.Strings(touched)
	return touched
}

func (idx searchIndex) terms() []string {
	out := make([]string, 0, len(idx))
	for term := range idx {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func (idx searchIndex) equal(other searchIndex) bool {
	if len(idx) != len(other) {
		return false
	}
	for term, names := range idx {
		otherNames, ok := other[term]
		if !ok || len(otherNames) != len(names) {
			return false
		}
		for name := range names {
			if _, ok := otherNames[name]; !ok {
				return false
			}
		}
	}
	return true
}

func (s termSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// termsFor tokenizes a function for the index: the full name and its
// underscore or slash separated parts, the words of the description, the
// area and package, and every parameter name and description word.
func termsFor(name string, md *metadata.FunctionMetadata) termSet {
	terms := make(termSet)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			terms[s] = struct{}{}
		}
	}
	addWords := func(s string) {
		for _, w := range strings.Fields(s) {
			add(strings.Trim(w, ".,;:()[]{}\"'!?"))
		}
	}

	add(name)
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '/' }) {
		add(part)
	}
	if md == nil {
		return terms
	}

	addWords(md.Description)
	add(md.Area)
	add(md.DevClass)
	for _, group := range []map[string]metadata.ParameterMetadata{md.Inputs, md.Outputs, md.Tables} {
		for paramName, param := range group {
			add(paramName)
			addWords(param.Description)
		}
	}
	return terms
}

// SearchResult is one scored search hit.
type SearchResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

// Search scores cached functions against the whitespace separated terms of
// query. Each term adds 2 to functions indexed under exactly that term and
// 1 to functions under every indexed term that contains it or is contained
// in it, itself included.
// Results are ordered by score, then by insertion order.
func (c *Cache) Search(query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	scores := make(map[string]int)
	for _, q := range queryTerms {
		if names, ok := c.index[q]; ok {
			for name := range names {
				scores[name] += 2
			}
		}
		for term, names := range c.index {
			if !strings.Contains(term, q) && !strings.Contains(q, term) {
				continue
			}
			for name := range names {
				scores[name]++
			}
		}
	}

	results := make([]SearchResult, 0, len(scores))
	seqs := make(map[string]int64, len(scores))
	for name, score := range scores {
		entry, ok := c.entries[name]
		if !ok {
			continue
		}
		seqs[name] = entry.Seq
		results = append(results, SearchResult{
			Name:        name,
			Description: entry.Metadata.Description,
			Score:       score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return seqs[results[i].Name] < seqs[results[j].Name]
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
