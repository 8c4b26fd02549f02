package search

import (
	"slices"
	"strings"
)

// synonyms maps a normalized term to other titles postings use for it.
var synonyms = map[string][]string{
	"developer":  {"engineer", "programmer"},
	"engineer":   {"developer"},
	"frontend":   {"front end", "ui developer"},
	"backend":    {"back end", "server developer"},
	"designer":   {"graphic designer", "ui designer", "visual designer"},
	"driver":     {"courier", "delivery"},
	"nurse":      {"caregiver", "care assistant"},
	"sales rep":  {"sales", "account executive"},
	"admin":      {"administration", "office assistant"},
	"data entry": {"typist", "clerk"},
}

// compactKeys indexes multi-word terms by their spelling without spaces.
var compactKeys = func() map[string]string {
	out := map[string]string{}
	for k := range synonyms {
		if strings.Contains(k, " ") {
			out[strings.ReplaceAll(k, " ", "")] = k
		}
	}
	return out
}()

// SynonymsOf returns a copy of the variants registered for term.
func SynonymsOf(term string) []string {
	return slices.Clone(synonyms[term])
}

func spacedKey(word string) (string, bool) {
	k, ok := compactKeys[word]
	return k, ok
}

// dictionary is every term and variant in synonyms, sorted.
var dictionary = func() []string {
	seen := map[string]struct{}{}
	for k, vs := range synonyms {
		seen[k] = struct{}{}
		for _, v := range vs {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}()

// Terms returns up to limit dictionary terms containing the normalized
// query. Terms starting with it come first.
func Terms(query string, limit int) []string {
	q := NormalizeQuery(query)
	if q == "" || limit <= 0 {
		return []string{}
	}
	var prefix, inner []string
	for _, t := range dictionary {
		switch {
		case strings.HasPrefix(t, q):
			prefix = append(prefix, t)
		case strings.Contains(t, q):
			inner = append(inner, t)
		}
	}
	out := append(prefix, inner...)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		return []string{}
	}
	return out
}
