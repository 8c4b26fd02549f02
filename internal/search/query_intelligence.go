package search

import (
	"strings"
	"unicode"
)

const maxVariants = 10

type QueryContext struct {
	Original   string
	Normalized string
	Variants   []string
}

// NormalizeQuery lower-cases input, keeps letters and digits and collapses
// everything else into single spaces.
func NormalizeQuery(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	b := strings.Builder{}
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExpandQuery returns the query followed by synonym variants: the whole
// phrase, a leading one- or two-word phrase, and compact spellings of
// spaced synonym keys ("dataentry" -> "data entry").
func ExpandQuery(normalized string) []string {
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return []string{}
	}

	out := make([]string, 0, maxVariants)
	seen := make(map[string]struct{}, maxVariants)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(normalized)
	for _, syn := range SynonymsOf(normalized) {
		add(syn)
	}

	words := strings.Fields(normalized)
	replacePrefix := func(phrase string, rest []string) {
		tail := strings.Join(rest, " ")
		for _, syn := range SynonymsOf(phrase) {
			add(syn + " " + tail)
		}
	}
	if len(words) >= 2 {
		replacePrefix(words[0], words[1:])
	}
	if len(words) >= 3 {
		replacePrefix(words[0]+" "+words[1], words[2:])
	}

	if len(words) >= 1 {
		if spaced, ok := spacedKey(words[0]); ok {
			tail := strings.Join(words[1:], " ")
			add(spaced + " " + tail)
			for _, syn := range synonyms[spaced] {
				add(syn + " " + tail)
			}
		}
	}

	if len(out) > maxVariants {
		out = out[:maxVariants]
	}
	return out
}

func ProcessQuery(input string) QueryContext {
	ctx := QueryContext{Original: input, Normalized: NormalizeQuery(input)}
	ctx.Variants = ExpandQuery(ctx.Normalized)
	return ctx
}

// MatchesAny reports whether any variant occurs in the normalized text.
func MatchesAny(text string, variants []string) bool {
	if len(variants) == 0 {
		return true
	}
	text = " " + NormalizeQuery(text) + " "
	for _, v := range variants {
		if v != "" && strings.Contains(text, v) {
			return true
		}
	}
	return false
}
