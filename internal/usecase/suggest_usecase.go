package usecase

import (
	"context"

	"nearby-jobs/internal/search"
)

const (
	SuggestKindTerm   = "term"
	SuggestKindRegion = "region"

	maxTermSuggest        = 5
	maxRegionAutocomplete = 3
)

type Suggestion struct {
	Text string
	Kind string
	// Code is set for region suggestions.
	Code string
}

type SuggestUsecase interface {
	Autocomplete(ctx context.Context, q string) ([]Suggestion, error)
}

// Suggestions completes a search box: title terms from the synonym
// dictionary, then matching regions.
type Suggestions struct {
	catalog RegionCatalog
}

func NewSuggestUsecase(catalog RegionCatalog) *Suggestions {
	return &Suggestions{catalog: catalog}
}

func (u *Suggestions) Autocomplete(_ context.Context, q string) ([]Suggestion, error) {
	out := []Suggestion{}
	if len([]rune(search.NormalizeQuery(q))) < MinSuggestQueryLen {
		return out, nil
	}

	for _, t := range search.Terms(q, maxTermSuggest) {
		out = append(out, Suggestion{Text: t, Kind: SuggestKindTerm})
	}
	if u.catalog == nil {
		return out, nil
	}
	for _, r := range suggestRegions(u.catalog.List(), q, maxRegionAutocomplete) {
		text := r.Name
		if text == "" {
			text = r.Code
		}
		if r.Country != "" {
			text += ", " + r.Country
		}
		out = append(out, Suggestion{Text: text, Kind: SuggestKindRegion, Code: r.Code})
	}
	return out, nil
}
