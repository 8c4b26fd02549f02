package dto

import "nearby-jobs/internal/usecase"

type SuggestionResponse struct {
	Text string `json:"text"`
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
}

type AutocompleteResponse struct {
	Query       string               `json:"query"`
	Suggestions []SuggestionResponse `json:"suggestions"`
}

func NewAutocompleteResponse(q string, items []usecase.Suggestion) AutocompleteResponse {
	out := AutocompleteResponse{Query: q, Suggestions: make([]SuggestionResponse, 0, len(items))}
	for _, it := range items {
		out.Suggestions = append(out.Suggestions, SuggestionResponse{Text: it.Text, Type: it.Kind, Code: it.Code})
	}
	return out
}
