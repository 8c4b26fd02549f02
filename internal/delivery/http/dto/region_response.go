package dto

import (
	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
)

type RegionResponse struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	Bounds   geo.Box `json:"bounds"`
	JobCount *int    `json:"job_count,omitempty"`
}

func NewRegionResponse(r job.Region) RegionResponse {
	return RegionResponse{Code: r.Code, Name: r.Name, Country: r.Country, Bounds: r.Bounds}
}

type RegionSuggestResponse struct {
	Query       string           `json:"query"`
	Suggestions []RegionResponse `json:"suggestions"`
}
