package dto

import "nearby-jobs/internal/usecase"

type NearbyJobResponse struct {
	Job        JobResponse `json:"job"`
	DistanceKm float64     `json:"distance_km"`
}

type NearbyPageResponse struct {
	Items      []NearbyJobResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

func NewNearbyPageResponse(p usecase.NearbyPage) NearbyPageResponse {
	items := make([]NearbyJobResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, NearbyJobResponse{Job: NewJobResponse(it.Job), DistanceKm: it.DistanceKm})
	}
	pages := 0
	if p.PageSize > 0 {
		pages = (p.Total + p.PageSize - 1) / p.PageSize
	}
	return NearbyPageResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
	}
}
