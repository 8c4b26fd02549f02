package dto

import (
	"time"

	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	JobType         string    `json:"job_type"`
	ExperienceLevel string    `json:"experience_level"`
	IsRemote        bool      `json:"is_remote"`
	SalaryMin       *float64  `json:"salary_min"`
	SalaryMax       *float64  `json:"salary_max"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	Status          string    `json:"status"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

func NewJobResponse(j job.Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		OwnerID:         j.OwnerID,
		Title:           j.Title,
		Company:         j.Company,
		Description:     j.Description,
		Category:        j.Category,
		JobType:         j.JobType,
		ExperienceLevel: j.ExperienceLevel,
		IsRemote:        j.IsRemote,
		SalaryMin:       j.SalaryMin,
		SalaryMax:       j.SalaryMax,
		Lat:             j.Point.Lat,
		Lng:             j.Point.Lng,
		Status:          string(j.Status),
		CreatedAt:       formatTime(j.CreatedAt),
		UpdatedAt:       formatTime(j.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
