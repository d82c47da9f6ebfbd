package store

import (
	"context"
	"fmt"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

// NewSavedJob describes a job posting to remember for the caller.
type NewSavedJob struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	MatchRating int    `json:"match_rating"`
	Link        string `json:"link"`
}

// SaveJob records a job posting for the caller.
func (s *Store) SaveJob(ctx context.Context, id session.Identity, job NewSavedJob) (*database.SavedJob, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if job.MatchRating < 0 || job.MatchRating > 5 {
		return nil, failed("jobs.save", fmt.Errorf("match rating %d out of range", job.MatchRating))
	}

	row := database.SavedJob{
		ProfileID:   id.UserID,
		JobTitle:    job.JobTitle,
		Company:     job.Company,
		Location:    job.Location,
		MatchRating: job.MatchRating,
		Link:        job.Link,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, failed("jobs.save", err)
	}
	return &row, nil
}

// ListSavedJobs lists the caller's saved jobs, newest first.
func (s *Store) ListSavedJobs(ctx context.Context, id session.Identity) ([]database.SavedJob, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var jobs []database.SavedJob
	if err := s.db.WithContext(ctx).
		Where("profile_id = ?", id.UserID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, failed("jobs.list", err)
	}
	return jobs, nil
}
