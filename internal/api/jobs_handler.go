package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/store"
)

// JobsHandler serves the caller's saved job postings.
type JobsHandler struct {
	store *store.Store
}

// NewJobsHandler constructs the handler.
func NewJobsHandler(s *store.Store) *JobsHandler {
	return &JobsHandler{store: s}
}

type savedJobItem struct {
	ID          uint      `json:"id"`
	JobTitle    string    `json:"job_title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	MatchRating int       `json:"match_rating"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

// List lists saved jobs, newest first.
func (h *JobsHandler) List(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	jobs, err := h.store.ListSavedJobs(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}

	items := make([]savedJobItem, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, savedJobItem{
			ID:          j.ID,
			JobTitle:    j.JobTitle,
			Company:     j.Company,
			Location:    j.Location,
			MatchRating: j.MatchRating,
			Link:        j.Link,
			CreatedAt:   j.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

// Save records a job posting.
func (h *JobsHandler) Save(c *gin.Context) {
	var req store.NewSavedJob
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := middleware.IdentityFromContext(c)
	job, err := h.store.SaveJob(c.Request.Context(), id, req)
	if err != nil {
		StoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, savedJobItem{
		ID:          job.ID,
		JobTitle:    job.JobTitle,
		Company:     job.Company,
		Location:    job.Location,
		MatchRating: job.MatchRating,
		Link:        job.Link,
		CreatedAt:   job.CreatedAt,
	})
}
