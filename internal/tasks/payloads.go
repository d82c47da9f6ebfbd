package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants keep queue producers and consumers in sync.
const (
	TypeResumeParse = "resume:parse"
)

// ResumeParsePayload carries the minimum needed to extract resume text.
type ResumeParsePayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeParseTask builds a parse task for a freshly uploaded resume.
func NewResumeParseTask(resumeID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeParsePayload{
		ResumeID:      resumeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeParse, payload), nil
}
