// Package onboarding implements the four-step signup flow as a pure state
// machine. Reduce never performs I/O; it names the persistence call to make
// as an Effect, and the Flow runner executes it against the store and feeds
// the outcome back in as a result event. That keeps every transition rule
// testable without a database.
package onboarding

import "jobpilot/internal/store"

// Step indexes the four onboarding steps.
type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepResumeUpload
	StepSkills
	StepCompletion
)

// PersonalInfo is the validated fragment step one collects.
type PersonalInfo struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	LinkedinURL string `json:"linkedin_url"`
}

// State is the transient flow state. It lives in Redis for the duration of
// the flow and is destroyed on completion or TTL expiry; nothing here is the
// durable record (that is the store's job).
//
// Staged fields hold a submitted fragment while its persistence call is in
// flight; they move into the accumulated fields only on success.
type State struct {
	Step         Step                   `json:"step"`
	PersonalInfo *PersonalInfo          `json:"personal_info,omitempty"`
	Skills       []store.SkillSelection `json:"skills,omitempty"`
	Pending      bool                   `json:"pending"`
	Err          string                 `json:"error,omitempty"`
	Completed    bool                   `json:"completed"`

	StagedInfo   *PersonalInfo          `json:"staged_info,omitempty"`
	StagedSkills []store.SkillSelection `json:"staged_skills,omitempty"`
}

// NewState returns the initial flow state.
func NewState() State {
	return State{Step: StepPersonalInfo}
}
