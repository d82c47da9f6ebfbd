package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/onboarding"
	"jobpilot/internal/store"
)

// OnboardingHandler exposes the step flow over HTTP. Each endpoint feeds one
// event into the flow and returns the resulting state; the reducer decides
// everything else.
type OnboardingHandler struct {
	flow *onboarding.Flow
}

// NewOnboardingHandler constructs the handler.
func NewOnboardingHandler(flow *onboarding.Flow) *OnboardingHandler {
	return &OnboardingHandler{flow: flow}
}

type onboardingStateResponse struct {
	Step         int                      `json:"step"`
	PersonalInfo *onboarding.PersonalInfo `json:"personal_info,omitempty"`
	Skills       []store.SkillSelection   `json:"skills,omitempty"`
	Pending      bool                     `json:"pending"`
	Error        string                   `json:"error,omitempty"`
	Completed    bool                     `json:"completed"`
}

func newStateResponse(state onboarding.State) onboardingStateResponse {
	return onboardingStateResponse{
		Step:         int(state.Step),
		PersonalInfo: state.PersonalInfo,
		Skills:       state.Skills,
		Pending:      state.Pending,
		Error:        state.Err,
		Completed:    state.Completed,
	}
}

// GetState returns the caller's current flow state.
func (h *OnboardingHandler) GetState(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	state, err := h.flow.Current(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(state))
}

// SubmitPersonalInfo drives the step-one submission.
func (h *OnboardingHandler) SubmitPersonalInfo(c *gin.Context) {
	var info onboarding.PersonalInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.apply(c, onboarding.SubmitPersonalInfo{Info: info})
}

// Advance drives the step-two "next" signal.
func (h *OnboardingHandler) Advance(c *gin.Context) {
	h.apply(c, onboarding.Advance{})
}

type submitSkillsRequest struct {
	Selections []store.SkillSelection `json:"selections" binding:"required"`
}

// SubmitSkills drives the step-three submission.
func (h *OnboardingHandler) SubmitSkills(c *gin.Context) {
	var req submitSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.apply(c, onboarding.SubmitSkills{Selections: req.Selections})
}

// Back moves to the previous step.
func (h *OnboardingHandler) Back(c *gin.Context) {
	h.apply(c, onboarding.Back{})
}

// Complete drives the terminal action.
func (h *OnboardingHandler) Complete(c *gin.Context) {
	h.apply(c, onboarding.Complete{})
}

func (h *OnboardingHandler) apply(c *gin.Context, event onboarding.Event) {
	id := middleware.IdentityFromContext(c)

	state, err := h.flow.Apply(c.Request.Context(), id, event)
	if err != nil {
		StoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(state))
}
