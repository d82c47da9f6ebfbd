package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/database"
	"jobpilot/internal/onboarding"
	"jobpilot/internal/store"
)

// ProfileHandler serves the caller's profile record.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

type profileResponse struct {
	ID                  uint      `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name,omitempty"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	LinkedinURL         string    `json:"linkedin_url,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func newProfileResponse(p *database.Profile) profileResponse {
	return profileResponse{
		ID:                  p.ID,
		Email:               p.Email,
		FullName:            p.FullName,
		PhoneNumber:         p.PhoneNumber,
		LinkedinURL:         p.LinkedinURL,
		OnboardingCompleted: p.OnboardingCompleted,
		UpdatedAt:           p.UpdatedAt,
	}
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// UpdateProfile writes the personal-info fragment outside the onboarding
// flow, with the same validation the flow applies.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var info onboarding.PersonalInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := onboarding.ValidatePersonalInfo(info); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := middleware.IdentityFromContext(c)
	profile, err := h.store.UpdateProfileInfo(c.Request.Context(), id, store.ProfileInfo(info))
	if err != nil {
		StoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}
