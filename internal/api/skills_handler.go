package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/onboarding"
	"jobpilot/internal/store"
)

// SkillsHandler serves the skill catalog and the caller's selections.
type SkillsHandler struct {
	store *store.Store
}

// NewSkillsHandler constructs the handler.
func NewSkillsHandler(s *store.Store) *SkillsHandler {
	return &SkillsHandler{store: s}
}

type skillItem struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type selectionItem struct {
	SkillID          uint   `json:"skill_id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	ProficiencyLevel string `json:"proficiency_level"`
}

// Catalog lists the immutable skill catalog.
func (h *SkillsHandler) Catalog(c *gin.Context) {
	skills, err := h.store.SkillCatalog(c.Request.Context())
	if err != nil {
		StoreError(c, err)
		return
	}

	items := make([]skillItem, 0, len(skills))
	for _, s := range skills {
		items = append(items, skillItem{ID: s.ID, Name: s.Name, Category: s.Category})
	}
	c.JSON(http.StatusOK, items)
}

// ListSelections returns the caller's current skill set.
func (h *SkillsHandler) ListSelections(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	selections, err := h.store.ListSkillSelections(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}

	items := make([]selectionItem, 0, len(selections))
	for _, sel := range selections {
		items = append(items, selectionItem{
			SkillID:          sel.SkillID,
			Name:             sel.Skill.Name,
			Category:         sel.Skill.Category,
			ProficiencyLevel: sel.ProficiencyLevel,
		})
	}
	c.JSON(http.StatusOK, items)
}

type replaceSelectionsRequest struct {
	Selections []store.SkillSelection `json:"selections" binding:"required"`
}

// ReplaceSelections swaps the caller's entire skill set.
func (h *SkillsHandler) ReplaceSelections(c *gin.Context) {
	var req replaceSelectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := onboarding.ValidateSkills(req.Selections); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := middleware.IdentityFromContext(c)
	if err := h.store.ReplaceSkillSelections(c.Request.Context(), id, req.Selections); err != nil {
		StoreError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
