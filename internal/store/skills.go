package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

// SkillSelection pairs a catalog skill with the caller's proficiency level.
type SkillSelection struct {
	SkillID          uint   `json:"skill_id"`
	ProficiencyLevel string `json:"proficiency_level"`
}

// SkillCatalog lists the immutable skill catalog.
func (s *Store) SkillCatalog(ctx context.Context) ([]database.Skill, error) {
	var skills []database.Skill
	if err := s.db.WithContext(ctx).
		Order("category, name").
		Find(&skills).Error; err != nil {
		return nil, failed("skills.catalog", err)
	}
	return skills, nil
}

// ListSkillSelections returns the caller's current skill set.
func (s *Store) ListSkillSelections(ctx context.Context, id session.Identity) ([]database.UserSkill, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var selections []database.UserSkill
	if err := s.db.WithContext(ctx).
		Preload("Skill").
		Where("profile_id = ?", id.UserID).
		Order("skill_id").
		Find(&selections).Error; err != nil {
		return nil, failed("skills.list", err)
	}
	return selections, nil
}

// ReplaceSkillSelections swaps the caller's entire skill set for the given
// one. Delete and insert run in one transaction: a failed insert rolls the
// delete back instead of leaving the user with zero skills. Duplicate skill
// ids collapse to the last occurrence, so resubmitting a set is idempotent.
func (s *Store) ReplaceSkillSelections(ctx context.Context, id session.Identity, selections []SkillSelection) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	deduped := make(map[uint]string, len(selections))
	order := make([]uint, 0, len(selections))
	for _, sel := range selections {
		if !database.ValidProficiency(sel.ProficiencyLevel) {
			return failed("skills.replace", fmt.Errorf("invalid proficiency level %q", sel.ProficiencyLevel))
		}
		if _, seen := deduped[sel.SkillID]; !seen {
			order = append(order, sel.SkillID)
		}
		deduped[sel.SkillID] = sel.ProficiencyLevel
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", id.UserID).
			Delete(&database.UserSkill{}).Error; err != nil {
			return err
		}
		if len(order) == 0 {
			return nil
		}
		rows := make([]database.UserSkill, 0, len(order))
		for _, skillID := range order {
			rows = append(rows, database.UserSkill{
				ProfileID:        id.UserID,
				SkillID:          skillID,
				ProficiencyLevel: deduped[skillID],
			})
		}
		return tx.Create(&rows).Error
	})
	return failed("skills.replace", err)
}
