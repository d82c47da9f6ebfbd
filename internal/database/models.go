package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Proficiency labels accepted on a skill selection.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

// ValidProficiency reports whether level is one of the accepted labels.
func ValidProficiency(level string) bool {
	switch level {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyExpert:
		return true
	}
	return false
}

// Profile is the identity-keyed account record. It is created once at
// registration and reaches its terminal onboarding state when
// OnboardingCompleted flips to true.
type Profile struct {
	gorm.Model
	Email               string `gorm:"uniqueIndex;size:255"`
	PasswordHash        string `gorm:"size:255"`
	FullName            string `gorm:"size:255"`
	PhoneNumber         string `gorm:"size:32"`
	LinkedinURL         string `gorm:"size:512"`
	OnboardingCompleted bool   `gorm:"default:false"`
	Resumes             []Resume `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// Skill is an immutable catalog entry, not owned by any user.
type Skill struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;size:128"`
	Category string `gorm:"size:64;index"`
}

// UserSkill links a profile to a catalog skill with a proficiency level.
// The (profile, skill) pair is unique; the set is replaced whole on save.
type UserSkill struct {
	gorm.Model
	ProfileID        uint   `gorm:"index;uniqueIndex:idx_profile_skill"`
	SkillID          uint   `gorm:"uniqueIndex:idx_profile_skill"`
	Skill            Skill  `gorm:"constraint:OnDelete:CASCADE"`
	ProficiencyLevel string `gorm:"size:16"`
}

// Resume is an uploaded resume file. At most one resume per profile carries
// IsMaster; the store maintains that invariant transactionally.
type Resume struct {
	gorm.Model
	ProfileID     uint   `gorm:"index"`
	ObjectKey     string `gorm:"size:512"`
	FileURL       string `gorm:"size:512"`
	FileName      string `gorm:"size:255"`
	ParsedContent string `gorm:"type:text"`
	IsMaster      bool   `gorm:"default:false;index"`
}

// ChatMessage is one turn of agent conversation history, grouped by thread.
type ChatMessage struct {
	gorm.Model
	ProfileID uint           `gorm:"index:idx_profile_thread"`
	ThreadID  string         `gorm:"size:64;index:idx_profile_thread"`
	Role      string         `gorm:"size:16"`
	Content   string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
}

// SavedJob is a job posting the agent (or the user) saved for later.
type SavedJob struct {
	gorm.Model
	ProfileID   uint   `gorm:"index"`
	JobTitle    string `gorm:"size:255"`
	Company     string `gorm:"size:255"`
	Location    string `gorm:"size:255"`
	MatchRating int
	Link        string `gorm:"size:512"`
}
