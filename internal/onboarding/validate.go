package onboarding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"jobpilot/internal/database"
	"jobpilot/internal/store"
)

// phonePattern accepts digits plus the usual separators. Deliberately
// permissive: formatting is the user's business, we only reject garbage.
var phonePattern = regexp.MustCompile(`^\+?[0-9()\-. ]{7,20}$`)

// ValidatePersonalInfo checks the step-one fragment locally. A failure here
// never reaches the persistence gateway.
func ValidatePersonalInfo(info PersonalInfo) error {
	if strings.TrimSpace(info.FullName) == "" {
		return errors.New("full name is required")
	}
	if !phonePattern.MatchString(strings.TrimSpace(info.PhoneNumber)) {
		return errors.New("phone number is invalid")
	}
	if url := strings.TrimSpace(info.LinkedinURL); url != "" && !strings.Contains(url, "linkedin.com") {
		return errors.New("linkedin url must point at linkedin.com")
	}
	return nil
}

// ValidateSkills checks the step-three fragment locally.
func ValidateSkills(selections []store.SkillSelection) error {
	if len(selections) == 0 {
		return errors.New("select at least one skill")
	}
	seen := make(map[uint]struct{}, len(selections))
	for _, sel := range selections {
		if sel.SkillID == 0 {
			return errors.New("skill id is required")
		}
		if !database.ValidProficiency(sel.ProficiencyLevel) {
			return fmt.Errorf("invalid proficiency level %q", sel.ProficiencyLevel)
		}
		if _, dup := seen[sel.SkillID]; dup {
			return fmt.Errorf("duplicate skill %d", sel.SkillID)
		}
		seen[sel.SkillID] = struct{}{}
	}
	return nil
}
