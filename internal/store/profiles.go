package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

// ErrProfileNotFound reports that the caller has no profile row yet.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileInfo is the personal-info fragment the onboarding flow collects.
// Empty optional fields are written as empty strings, matching a cleared form.
type ProfileInfo struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	LinkedinURL string `json:"linkedin_url"`
}

// GetProfile returns the caller's profile.
func (s *Store) GetProfile(ctx context.Context, id session.Identity) (*database.Profile, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var profile database.Profile
	if err := s.db.WithContext(ctx).First(&profile, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, failed("profile.get", err)
	}
	return &profile, nil
}

// UpdateProfileInfo persists the personal-info fragment onto the caller's
// profile. The identity is the row filter; no other profile is reachable.
func (s *Store) UpdateProfileInfo(ctx context.Context, id session.Identity, info ProfileInfo) (*database.Profile, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"full_name":    info.FullName,
		"phone_number": info.PhoneNumber,
		"linkedin_url": info.LinkedinURL,
	}
	if err := s.db.WithContext(ctx).
		Model(&database.Profile{}).
		Where("id = ?", id.UserID).
		Updates(updates).Error; err != nil {
		return nil, failed("profile.update", err)
	}

	var profile database.Profile
	if err := s.db.WithContext(ctx).First(&profile, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, failed("profile.update", err)
	}
	return &profile, nil
}

// CompleteOnboarding marks the caller's profile as onboarded. This is the
// terminal write of the step flow.
func (s *Store) CompleteOnboarding(ctx context.Context, id session.Identity) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Model(&database.Profile{}).
		Where("id = ?", id.UserID).
		Update("onboarding_completed", true).Error
	return failed("profile.complete_onboarding", err)
}
