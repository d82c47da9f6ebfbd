package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

// ErrResumeNotFound reports a lookup miss scoped to the caller's resumes.
var ErrResumeNotFound = errors.New("resume not found")

// NewResume describes an upload whose binary already landed in object storage.
type NewResume struct {
	ObjectKey string
	FileURL   string
	FileName  string
}

// CreateResume inserts a resume record and designates it the master. The
// unset-previous-master and insert steps share one transaction, so two
// concurrent uploads for the same user cannot both end up master.
func (s *Store) CreateResume(ctx context.Context, id session.Identity, upload NewResume) (*database.Resume, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	resume := database.Resume{
		ProfileID: id.UserID,
		ObjectKey: upload.ObjectKey,
		FileURL:   upload.FileURL,
		FileName:  upload.FileName,
		IsMaster:  true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.Resume{}).
			Where("profile_id = ? AND is_master = ?", id.UserID, true).
			Update("is_master", false).Error; err != nil {
			return err
		}
		return tx.Create(&resume).Error
	})
	if err != nil {
		return nil, failed("resumes.create", err)
	}
	return &resume, nil
}

// ListResumes lists the caller's resumes, newest first.
func (s *Store) ListResumes(ctx context.Context, id session.Identity) ([]database.Resume, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var resumes []database.Resume
	if err := s.db.WithContext(ctx).
		Where("profile_id = ?", id.UserID).
		Order("created_at DESC").
		Find(&resumes).Error; err != nil {
		return nil, failed("resumes.list", err)
	}
	return resumes, nil
}

// GetResume returns one of the caller's resumes by id.
func (s *Store) GetResume(ctx context.Context, id session.Identity, resumeID uint) (*database.Resume, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var resume database.Resume
	err := s.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", resumeID, id.UserID).
		First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, failed("resumes.get", err)
	}
	return &resume, nil
}

// SetMasterResume designates resumeID as the caller's master resume. Unset
// and set run in one transaction per user, keeping the at-most-one-master
// invariant under concurrent calls.
func (s *Store) SetMasterResume(ctx context.Context, id session.Identity, resumeID uint) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&database.Resume{}).
			Where("id = ? AND profile_id = ?", resumeID, id.UserID).
			Update("is_master", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResumeNotFound
		}
		return tx.Model(&database.Resume{}).
			Where("profile_id = ? AND id <> ?", id.UserID, resumeID).
			Update("is_master", false).Error
	})
	if errors.Is(err, ErrResumeNotFound) {
		return err
	}
	return failed("resumes.set_master", err)
}

// DeleteResume removes one of the caller's resume records.
func (s *Store) DeleteResume(ctx context.Context, id session.Identity, resumeID uint) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", resumeID, id.UserID).
		Delete(&database.Resume{})
	if res.Error != nil {
		return failed("resumes.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// SetParsedContent records extracted resume text. Used by the worker, which
// acts on behalf of the resume's owner.
func (s *Store) SetParsedContent(ctx context.Context, resumeID uint, content string) error {
	err := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", resumeID).
		Update("parsed_content", content).Error
	return failed("resumes.set_parsed_content", err)
}
