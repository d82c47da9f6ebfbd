package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id uint) session.Identity {
	t.Helper()
	profile := database.Profile{
		Model:        gorm.Model{ID: id},
		Email:        fmt.Sprintf("user%d@example.com", id),
		PasswordHash: "x",
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return session.Identity{UserID: id}
}

func seedSkills(t *testing.T, db *gorm.DB, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		skill := database.Skill{Name: name, Category: "testing"}
		if err := db.Create(&skill).Error; err != nil {
			t.Fatalf("seed skill %s: %v", name, err)
		}
		ids = append(ids, skill.ID)
	}
	return ids
}

func TestStore_UnauthenticatedShortCircuits(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)

	calls := []struct {
		name string
		run  func() error
	}{
		{"get profile", func() error { _, err := s.GetProfile(ctx, session.Anonymous); return err }},
		{"update profile", func() error {
			_, err := s.UpdateProfileInfo(ctx, session.Anonymous, ProfileInfo{FullName: "x"})
			return err
		}},
		{"complete onboarding", func() error { return s.CompleteOnboarding(ctx, session.Anonymous) }},
		{"list skills", func() error { _, err := s.ListSkillSelections(ctx, session.Anonymous); return err }},
		{"replace skills", func() error { return s.ReplaceSkillSelections(ctx, session.Anonymous, nil) }},
		{"create resume", func() error { _, err := s.CreateResume(ctx, session.Anonymous, NewResume{}); return err }},
		{"list resumes", func() error { _, err := s.ListResumes(ctx, session.Anonymous); return err }},
		{"set master", func() error { return s.SetMasterResume(ctx, session.Anonymous, 1) }},
		{"delete resume", func() error { return s.DeleteResume(ctx, session.Anonymous, 1) }},
		{"append message", func() error {
			_, err := s.AppendChatMessage(ctx, session.Anonymous, NewChatMessage{ThreadID: "t", Role: "user", Content: "hi"})
			return err
		}},
		{"list messages", func() error { _, err := s.ListThreadMessages(ctx, session.Anonymous, "t"); return err }},
		{"save job", func() error { _, err := s.SaveJob(ctx, session.Anonymous, NewSavedJob{JobTitle: "x"}); return err }},
	}

	for _, call := range calls {
		err := call.run()
		if !errors.Is(err, session.ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", call.name, err)
		}
	}

	var count int64
	if err := db.Model(&database.ChatMessage{}).Count(&count).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("unauthenticated call reached the database: %d rows", count)
	}
}

func TestUpdateProfileInfo_WritesOnlyCallerRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	alice := seedProfile(t, db, 1)
	bob := seedProfile(t, db, 2)

	updated, err := s.UpdateProfileInfo(ctx, alice, ProfileInfo{
		FullName:    "Alice Doe",
		PhoneNumber: "+1 555 0100",
		LinkedinURL: "https://linkedin.com/in/alice",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Alice Doe" {
		t.Fatalf("update not applied: %+v", updated)
	}

	other, err := s.GetProfile(ctx, bob)
	if err != nil {
		t.Fatalf("get other profile: %v", err)
	}
	if other.FullName != "" {
		t.Fatalf("neighbour profile mutated: %+v", other)
	}
}

func TestUpdateProfileInfo_ClearsOptionalFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)

	if _, err := s.UpdateProfileInfo(ctx, id, ProfileInfo{FullName: "Alice", PhoneNumber: "5550100", LinkedinURL: "https://linkedin.com/in/alice"}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	updated, err := s.UpdateProfileInfo(ctx, id, ProfileInfo{FullName: "Alice"})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.PhoneNumber != "" || updated.LinkedinURL != "" {
		t.Fatalf("cleared fields survived: %+v", updated)
	}
}

func TestGetProfile_MissingRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	seedProfile(t, db, 1)

	_, err := s.GetProfile(ctx, session.Identity{UserID: 42})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestCompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)

	if err := s.CompleteOnboarding(ctx, id); err != nil {
		t.Fatalf("complete onboarding: %v", err)
	}
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !profile.OnboardingCompleted {
		t.Fatal("onboarding_completed not set")
	}
}
