package store

import (
	"context"
	"testing"

	"jobpilot/internal/database"
)

func TestReplaceSkillSelections_FullReplace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)
	skillIDs := seedSkills(t, db, "Go", "SQL", "Kubernetes")

	first := []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyAdvanced},
		{SkillID: skillIDs[1], ProficiencyLevel: database.ProficiencyBeginner},
	}
	if err := s.ReplaceSkillSelections(ctx, id, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []SkillSelection{
		{SkillID: skillIDs[2], ProficiencyLevel: database.ProficiencyIntermediate},
	}
	if err := s.ReplaceSkillSelections(ctx, id, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	selections, err := s.ListSkillSelections(ctx, id)
	if err != nil {
		t.Fatalf("list selections: %v", err)
	}
	if len(selections) != 1 {
		t.Fatalf("expected full replace, got %d rows", len(selections))
	}
	if selections[0].SkillID != skillIDs[2] || selections[0].ProficiencyLevel != database.ProficiencyIntermediate {
		t.Fatalf("unexpected selection: %+v", selections[0])
	}
}

func TestReplaceSkillSelections_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)
	skillIDs := seedSkills(t, db, "Go", "SQL")

	set := []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyAdvanced},
		{SkillID: skillIDs[1], ProficiencyLevel: database.ProficiencyBeginner},
	}
	for i := 0; i < 3; i++ {
		if err := s.ReplaceSkillSelections(ctx, id, set); err != nil {
			t.Fatalf("replace attempt %d: %v", i, err)
		}
	}

	selections, err := s.ListSkillSelections(ctx, id)
	if err != nil {
		t.Fatalf("list selections: %v", err)
	}
	if len(selections) != 2 {
		t.Fatalf("repeated replace is not idempotent: %d rows", len(selections))
	}
}

func TestReplaceSkillSelections_DuplicatesCollapseToLast(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)
	skillIDs := seedSkills(t, db, "Go")

	set := []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyBeginner},
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyAdvanced},
	}
	if err := s.ReplaceSkillSelections(ctx, id, set); err != nil {
		t.Fatalf("replace: %v", err)
	}

	selections, err := s.ListSkillSelections(ctx, id)
	if err != nil {
		t.Fatalf("list selections: %v", err)
	}
	if len(selections) != 1 {
		t.Fatalf("expected one row, got %d", len(selections))
	}
	if selections[0].ProficiencyLevel != database.ProficiencyAdvanced {
		t.Fatalf("expected last occurrence to win, got %q", selections[0].ProficiencyLevel)
	}
}

func TestReplaceSkillSelections_RejectsInvalidProficiency(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	id := seedProfile(t, db, 1)
	skillIDs := seedSkills(t, db, "Go")

	if err := s.ReplaceSkillSelections(ctx, id, []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyAdvanced},
	}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	err := s.ReplaceSkillSelections(ctx, id, []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: "wizard"},
	})
	if err == nil {
		t.Fatal("expected error for invalid proficiency")
	}

	selections, listErr := s.ListSkillSelections(ctx, id)
	if listErr != nil {
		t.Fatalf("list selections: %v", listErr)
	}
	if len(selections) != 1 {
		t.Fatalf("rejected replace must leave the old set intact, got %d rows", len(selections))
	}
}

func TestReplaceSkillSelections_DoesNotTouchOtherUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)
	alice := seedProfile(t, db, 1)
	bob := seedProfile(t, db, 2)
	skillIDs := seedSkills(t, db, "Go", "SQL")

	if err := s.ReplaceSkillSelections(ctx, bob, []SkillSelection{
		{SkillID: skillIDs[0], ProficiencyLevel: database.ProficiencyBeginner},
	}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}

	if err := s.ReplaceSkillSelections(ctx, alice, []SkillSelection{
		{SkillID: skillIDs[1], ProficiencyLevel: database.ProficiencyAdvanced},
	}); err != nil {
		t.Fatalf("replace alice: %v", err)
	}

	bobSelections, err := s.ListSkillSelections(ctx, bob)
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(bobSelections) != 1 || bobSelections[0].SkillID != skillIDs[0] {
		t.Fatalf("neighbour skill set mutated: %+v", bobSelections)
	}
}
