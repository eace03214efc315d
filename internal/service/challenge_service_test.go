package service

import (
	"errors"
	"testing"
	"time"

	"github.com/habitloop/internal/db"
)

func TestChallengeCreateValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	start := time.Now().AddDate(0, 0, 3)

	if _, err := svc.Create(1, ChallengeInput{Name: "  ", StartDate: start, EndDate: start.AddDate(0, 0, 7)}); err == nil {
		t.Fatal("expected error for empty name")
	}

	// 开始必须严格早于结束，相等也不行
	if _, err := svc.Create(1, ChallengeInput{Name: "无糖挑战", StartDate: start, EndDate: start}); !errors.Is(err, ErrChallengeDateOrder) {
		t.Fatalf("expected ErrChallengeDateOrder for equal dates, got %v", err)
	}
	if _, err := svc.Create(1, ChallengeInput{Name: "无糖挑战", StartDate: start.AddDate(0, 0, 7), EndDate: start}); !errors.Is(err, ErrChallengeDateOrder) {
		t.Fatalf("expected ErrChallengeDateOrder, got %v", err)
	}

	challenge, err := svc.Create(1, ChallengeInput{Name: " 无糖挑战 ", StartDate: start, EndDate: start.AddDate(0, 0, 7)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if challenge.Name != "无糖挑战" {
		t.Fatalf("expected trimmed name, got %q", challenge.Name)
	}
}

func TestChallengeOwnerOnlyMutation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	start := time.Now().AddDate(0, 0, 3)
	challenge, err := svc.Create(1, ChallengeInput{Name: "早起挑战", StartDate: start, EndDate: start.AddDate(0, 0, 30)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	input := ChallengeInput{Name: "早起挑战 v2", StartDate: start, EndDate: start.AddDate(0, 0, 14)}
	if _, err := svc.Update(2, challenge.ID, input); !errors.Is(err, ErrNotChallengeOwner) {
		t.Fatalf("expected ErrNotChallengeOwner, got %v", err)
	}
	if err := svc.Delete(2, challenge.ID); !errors.Is(err, ErrNotChallengeOwner) {
		t.Fatalf("expected ErrNotChallengeOwner on delete, got %v", err)
	}

	updated, err := svc.Update(1, challenge.ID, input)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "早起挑战 v2" {
		t.Fatalf("expected name to update, got %s", updated.Name)
	}
}

func TestChallengeDeleteCascades(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	start := time.Now().AddDate(0, 0, 3)
	challenge, err := svc.Create(1, ChallengeInput{Name: "阅读挑战", StartDate: start, EndDate: start.AddDate(0, 0, 7)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	participant := db.ChallengeParticipant{UserID: 2, ChallengeID: challenge.ID, JoinedDate: time.Now()}
	if err := db.DB.Create(&participant).Error; err != nil {
		t.Fatalf("failed to insert participant: %v", err)
	}
	entry := db.ChallengeEntry{UserID: 2, ChallengeID: challenge.ID, EntryDate: normalizeToDate(time.Now()), Progress: "completed"}
	if err := db.DB.Create(&entry).Error; err != nil {
		t.Fatalf("failed to insert entry: %v", err)
	}
	comment := db.Comment{Content: "加油", UserID: 2, ChallengeID: &challenge.ID}
	if err := db.DB.Create(&comment).Error; err != nil {
		t.Fatalf("failed to insert comment: %v", err)
	}

	if err := svc.Delete(1, challenge.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var count int64
	db.DB.Model(&db.ChallengeParticipant{}).Where("challenge_id = ?", challenge.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected participants to be removed, got %d", count)
	}
	db.DB.Model(&db.ChallengeEntry{}).Where("challenge_id = ?", challenge.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected entries to be removed, got %d", count)
	}
	db.DB.Model(&db.Comment{}).Where("challenge_id = ?", challenge.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected comments to be removed, got %d", count)
	}

	if _, err := svc.Get(challenge.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after delete, got %v", err)
	}
}

func TestChallengeStatusDerivation(t *testing.T) {
	today := time.Date(2026, 8, 31, 15, 30, 0, 0, time.Local)
	challenge := db.Challenge{
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local),
	}

	if got := ChallengeStatus(challenge, today); got != "upcoming" {
		t.Fatalf("expected upcoming, got %s", got)
	}
	// 开始与结束当天均算进行中
	if got := ChallengeStatus(challenge, challenge.StartDate); got != "active" {
		t.Fatalf("expected active on start day, got %s", got)
	}
	if got := ChallengeStatus(challenge, challenge.EndDate.Add(23*time.Hour)); got != "active" {
		t.Fatalf("expected active on end day, got %s", got)
	}
	if got := ChallengeStatus(challenge, challenge.EndDate.AddDate(0, 0, 1)); got != "ended" {
		t.Fatalf("expected ended, got %s", got)
	}
}
