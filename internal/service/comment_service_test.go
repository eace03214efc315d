package service

import (
	"errors"
	"testing"
	"time"

	"github.com/habitloop/internal/db"
)

func TestCommentTargetValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewCommentService(db.DB)
	habitID := uint(1)
	challengeID := uint(1)

	if _, err := svc.Create(1, CommentInput{Content: "加油"}); !errors.Is(err, ErrCommentTarget) {
		t.Fatalf("expected ErrCommentTarget for no target, got %v", err)
	}
	if _, err := svc.Create(1, CommentInput{Content: "加油", HabitID: &habitID, ChallengeID: &challengeID}); !errors.Is(err, ErrCommentTarget) {
		t.Fatalf("expected ErrCommentTarget for both targets, got %v", err)
	}
	if _, err := svc.Create(1, CommentInput{Content: "加油", HabitID: &habitID}); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
	if _, err := svc.Create(1, CommentInput{Content: "加油", ChallengeID: &challengeID}); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestCommentSanitization(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	user := db.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	habit := db.Habit{Name: "晨跑", UserID: user.ID}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	svc := NewCommentService(db.DB)

	comment, err := svc.Create(user.ID, CommentInput{Content: "<b>加油</b><script>alert(1)</script>", HabitID: &habit.ID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if comment.Content != "加油" {
		t.Fatalf("expected sanitized content, got %q", comment.Content)
	}

	// 净化后为空视同空评论
	if _, err := svc.Create(user.ID, CommentInput{Content: "<script>alert(1)</script>", HabitID: &habit.ID}); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}
}

func TestCommentListIncludesUsername(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	user := db.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	challenge := db.Challenge{
		Name:      "早起挑战",
		CreatedBy: user.ID,
		StartDate: normalizeToDate(time.Now().AddDate(0, 0, 3)),
		EndDate:   normalizeToDate(time.Now().AddDate(0, 0, 33)),
	}
	if err := db.DB.Create(&challenge).Error; err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}

	svc := NewCommentService(db.DB)
	if _, err := svc.Create(user.ID, CommentInput{Content: "一起加油", ChallengeID: &challenge.ID}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	views, err := svc.ListForChallenge(challenge.ID)
	if err != nil {
		t.Fatalf("ListForChallenge returned error: %v", err)
	}
	if len(views) != 1 || views[0].User != "alice" {
		t.Fatalf("unexpected comments: %+v", views)
	}
	if views[0].ChallengeID == nil || *views[0].ChallengeID != challenge.ID {
		t.Fatal("expected challenge target on comment view")
	}
}
