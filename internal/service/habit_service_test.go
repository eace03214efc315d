package service

import (
	"errors"
	"testing"

	"github.com/habitloop/internal/db"
)

func TestHabitAssignAndRemove(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewHabitService(db.DB)
	habit, err := svc.Create(1, HabitInput{Name: "晨跑", Frequency: "daily"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Assign(2, habit.ID); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if _, err := svc.Assign(2, habit.ID); !errors.Is(err, ErrHabitAlreadyAssigned) {
		t.Fatalf("expected ErrHabitAlreadyAssigned, got %v", err)
	}
	if _, err := svc.Assign(2, 999); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}

	assigned, err := svc.ListAssigned(2)
	if err != nil {
		t.Fatalf("ListAssigned returned error: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != habit.ID {
		t.Fatalf("unexpected assigned habits: %+v", assigned)
	}

	if err := svc.Remove(2, habit.ID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(2, habit.ID); !errors.Is(err, ErrHabitNotAssigned) {
		t.Fatalf("expected ErrHabitNotAssigned, got %v", err)
	}

	// 认领记录为物理删除，可以重新认领
	if _, err := svc.Assign(2, habit.ID); err != nil {
		t.Fatalf("re-assign returned error: %v", err)
	}
}

func TestHabitOwnerOnlyMutation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewHabitService(db.DB)
	habit, err := svc.Create(1, HabitInput{Name: "阅读"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Update(2, habit.ID, HabitInput{Name: "深度阅读"}); !errors.Is(err, ErrNotHabitOwner) {
		t.Fatalf("expected ErrNotHabitOwner, got %v", err)
	}
	if err := svc.Delete(2, habit.ID); !errors.Is(err, ErrNotHabitOwner) {
		t.Fatalf("expected ErrNotHabitOwner on delete, got %v", err)
	}

	updated, err := svc.Update(1, habit.ID, HabitInput{Name: "深度阅读", Frequency: "weekly"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "深度阅读" || updated.Frequency != "weekly" {
		t.Fatalf("unexpected habit after update: %+v", updated)
	}
}

func TestHabitDeleteCascades(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewHabitService(db.DB)
	habit, err := svc.Create(1, HabitInput{Name: "冥想"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Assign(2, habit.ID); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	entrySvc := NewHabitEntryService(db.DB)
	if _, err := entrySvc.Submit(2, HabitEntryInput{HabitID: habit.ID, Progress: "completed"}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	comment := db.Comment{Content: "不错", UserID: 2, HabitID: &habit.ID}
	if err := db.DB.Create(&comment).Error; err != nil {
		t.Fatalf("failed to insert comment: %v", err)
	}

	if err := svc.Delete(1, habit.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var count int64
	db.DB.Model(&db.UserHabit{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected assignments to be removed, got %d", count)
	}
	db.DB.Model(&db.HabitEntry{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected entries to be removed, got %d", count)
	}
	db.DB.Model(&db.Comment{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected comments to be removed, got %d", count)
	}
}

func TestHabitEntrySubmit(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	habit, err := habitSvc.Create(1, HabitInput{Name: "写日记"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	svc := NewHabitEntryService(db.DB)

	if _, err := svc.Submit(1, HabitEntryInput{HabitID: habit.ID, Progress: "done"}); !errors.Is(err, ErrInvalidProgress) {
		t.Fatalf("expected ErrInvalidProgress, got %v", err)
	}
	if _, err := svc.Submit(1, HabitEntryInput{HabitID: 999, Progress: "completed"}); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
	if _, err := svc.Submit(1, HabitEntryInput{HabitID: habit.ID, Progress: "completed"}); !errors.Is(err, ErrHabitNotAssigned) {
		t.Fatalf("expected ErrHabitNotAssigned, got %v", err)
	}

	if _, err := habitSvc.Assign(1, habit.ID); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	entry, err := svc.Submit(1, HabitEntryInput{HabitID: habit.ID, Progress: "Partial", Notes: " 只写了一半 "})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if entry.Progress != "partial" || entry.Notes != "只写了一半" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	// 同日重复打卡由唯一索引兜底
	if _, err := svc.Submit(1, HabitEntryInput{HabitID: habit.ID, Progress: "completed"}); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
}
