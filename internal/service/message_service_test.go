package service

import (
	"errors"
	"testing"

	"github.com/habitloop/internal/db"
)

func TestMessageSendAndList(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	alice := db.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := db.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	if err := db.DB.Create(&alice).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := db.DB.Create(&bob).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	svc := NewMessageService(db.DB)

	if _, err := svc.Send(alice.ID, bob.ID, "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.Send(alice.ID, 999, "你好", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	first, err := svc.Send(alice.ID, bob.ID, "你好", nil)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	missing := uint(999)
	if _, err := svc.Send(bob.ID, alice.ID, "回复", &missing); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	reply, err := svc.Send(bob.ID, alice.ID, "你也好", &first.ID)
	if err != nil {
		t.Fatalf("Send reply returned error: %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != first.ID {
		t.Fatal("expected reply to reference original message")
	}

	views, err := svc.ListForUser(alice.ID)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(views))
	}
	if views[0].Sender != "bob" || views[0].Receiver != "alice" {
		t.Fatalf("unexpected latest message: %+v", views[0])
	}
}
