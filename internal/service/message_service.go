package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitloop/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrMessageNotFound 在被回复的消息不存在时返回
	ErrMessageNotFound = errors.New("message not found")
	// ErrEmptyMessage 当消息内容为空时返回
	ErrEmptyMessage = errors.New("message content is required")
)

// MessageService 负责用户间私信
type MessageService struct {
	db *gorm.DB
}

// MessageView 为附带双方用户名的私信
type MessageView struct {
	ID         uint
	SenderID   uint
	Sender     string
	ReceiverID uint
	Receiver   string
	Content    string
	ReplyToID  *uint
	SentAt     time.Time
}

// NewMessageService 构造 MessageService
func NewMessageService(gdb *gorm.DB) *MessageService {
	return &MessageService{db: gdb}
}

// Send 发送私信，可选指定被回复的消息
func (s *MessageService) Send(senderID, receiverID uint, content string, replyToID *uint) (*db.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	var receiver db.User
	if err := s.db.First(&receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find receiver: %w", err)
	}

	if replyToID != nil {
		var parent db.Message
		if err := s.db.First(&parent, *replyToID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrMessageNotFound
			}
			return nil, fmt.Errorf("find parent message: %w", err)
		}
	}

	message := db.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		ReplyToID:  replyToID,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &message, nil
}

// ListForUser 返回用户收发的全部私信，按时间倒序并附带用户名
func (s *MessageService) ListForUser(userID uint) ([]MessageView, error) {
	var rows []struct {
		ID         uint
		SenderID   uint
		Sender     string
		ReceiverID uint
		Receiver   string
		Content    string
		ReplyToID  *uint
		CreatedAt  time.Time
	}

	if err := s.db.Model(&db.Message{}).
		Select("messages.id AS id, messages.sender_id AS sender_id, senders.username AS sender, messages.receiver_id AS receiver_id, receivers.username AS receiver, messages.content AS content, messages.reply_to_id AS reply_to_id, messages.created_at AS created_at").
		Joins("JOIN users AS senders ON senders.id = messages.sender_id").
		Joins("JOIN users AS receivers ON receivers.id = messages.receiver_id").
		Where("messages.sender_id = ? OR messages.receiver_id = ?", userID, userID).
		Order("messages.created_at DESC, messages.id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	views := make([]MessageView, 0, len(rows))
	for _, row := range rows {
		views = append(views, MessageView{
			ID:         row.ID,
			SenderID:   row.SenderID,
			Sender:     row.Sender,
			ReceiverID: row.ReceiverID,
			Receiver:   row.Receiver,
			Content:    row.Content,
			ReplyToID:  row.ReplyToID,
			SentAt:     row.CreatedAt,
		})
	}
	return views, nil
}
