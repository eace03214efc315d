package db

import "gorm.io/gorm"

// Message 定义了用户间私信
// ReplyToID 可选，指向被回复的消息
type Message struct {
	gorm.Model
	SenderID   uint   `gorm:"index;not null"`
	ReceiverID uint   `gorm:"index;not null"`
	Content    string `gorm:"not null"`
	ReplyToID  *uint
}

// Comment 定义了评论模型
// HabitID 与 ChallengeID 二选一，由业务层保证恰好指向一个目标
type Comment struct {
	gorm.Model
	Content     string `gorm:"not null"`
	UserID      uint   `gorm:"index;not null"`
	HabitID     *uint  `gorm:"index"`
	ChallengeID *uint  `gorm:"index"`
}
