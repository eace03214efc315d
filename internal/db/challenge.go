package db

import (
	"time"

	"gorm.io/gorm"
)

// Challenge 定义了挑战模型
// StartDate 必须早于 EndDate，由业务层在创建/更新时校验
// CreatedBy 为创建者，删除时显式级联清理参与与打卡记录
type Challenge struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	CreatedBy   uint      `gorm:"index"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
}

// ChallengeParticipant 表示用户加入了某个挑战
// UserID + ChallengeID 唯一索引：同一用户对同一挑战至多一条参与记录，
// 退出即物理删除，之后允许重新加入
type ChallengeParticipant struct {
	gorm.Model
	UserID      uint `gorm:"index;index:idx_challenge_participant_unique,unique"`
	ChallengeID uint `gorm:"index:idx_challenge_participant_unique,unique"`
	JoinedDate  time.Time
	Reason      string
}

// ChallengeEntry 记录挑战打卡
// UserID + ChallengeID + EntryDate 唯一索引，保证每人每天每挑战至多一条
// Progress 仅允许 completed/partial/skipped
type ChallengeEntry struct {
	gorm.Model
	UserID      uint      `gorm:"index;index:idx_challenge_entry_unique,unique"`
	ChallengeID uint      `gorm:"index:idx_challenge_entry_unique,unique"`
	EntryDate   time.Time `gorm:"index:idx_challenge_entry_unique,unique"`
	Progress    string    `gorm:"not null"`
}
