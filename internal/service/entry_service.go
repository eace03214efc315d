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
	// ErrChallengeNotActive 当挑战不在进行窗口内时返回
	ErrChallengeNotActive = errors.New("challenge is not active")
	// ErrMustJoinFirst 当用户未加入挑战却尝试打卡时返回
	ErrMustJoinFirst = errors.New("must join the challenge first")
	// ErrDuplicateEntry 当同一天重复打卡时返回
	ErrDuplicateEntry = errors.New("entry already submitted for this day")
	// ErrInvalidProgress 当进度取值不在枚举内时返回
	ErrInvalidProgress = errors.New("invalid progress value")
)

// ValidProgress 校验进度枚举，统一用于习惯与挑战打卡
func ValidProgress(value string) bool {
	switch value {
	case "completed", "partial", "skipped":
		return true
	}
	return false
}

// ChallengeEntryService 负责挑战打卡的提交与查询
// 提交在单事务内完成全部校验，唯一索引兜底并发下的同日重复
type ChallengeEntryService struct {
	db *gorm.DB
}

// ChallengeEntryView 为带用户名注解的打卡记录
type ChallengeEntryView struct {
	ID          uint
	UserID      uint
	Username    string
	ChallengeID uint
	EntryDate   time.Time
	Progress    string
}

// NewChallengeEntryService 构造 ChallengeEntryService
func NewChallengeEntryService(gdb *gorm.DB) *ChallengeEntryService {
	return &ChallengeEntryService{db: gdb}
}

// Submit 提交今日打卡
// 校验顺序：挑战存在 → 挑战进行中 → 用户已加入 → 今日未打卡。
func (s *ChallengeEntryService) Submit(userID, challengeID uint, progress string) (*db.ChallengeEntry, error) {
	progress = strings.ToLower(strings.TrimSpace(progress))
	if !ValidProgress(progress) {
		return nil, ErrInvalidProgress
	}

	var entry db.ChallengeEntry

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var challenge db.Challenge
		if err := tx.First(&challenge, challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return fmt.Errorf("find challenge: %w", err)
		}

		today := normalizeToDate(time.Now())
		if ChallengeStatus(challenge, today) != "active" {
			return ErrChallengeNotActive
		}

		var joined int64
		if err := tx.Model(&db.ChallengeParticipant{}).
			Where("user_id = ? AND challenge_id = ?", userID, challengeID).
			Count(&joined).Error; err != nil {
			return fmt.Errorf("count participation: %w", err)
		}
		if joined == 0 {
			return ErrMustJoinFirst
		}

		var existing int64
		if err := tx.Model(&db.ChallengeEntry{}).
			Where("user_id = ? AND challenge_id = ? AND entry_date = ?", userID, challengeID, today).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateEntry
		}

		entry = db.ChallengeEntry{
			UserID:      userID,
			ChallengeID: challengeID,
			EntryDate:   today,
			Progress:    progress,
		}
		if err := tx.Create(&entry).Error; err != nil {
			// 并发下预检查可能同时通过，唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntry
			}
			return fmt.Errorf("create entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForUser 返回用户的全部打卡记录，按日期倒序
func (s *ChallengeEntryService) ListForUser(userID uint) ([]db.ChallengeEntry, error) {
	var entries []db.ChallengeEntry
	if err := s.db.Where("user_id = ?", userID).
		Order("entry_date DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// ListForChallenge 返回挑战下的全部打卡记录，附带提交者用户名
func (s *ChallengeEntryService) ListForChallenge(challengeID uint) ([]ChallengeEntryView, error) {
	var rows []ChallengeEntryView
	if err := s.db.Model(&db.ChallengeEntry{}).
		Select("challenge_entries.id AS id, challenge_entries.user_id AS user_id, users.username AS username, challenge_entries.challenge_id AS challenge_id, challenge_entries.entry_date AS entry_date, challenge_entries.progress AS progress").
		Joins("JOIN users ON users.id = challenge_entries.user_id").
		Where("challenge_entries.challenge_id = ?", challengeID).
		Order("challenge_entries.entry_date DESC, challenge_entries.id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list challenge entries: %w", err)
	}
	return rows, nil
}
