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
	// ErrChallengeNotFound 在指定挑战不存在时返回
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeDateOrder 当开始日期不早于结束日期时返回
	ErrChallengeDateOrder = errors.New("start date must be before end date")
	// ErrNotChallengeOwner 当非创建者尝试修改/删除挑战时返回
	ErrNotChallengeOwner = errors.New("not the challenge creator")
)

// ChallengeService 负责挑战元数据的增删改查
// 只有创建者可以修改或删除自己的挑战
type ChallengeService struct {
	db *gorm.DB
}

// ChallengeInput 定义创建/更新挑战时可配置字段
type ChallengeInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// NewChallengeService 构造 ChallengeService
func NewChallengeService(gdb *gorm.DB) *ChallengeService {
	return &ChallengeService{db: gdb}
}

// List 返回全部挑战，按创建顺序倒序
func (s *ChallengeService) List() ([]db.Challenge, error) {
	var challenges []db.Challenge
	if err := s.db.Order("id DESC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

// Get 根据 ID 获取挑战
func (s *ChallengeService) Get(id uint) (*db.Challenge, error) {
	var challenge db.Challenge
	if err := s.db.First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return &challenge, nil
}

// Create 新建挑战，校验名称与日期区间
func (s *ChallengeService) Create(userID uint, input ChallengeInput) (*db.Challenge, error) {
	if err := validateChallengeInput(input); err != nil {
		return nil, err
	}

	challenge := db.Challenge{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   userID,
		StartDate:   normalizeToDate(input.StartDate),
		EndDate:     normalizeToDate(input.EndDate),
	}

	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return &challenge, nil
}

// Update 更新挑战，仅允许创建者操作
func (s *ChallengeService) Update(userID, id uint, input ChallengeInput) (*db.Challenge, error) {
	if err := validateChallengeInput(input); err != nil {
		return nil, err
	}

	var existing db.Challenge
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("find challenge: %w", err)
	}

	if existing.CreatedBy != userID {
		return nil, ErrNotChallengeOwner
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.StartDate = normalizeToDate(input.StartDate)
	existing.EndDate = normalizeToDate(input.EndDate)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return &existing, nil
}

// Delete 删除挑战并显式级联清理参与、打卡与评论记录
func (s *ChallengeService) Delete(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Challenge
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return fmt.Errorf("find challenge: %w", err)
		}

		if existing.CreatedBy != userID {
			return ErrNotChallengeOwner
		}

		if err := tx.Unscoped().Where("challenge_id = ?", id).Delete(&db.ChallengeParticipant{}).Error; err != nil {
			return fmt.Errorf("delete challenge participants: %w", err)
		}
		if err := tx.Unscoped().Where("challenge_id = ?", id).Delete(&db.ChallengeEntry{}).Error; err != nil {
			return fmt.Errorf("delete challenge entries: %w", err)
		}
		if err := tx.Unscoped().Where("challenge_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return fmt.Errorf("delete challenge comments: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.Challenge{}, id).Error; err != nil {
			return fmt.Errorf("delete challenge: %w", err)
		}
		return nil
	})
}

func validateChallengeInput(input ChallengeInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("challenge name is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return fmt.Errorf("challenge dates are required")
	}
	if !normalizeToDate(input.StartDate).Before(normalizeToDate(input.EndDate)) {
		return ErrChallengeDateOrder
	}
	return nil
}

// ChallengeStatus 根据日期区间派生挑战状态
func ChallengeStatus(challenge db.Challenge, today time.Time) string {
	day := normalizeToDate(today)
	switch {
	case day.Before(normalizeToDate(challenge.StartDate)):
		return "upcoming"
	case day.After(normalizeToDate(challenge.EndDate)):
		return "ended"
	default:
		return "active"
	}
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
