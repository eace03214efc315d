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
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrNotHabitOwner 当非创建者尝试修改/删除习惯时返回
	ErrNotHabitOwner = errors.New("not the habit creator")
	// ErrHabitAlreadyAssigned 当用户重复认领同一习惯时返回
	ErrHabitAlreadyAssigned = errors.New("habit already assigned")
	// ErrHabitNotAssigned 当用户未认领习惯却尝试操作时返回
	ErrHabitNotAssigned = errors.New("habit not assigned")
)

// HabitService 负责习惯的增删改查与认领关系
type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name        string
	Description string
	Frequency   string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，按创建顺序倒序
func (s *HabitService) List() ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.Order("id DESC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(userID uint, input HabitInput) (*db.Habit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("habit name is required")
	}

	habit := db.Habit{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Frequency:   strings.TrimSpace(input.Frequency),
		UserID:      userID,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯，仅允许创建者操作
func (s *HabitService) Update(userID, id uint, input HabitInput) (*db.Habit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("habit name is required")
	}

	var existing db.Habit
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	if existing.UserID != userID {
		return nil, ErrNotHabitOwner
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Frequency = strings.TrimSpace(input.Frequency)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &existing, nil
}

// Delete 删除习惯并显式级联清理认领、打卡与评论记录
func (s *HabitService) Delete(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Habit
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return fmt.Errorf("find habit: %w", err)
		}

		if existing.UserID != userID {
			return ErrNotHabitOwner
		}

		if err := tx.Unscoped().Where("habit_id = ?", id).Delete(&db.UserHabit{}).Error; err != nil {
			return fmt.Errorf("delete user habits: %w", err)
		}
		if err := tx.Unscoped().Where("habit_id = ?", id).Delete(&db.HabitEntry{}).Error; err != nil {
			return fmt.Errorf("delete habit entries: %w", err)
		}
		if err := tx.Unscoped().Where("habit_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return fmt.Errorf("delete habit comments: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.Habit{}, id).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// Assign 让用户认领习惯，重复认领返回冲突
func (s *HabitService) Assign(userID, habitID uint) (*db.UserHabit, error) {
	var assignment db.UserHabit

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var habit db.Habit
		if err := tx.First(&habit, habitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return fmt.Errorf("find habit: %w", err)
		}

		assignment = db.UserHabit{
			UserID:    userID,
			HabitID:   habitID,
			StartDate: normalizeToDate(time.Now()),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitAlreadyAssigned
			}
			return fmt.Errorf("assign habit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Remove 解除用户与习惯的认领关系
func (s *HabitService) Remove(userID, habitID uint) error {
	res := s.db.Unscoped().
		Where("user_id = ? AND habit_id = ?", userID, habitID).
		Delete(&db.UserHabit{})
	if res.Error != nil {
		return fmt.Errorf("remove habit assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHabitNotAssigned
	}
	return nil
}

// ListAssigned 返回用户认领的习惯
func (s *HabitService) ListAssigned(userID uint) ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.Model(&db.Habit{}).
		Joins("JOIN user_habits ON user_habits.habit_id = habits.id").
		Where("user_habits.user_id = ?", userID).
		Order("user_habits.start_date ASC, habits.id ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list assigned habits: %w", err)
	}
	return habits, nil
}

// HabitEntryService 负责习惯打卡的提交与查询
// 与挑战打卡共用进度枚举与同日唯一规则
type HabitEntryService struct {
	db *gorm.DB
}

// HabitEntryInput 定义习惯打卡输入
type HabitEntryInput struct {
	HabitID  uint
	Progress string
	Notes    string
}

// NewHabitEntryService 构造 HabitEntryService
func NewHabitEntryService(gdb *gorm.DB) *HabitEntryService {
	return &HabitEntryService{db: gdb}
}

// Submit 提交今日习惯打卡
// 校验顺序：习惯存在 → 用户已认领 → 今日未打卡。
func (s *HabitEntryService) Submit(userID uint, input HabitEntryInput) (*db.HabitEntry, error) {
	progress := strings.ToLower(strings.TrimSpace(input.Progress))
	if !ValidProgress(progress) {
		return nil, ErrInvalidProgress
	}

	var entry db.HabitEntry

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var habit db.Habit
		if err := tx.First(&habit, input.HabitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return fmt.Errorf("find habit: %w", err)
		}

		var assigned int64
		if err := tx.Model(&db.UserHabit{}).
			Where("user_id = ? AND habit_id = ?", userID, input.HabitID).
			Count(&assigned).Error; err != nil {
			return fmt.Errorf("count assignment: %w", err)
		}
		if assigned == 0 {
			return ErrHabitNotAssigned
		}

		today := normalizeToDate(time.Now())
		entry = db.HabitEntry{
			UserID:    userID,
			HabitID:   input.HabitID,
			EntryDate: today,
			Progress:  progress,
			Notes:     strings.TrimSpace(input.Notes),
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntry
			}
			return fmt.Errorf("create habit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForUser 返回用户的全部习惯打卡记录，按日期倒序
func (s *HabitEntryService) ListForUser(userID uint) ([]db.HabitEntry, error) {
	var entries []db.HabitEntry
	if err := s.db.Where("user_id = ?", userID).
		Order("entry_date DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list habit entries: %w", err)
	}
	return entries, nil
}
