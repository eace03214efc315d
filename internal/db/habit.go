package db

import (
	"time"

	"gorm.io/gorm"
)

// Habit 定义了习惯模型
// Frequency 为自由文本（daily/weekly 等），由创建者维护
// UserID 为创建者，删除用户时由业务层显式级联清理
type Habit struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	Frequency   string
	UserID      uint `gorm:"index"`
}

// UserHabit 表示用户认领了某个习惯
// UserID + HabitID 采用唯一索引，同一习惯只能认领一次
type UserHabit struct {
	gorm.Model
	UserID    uint `gorm:"index;index:idx_user_habit_unique,unique"`
	HabitID   uint `gorm:"index:idx_user_habit_unique,unique"`
	StartDate time.Time
	EndDate   *time.Time
}

// HabitEntry 记录习惯打卡
// UserID + HabitID + EntryDate 唯一索引，保证每人每天每习惯至多一条
// Progress 仅允许 completed/partial/skipped
type HabitEntry struct {
	gorm.Model
	UserID    uint      `gorm:"index;index:idx_habit_entry_unique,unique"`
	HabitID   uint      `gorm:"index:idx_habit_entry_unique,unique"`
	EntryDate time.Time `gorm:"index:idx_habit_entry_unique,unique"`
	Progress  string    `gorm:"not null"`
	Notes     string
}
