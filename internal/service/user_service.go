package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/habitloop/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken 当用户名已被占用时返回
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken 当邮箱已被占用时返回
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials 当用户名或密码不匹配时返回
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserService 负责注册、登录校验与用户数据管理
type UserService struct {
	db *gorm.DB
}

// RegisterInput 定义注册时的必填与可选字段
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Bio       string
	AvatarURL string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register 创建新用户，用户名与邮箱唯一
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		Bio:       strings.TrimSpace(input.Bio),
		AvatarURL: strings.TrimSpace(input.AvatarURL),
	}
	if err := s.db.Create(&user).Error; err != nil {
		// 并发注册同名账号时唯一约束兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验用户名与密码
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// List 返回全部用户
func (s *UserService) List() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateAvatar 更新用户头像地址
func (s *UserService) UpdateAvatar(id uint, avatarURL string) error {
	res := s.db.Model(&db.User{}).Where("id = ?", id).Update("avatar_url", avatarURL)
	if res.Error != nil {
		return fmt.Errorf("update avatar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete 删除用户并显式级联清理其全部归属数据
// 级联顺序：先清理用户创建的挑战/习惯的从属记录，再清理用户自身的
// 参与、打卡、私信与评论，最后删除用户本身，全程单事务
func (s *UserService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}

		var challengeIDs []uint
		if err := tx.Model(&db.Challenge{}).Where("created_by = ?", id).Pluck("id", &challengeIDs).Error; err != nil {
			return fmt.Errorf("list owned challenges: %w", err)
		}
		if len(challengeIDs) > 0 {
			if err := tx.Unscoped().Where("challenge_id IN ?", challengeIDs).Delete(&db.ChallengeParticipant{}).Error; err != nil {
				return fmt.Errorf("delete owned challenge participants: %w", err)
			}
			if err := tx.Unscoped().Where("challenge_id IN ?", challengeIDs).Delete(&db.ChallengeEntry{}).Error; err != nil {
				return fmt.Errorf("delete owned challenge entries: %w", err)
			}
			if err := tx.Unscoped().Where("challenge_id IN ?", challengeIDs).Delete(&db.Comment{}).Error; err != nil {
				return fmt.Errorf("delete owned challenge comments: %w", err)
			}
			if err := tx.Unscoped().Where("created_by = ?", id).Delete(&db.Challenge{}).Error; err != nil {
				return fmt.Errorf("delete owned challenges: %w", err)
			}
		}

		var habitIDs []uint
		if err := tx.Model(&db.Habit{}).Where("user_id = ?", id).Pluck("id", &habitIDs).Error; err != nil {
			return fmt.Errorf("list owned habits: %w", err)
		}
		if len(habitIDs) > 0 {
			if err := tx.Unscoped().Where("habit_id IN ?", habitIDs).Delete(&db.UserHabit{}).Error; err != nil {
				return fmt.Errorf("delete owned habit assignments: %w", err)
			}
			if err := tx.Unscoped().Where("habit_id IN ?", habitIDs).Delete(&db.HabitEntry{}).Error; err != nil {
				return fmt.Errorf("delete owned habit entries: %w", err)
			}
			if err := tx.Unscoped().Where("habit_id IN ?", habitIDs).Delete(&db.Comment{}).Error; err != nil {
				return fmt.Errorf("delete owned habit comments: %w", err)
			}
			if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.Habit{}).Error; err != nil {
				return fmt.Errorf("delete owned habits: %w", err)
			}
		}

		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.ChallengeParticipant{}).Error; err != nil {
			return fmt.Errorf("delete participations: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.ChallengeEntry{}).Error; err != nil {
			return fmt.Errorf("delete challenge entries: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.UserHabit{}).Error; err != nil {
			return fmt.Errorf("delete habit assignments: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.HabitEntry{}).Error; err != nil {
			return fmt.Errorf("delete habit entries: %w", err)
		}
		if err := tx.Unscoped().Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&db.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.User{}, id).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
