package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitloop/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	// ErrCommentTarget 当评论目标缺失或同时指定两个目标时返回
	ErrCommentTarget = errors.New("comment must target exactly one habit or challenge")
	// ErrEmptyComment 当评论内容为空时返回
	ErrEmptyComment = errors.New("comment content is required")
)

// commentSanitizer 剥离评论中的全部标签，评论以纯文本存储
var commentSanitizer = bluemonday.StrictPolicy()

// CommentService 负责习惯与挑战下的评论
type CommentService struct {
	db *gorm.DB
}

// CommentInput 定义评论输入，HabitID 与 ChallengeID 恰好一个非空
type CommentInput struct {
	Content     string
	HabitID     *uint
	ChallengeID *uint
}

// CommentView 为附带用户名的评论
type CommentView struct {
	ID          uint
	Content     string
	UserID      uint
	User        string
	HabitID     *uint
	ChallengeID *uint
	CreatedAt   time.Time
}

// NewCommentService 构造 CommentService
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// Create 发布评论，目标必须存在
func (s *CommentService) Create(userID uint, input CommentInput) (*db.Comment, error) {
	if (input.HabitID == nil) == (input.ChallengeID == nil) {
		return nil, ErrCommentTarget
	}

	content := strings.TrimSpace(commentSanitizer.Sanitize(input.Content))
	if content == "" {
		return nil, ErrEmptyComment
	}

	if input.HabitID != nil {
		var habit db.Habit
		if err := s.db.First(&habit, *input.HabitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrHabitNotFound
			}
			return nil, fmt.Errorf("find habit: %w", err)
		}
	} else {
		var challenge db.Challenge
		if err := s.db.First(&challenge, *input.ChallengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrChallengeNotFound
			}
			return nil, fmt.Errorf("find challenge: %w", err)
		}
	}

	comment := db.Comment{
		Content:     content,
		UserID:      userID,
		HabitID:     input.HabitID,
		ChallengeID: input.ChallengeID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// ListForHabit 返回习惯下的评论
func (s *CommentService) ListForHabit(habitID uint) ([]CommentView, error) {
	return s.list("comments.habit_id = ?", habitID)
}

// ListForChallenge 返回挑战下的评论
func (s *CommentService) ListForChallenge(challengeID uint) ([]CommentView, error) {
	return s.list("comments.challenge_id = ?", challengeID)
}

func (s *CommentService) list(condition string, targetID uint) ([]CommentView, error) {
	var rows []struct {
		ID          uint
		Content     string
		UserID      uint
		Username    string
		HabitID     *uint
		ChallengeID *uint
		CreatedAt   time.Time
	}

	if err := s.db.Model(&db.Comment{}).
		Select("comments.id AS id, comments.content AS content, comments.user_id AS user_id, users.username AS username, comments.habit_id AS habit_id, comments.challenge_id AS challenge_id, comments.created_at AS created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Where(condition, targetID).
		Order("comments.id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	views := make([]CommentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, CommentView{
			ID:          row.ID,
			Content:     row.Content,
			UserID:      row.UserID,
			User:        row.Username,
			HabitID:     row.HabitID,
			ChallengeID: row.ChallengeID,
			CreatedAt:   row.CreatedAt,
		})
	}
	return views, nil
}
