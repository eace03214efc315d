package service

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/habitloop/internal/db"
	"gorm.io/gorm"
)

// feedSourceLimit 限制每类来源最多取多少条最新记录
const feedSourceLimit = 10

// FeedComment 为信息流条目下的评论
type FeedComment struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
	User    string `json:"user"`
}

// FeedItem 为信息流中的异构条目（习惯或挑战）
// Joined 仅对挑战条目有意义，匿名访问时恒为 false
type FeedItem struct {
	Type        string        `json:"type"`
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	User        string        `json:"user"`
	CreatedBy   uint          `json:"created_by,omitempty"`
	Joined      bool          `json:"joined"`
	Comments    []FeedComment `json:"comments"`
}

// FeedService 汇总最新的习惯与挑战并拼接评论与参与注解
type FeedService struct {
	db *gorm.DB
}

// NewFeedService 构造 FeedService
func NewFeedService(gdb *gorm.DB) *FeedService {
	return &FeedService{db: gdb}
}

// Build 生成信息流
// 各来源按 ID 倒序取最新 10 条，合并后整体再按 ID 倒序。
// 习惯与挑战的 ID 序列彼此独立，因此时间线是近似的，这是
// 沿袭下来的展示口径，不做修正。
// viewerID 为 0 表示匿名访问，不附加参与注解。
func (s *FeedService) Build(viewerID uint) ([]FeedItem, error) {
	var habits []db.Habit
	if err := s.db.Order("id DESC").Limit(feedSourceLimit).Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list feed habits: %w", err)
	}

	var challenges []db.Challenge
	if err := s.db.Order("id DESC").Limit(feedSourceLimit).Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list feed challenges: %w", err)
	}

	usernames, err := s.usernameIndex(habits, challenges)
	if err != nil {
		return nil, err
	}

	joinedSet, err := s.joinedIndex(viewerID, challenges)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(habits)+len(challenges))

	for _, habit := range habits {
		comments, err := s.commentsFor("habit_id", habit.ID, usernames)
		if err != nil {
			return nil, err
		}
		items = append(items, FeedItem{
			Type:        "habit",
			ID:          habit.ID,
			Title:       habit.Name,
			Description: habit.Description,
			User:        usernameOr(usernames, habit.UserID),
			Comments:    comments,
		})
	}

	for _, challenge := range challenges {
		comments, err := s.commentsFor("challenge_id", challenge.ID, usernames)
		if err != nil {
			return nil, err
		}
		items = append(items, FeedItem{
			Type:        "challenge",
			ID:          challenge.ID,
			Title:       challenge.Name,
			Description: challenge.Description,
			User:        usernameOr(usernames, challenge.CreatedBy),
			CreatedBy:   challenge.CreatedBy,
			Joined:      joinedSet[challenge.ID],
			Comments:    comments,
		})
	}

	slices.SortStableFunc(items, func(a, b FeedItem) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return items, nil
}

// usernameIndex 一次性查出信息流涉及的全部用户名
func (s *FeedService) usernameIndex(habits []db.Habit, challenges []db.Challenge) (map[uint]string, error) {
	idSet := make(map[uint]struct{})
	for _, habit := range habits {
		idSet[habit.UserID] = struct{}{}
	}
	for _, challenge := range challenges {
		idSet[challenge.CreatedBy] = struct{}{}
	}

	var commentUserIDs []uint
	if err := s.db.Model(&db.Comment{}).Distinct("user_id").Pluck("user_id", &commentUserIDs).Error; err != nil {
		return nil, fmt.Errorf("list comment users: %w", err)
	}
	for _, id := range commentUserIDs {
		idSet[id] = struct{}{}
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		if id != 0 {
			ids = append(ids, id)
		}
	}

	index := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return index, nil
	}

	var users []db.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list feed users: %w", err)
	}
	for _, user := range users {
		index[user.ID] = user.Username
	}
	return index, nil
}

// joinedIndex 查出观看者已加入的挑战集合
func (s *FeedService) joinedIndex(viewerID uint, challenges []db.Challenge) (map[uint]bool, error) {
	joined := make(map[uint]bool)
	if viewerID == 0 || len(challenges) == 0 {
		return joined, nil
	}

	ids := make([]uint, 0, len(challenges))
	for _, challenge := range challenges {
		ids = append(ids, challenge.ID)
	}

	var joinedIDs []uint
	if err := s.db.Model(&db.ChallengeParticipant{}).
		Where("user_id = ? AND challenge_id IN ?", viewerID, ids).
		Pluck("challenge_id", &joinedIDs).Error; err != nil {
		return nil, fmt.Errorf("list joined challenges: %w", err)
	}
	for _, id := range joinedIDs {
		joined[id] = true
	}
	return joined, nil
}

// commentsFor 取出指定目标下的评论并附上用户名
func (s *FeedService) commentsFor(column string, targetID uint, usernames map[uint]string) ([]FeedComment, error) {
	var comments []db.Comment
	if err := s.db.Where(fmt.Sprintf("%s = ?", column), targetID).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list feed comments: %w", err)
	}

	views := make([]FeedComment, 0, len(comments))
	for _, comment := range comments {
		views = append(views, FeedComment{ID: comment.ID, Content: comment.Content, User: usernameOr(usernames, comment.UserID)})
	}
	return views, nil
}

func usernameOr(index map[uint]string, id uint) string {
	if name, ok := index[id]; ok && name != "" {
		return name
	}
	return "Unknown"
}
