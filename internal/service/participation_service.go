package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitloop/internal/db"
	"gorm.io/gorm"
)

// maxActiveParticipations 限制单个用户同时参与的挑战数量
const maxActiveParticipations = 3

var (
	// ErrAlreadyJoined 当用户重复加入同一挑战时返回
	ErrAlreadyJoined = errors.New("already joined this challenge")
	// ErrChallengeStarted 当挑战已开始、不再接受加入时返回
	ErrChallengeStarted = errors.New("challenge already started")
	// ErrParticipationLimit 当用户参与数达到上限时返回
	ErrParticipationLimit = errors.New("active participation limit reached")
	// ErrNotParticipating 当用户未参与目标挑战时返回
	ErrNotParticipating = errors.New("not participating in this challenge")
)

// ParticipationService 管理挑战的加入/退出与参与查询
// 加入与退出均在单事务内完成，唯一索引兜底并发下的重复加入
type ParticipationService struct {
	db *gorm.DB
	// deleteEntriesOnLeave 控制退出挑战时是否连带删除打卡记录
	deleteEntriesOnLeave bool
}

// JoinResult 返回新建的参与记录及其加入名次
// Rank 为插入后该挑战的参与总数，按加入先后计数，
// 之前的参与者退出不会回填名次
type JoinResult struct {
	Participant db.ChallengeParticipant
	Rank        int64
}

// ParticipationView 将参与记录与所属挑战的公开信息拼接
type ParticipationView struct {
	ID            uint
	ChallengeID   uint
	ChallengeName string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	JoinedDate    time.Time
	Reason        string
	Status        string
}

// NewParticipationService 构造 ParticipationService
func NewParticipationService(gdb *gorm.DB, deleteEntriesOnLeave bool) *ParticipationService {
	return &ParticipationService{db: gdb, deleteEntriesOnLeave: deleteEntriesOnLeave}
}

// Join 将用户加入挑战
// 校验顺序：挑战存在 → 尚未开始 → 未重复加入 → 未达参与上限。
// 已开始的挑战无论其他条件如何一律拒绝。
func (s *ParticipationService) Join(userID, challengeID uint, reason string) (*JoinResult, error) {
	var result JoinResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var challenge db.Challenge
		if err := tx.First(&challenge, challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return fmt.Errorf("find challenge: %w", err)
		}

		today := normalizeToDate(time.Now())
		if !normalizeToDate(challenge.StartDate).After(today) {
			return ErrChallengeStarted
		}

		var joined int64
		if err := tx.Model(&db.ChallengeParticipant{}).
			Where("user_id = ? AND challenge_id = ?", userID, challengeID).
			Count(&joined).Error; err != nil {
			return fmt.Errorf("count participation: %w", err)
		}
		if joined > 0 {
			return ErrAlreadyJoined
		}

		var active int64
		if err := tx.Model(&db.ChallengeParticipant{}).
			Where("user_id = ?", userID).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active participations: %w", err)
		}
		if active >= maxActiveParticipations {
			return ErrParticipationLimit
		}

		participant := db.ChallengeParticipant{
			UserID:      userID,
			ChallengeID: challengeID,
			JoinedDate:  today,
			Reason:      strings.TrimSpace(reason),
		}
		if err := tx.Create(&participant).Error; err != nil {
			// 并发下预检查可能同时通过，唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyJoined
			}
			return fmt.Errorf("create participant: %w", err)
		}

		var rank int64
		if err := tx.Model(&db.ChallengeParticipant{}).
			Where("challenge_id = ?", challengeID).
			Count(&rank).Error; err != nil {
			return fmt.Errorf("count rank: %w", err)
		}

		result = JoinResult{Participant: participant, Rank: rank}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Leave 将用户移出挑战，参与记录物理删除以便将来重新加入
// 是否连带删除打卡记录由配置决定，默认保留历史
func (s *ParticipationService) Leave(userID, challengeID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("user_id = ? AND challenge_id = ?", userID, challengeID).
			Delete(&db.ChallengeParticipant{})
		if res.Error != nil {
			return fmt.Errorf("delete participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotParticipating
		}

		if s.deleteEntriesOnLeave {
			if err := tx.Unscoped().
				Where("user_id = ? AND challenge_id = ?", userID, challengeID).
				Delete(&db.ChallengeEntry{}).Error; err != nil {
				return fmt.Errorf("delete entries on leave: %w", err)
			}
		}
		return nil
	})
}

// Joined 返回用户是否参与了目标挑战
// 刻意不校验挑战是否存在：未知 ID 一律返回 false
func (s *ParticipationService) Joined(userID, challengeID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&db.ChallengeParticipant{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count participation: %w", err)
	}
	return count > 0, nil
}

// ListForUser 返回用户的全部参与记录，附带挑战公开信息
// 按加入日期升序、ID 升序保证确定性
func (s *ParticipationService) ListForUser(userID uint) ([]ParticipationView, error) {
	var rows []struct {
		ID            uint
		ChallengeID   uint
		JoinedDate    time.Time
		Reason        string
		ChallengeName string
		Description   string
		StartDate     time.Time
		EndDate       time.Time
	}

	if err := s.db.Model(&db.ChallengeParticipant{}).
		Select("challenge_participants.id AS id, challenge_participants.challenge_id AS challenge_id, challenge_participants.joined_date AS joined_date, challenge_participants.reason AS reason, challenges.name AS challenge_name, challenges.description AS description, challenges.start_date AS start_date, challenges.end_date AS end_date").
		Joins("JOIN challenges ON challenges.id = challenge_participants.challenge_id").
		Where("challenge_participants.user_id = ?", userID).
		Order("challenge_participants.joined_date ASC, challenge_participants.id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}

	today := time.Now()
	views := make([]ParticipationView, 0, len(rows))
	for _, row := range rows {
		challenge := db.Challenge{StartDate: row.StartDate, EndDate: row.EndDate}
		views = append(views, ParticipationView{
			ID:            row.ID,
			ChallengeID:   row.ChallengeID,
			ChallengeName: row.ChallengeName,
			Description:   row.Description,
			StartDate:     row.StartDate,
			EndDate:       row.EndDate,
			JoinedDate:    row.JoinedDate,
			Reason:        row.Reason,
			Status:        ChallengeStatus(challenge, today),
		})
	}
	return views, nil
}
