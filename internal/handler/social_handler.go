package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/service"
)

type messagePayload struct {
	ReceiverID uint   `json:"receiver_id"`
	Content    string `json:"content"`
	ReplyToID  *uint  `json:"reply_to_id"`
}

type commentPayload struct {
	Content     string `json:"content"`
	HabitID     *uint  `json:"habit_id"`
	ChallengeID *uint  `json:"challenge_id"`
}

// SendMessage 发送私信
func (a *API) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload messagePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.ReceiverID == 0 {
		respondError(c, http.StatusBadRequest, "收信人不能为空")
		return
	}

	message, err := a.messages.Send(userID, payload.ReceiverID, payload.Content, payload.ReplyToID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			respondError(c, http.StatusBadRequest, "消息内容不能为空")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "收信人不存在")
		case errors.Is(err, service.ErrMessageNotFound):
			respondError(c, http.StatusNotFound, "被回复的消息不存在")
		default:
			respondError(c, http.StatusInternalServerError, "发送失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "发送成功",
		"sent": gin.H{
			"id":          message.ID,
			"receiver_id": message.ReceiverID,
			"content":     message.Content,
			"reply_to_id": message.ReplyToID,
			"sent_at":     message.CreatedAt.Format(time.RFC3339),
		},
	})
}

// ListMessages 返回当前用户收发的全部私信
func (a *API) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	views, err := a.messages.ListForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取私信失败")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, gin.H{
			"id":          view.ID,
			"sender_id":   view.SenderID,
			"sender":      view.Sender,
			"receiver_id": view.ReceiverID,
			"receiver":    view.Receiver,
			"content":     view.Content,
			"reply_to_id": view.ReplyToID,
			"sent_at":     view.SentAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, items)
}

// CreateComment 发布评论，目标为习惯或挑战二选一
func (a *API) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload commentPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	comment, err := a.comments.Create(userID, service.CommentInput{
		Content:     payload.Content,
		HabitID:     payload.HabitID,
		ChallengeID: payload.ChallengeID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentTarget):
			respondError(c, http.StatusBadRequest, "评论目标必须是习惯或挑战之一")
		case errors.Is(err, service.ErrEmptyComment):
			respondError(c, http.StatusBadRequest, "评论内容不能为空")
		case errors.Is(err, service.ErrHabitNotFound):
			respondError(c, http.StatusNotFound, "习惯不存在")
		case errors.Is(err, service.ErrChallengeNotFound):
			respondError(c, http.StatusNotFound, "挑战不存在")
		default:
			respondError(c, http.StatusInternalServerError, "发布评论失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "评论成功",
		"comment": gin.H{
			"id":           comment.ID,
			"content":      comment.Content,
			"habit_id":     comment.HabitID,
			"challenge_id": comment.ChallengeID,
		},
	})
}

// ListComments 按目标查询评论，habit_id 与 challenge_id 二选一
func (a *API) ListComments(c *gin.Context) {
	habitID := parseUintQuery(c, "habit_id")
	challengeID := parseUintQuery(c, "challenge_id")

	if (habitID == 0) == (challengeID == 0) {
		respondError(c, http.StatusBadRequest, "请指定 habit_id 或 challenge_id 之一")
		return
	}

	var (
		views []service.CommentView
		err   error
	)
	if habitID != 0 {
		views, err = a.comments.ListForHabit(habitID)
	} else {
		views, err = a.comments.ListForChallenge(challengeID)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取评论失败")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, gin.H{
			"id":           view.ID,
			"content":      view.Content,
			"user_id":      view.UserID,
			"user":         view.User,
			"habit_id":     view.HabitID,
			"challenge_id": view.ChallengeID,
			"created_at":   view.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, items)
}

func parseUintQuery(c *gin.Context, key string) uint {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(parsed)
}
