package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/service"
)

type joinPayload struct {
	ChallengeID uint   `json:"challenge_id"`
	Reason      string `json:"reason"`
}

type leavePayload struct {
	ChallengeID uint `json:"challenge_id"`
}

// JoinChallenge 加入挑战，成功时返回加入名次
func (a *API) JoinChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload joinPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.ChallengeID == 0 {
		respondError(c, http.StatusBadRequest, "挑战ID不能为空")
		return
	}

	result, err := a.participations.Join(userID, payload.ChallengeID, payload.Reason)
	if err != nil {
		handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "加入挑战成功",
		"challenge_id": payload.ChallengeID,
		"rank":         result.Rank,
	})
}

// LeaveChallenge 退出挑战
func (a *API) LeaveChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload leavePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.ChallengeID == 0 {
		respondError(c, http.StatusBadRequest, "挑战ID不能为空")
		return
	}

	if err := a.participations.Leave(userID, payload.ChallengeID); err != nil {
		handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已退出挑战"})
}

// ListMyParticipations 返回当前用户的全部参与记录
func (a *API) ListMyParticipations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	views, err := a.participations.ListForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取参与记录失败")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, gin.H{
			"id":             view.ID,
			"challenge_id":   view.ChallengeID,
			"challenge_name": view.ChallengeName,
			"description":    view.Description,
			"start_date":     view.StartDate.Format(dateFormat),
			"end_date":       view.EndDate.Format(dateFormat),
			"joined_date":    view.JoinedDate.Format(dateFormat),
			"reason":         view.Reason,
			"status":         view.Status,
		})
	}
	c.JSON(http.StatusOK, items)
}

// ParticipationStatus 返回当前用户是否已加入指定挑战
// 与其它读取路径不同，这里不校验挑战是否存在，未知 ID 返回 false
func (a *API) ParticipationStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	joined, err := a.participations.Joined(userID, challengeID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "查询参与状态失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"joined": joined})
}

func handleParticipationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound):
		respondError(c, http.StatusNotFound, "挑战不存在")
	case errors.Is(err, service.ErrAlreadyJoined):
		respondError(c, http.StatusConflict, "已加入该挑战")
	case errors.Is(err, service.ErrChallengeStarted):
		respondError(c, http.StatusForbidden, "挑战已开始，无法加入")
	case errors.Is(err, service.ErrParticipationLimit):
		respondError(c, http.StatusForbidden, "同时参与的挑战数已达上限")
	case errors.Is(err, service.ErrNotParticipating):
		respondError(c, http.StatusNotFound, "未参与该挑战")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
