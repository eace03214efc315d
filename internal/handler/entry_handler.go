package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/service"
)

type entryPayload struct {
	ChallengeID uint   `json:"challenge_id"`
	Progress    string `json:"progress"`
}

// SubmitEntry 提交今日挑战打卡
func (a *API) SubmitEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload entryPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.ChallengeID == 0 {
		respondError(c, http.StatusBadRequest, "挑战ID不能为空")
		return
	}

	entry, err := a.challengeEntries.Submit(userID, payload.ChallengeID, payload.Progress)
	if err != nil {
		handleEntryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "打卡成功", "entry": entryToPayload(*entry)})
}

// ListMyEntries 返回当前用户的全部挑战打卡记录
func (a *API) ListMyEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	entries, err := a.challengeEntries.ListForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entryToPayload(entry))
	}
	c.JSON(http.StatusOK, items)
}

// ListChallengeEntries 返回挑战下的全部打卡记录，附带提交者用户名
func (a *API) ListChallengeEntries(c *gin.Context) {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	views, err := a.challengeEntries.ListForChallenge(challengeID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, gin.H{
			"id":           view.ID,
			"user_id":      view.UserID,
			"username":     view.Username,
			"challenge_id": view.ChallengeID,
			"date":         view.EntryDate.Format(dateFormat),
			"progress":     view.Progress,
		})
	}
	c.JSON(http.StatusOK, items)
}

func entryToPayload(entry db.ChallengeEntry) gin.H {
	return gin.H{
		"id":           entry.ID,
		"challenge_id": entry.ChallengeID,
		"date":         entry.EntryDate.Format(dateFormat),
		"progress":     entry.Progress,
	}
}

func handleEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidProgress):
		respondError(c, http.StatusBadRequest, "无效的进度取值")
	case errors.Is(err, service.ErrChallengeNotFound):
		respondError(c, http.StatusNotFound, "挑战不存在")
	case errors.Is(err, service.ErrChallengeNotActive):
		respondError(c, http.StatusForbidden, "挑战不在进行中")
	case errors.Is(err, service.ErrMustJoinFirst):
		respondError(c, http.StatusForbidden, "请先加入挑战")
	case errors.Is(err, service.ErrDuplicateEntry):
		respondError(c, http.StatusConflict, "今天已经打过卡了")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
